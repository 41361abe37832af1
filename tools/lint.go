package tools

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lookbusy1344/basic6502/program"
)

// LintLevel is the severity of a lint finding.
type LintLevel int

const (
	LintError LintLevel = iota
	LintWarning
	LintInfo
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue is one static finding against a stored program.
type LintIssue struct {
	Level   LintLevel
	Line    int // the line number the issue concerns
	Message string
	Code    string // e.g. "UNDEF_LINE", "UNREFERENCED_LINE"
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d: %s: %s [%s]", i.Line, i.Level, i.Message, i.Code)
}

// LintOptions controls which passes Lint runs, grounded on the teacher's
// own LintOptions — narrowed from assembly's label/register/reachability
// checks to the two that have a BASIC-domain meaning.
type LintOptions struct {
	// CheckUndefined flags a GOTO/GOSUB/THEN/ON.../RUN target that names a
	// line the program never stores — the same condition RUN would later
	// fail on with UNDEFINED LINE NUMBER, caught ahead of time.
	CheckUndefined bool

	// CheckUnused flags a stored line that nothing in the program jumps
	// to. Off by default: in BASIC, unlike labelled assembly, most lines
	// are reached by falling through from the previous one rather than by
	// name, so "unreferenced" is the common case, not a defect.
	CheckUnused bool
}

// DefaultLintOptions enables only the check with no false-positive rate.
func DefaultLintOptions() *LintOptions {
	return &LintOptions{CheckUndefined: true, CheckUnused: false}
}

// Linter runs static checks against a program store's jump graph.
type Linter struct {
	options *LintOptions
}

// NewLinter builds a Linter; a nil options defaults to DefaultLintOptions.
func NewLinter(options *LintOptions) *Linter {
	if options == nil {
		options = DefaultLintOptions()
	}
	return &Linter{options: options}
}

// Lint analyzes store's stored program and returns every issue found,
// sorted by line number.
func (lt *Linter) Lint(store *program.Store) []*LintIssue {
	gen := NewXRefGenerator()
	gen.Generate(store)

	var issues []*LintIssue

	if lt.options.CheckUndefined {
		for _, sym := range gen.GetUndefined() {
			issues = append(issues, &LintIssue{
				Level:   LintError,
				Line:    sym.LineNumber,
				Message: fmt.Sprintf("line %d is never defined, referenced from line(s) %s", sym.LineNumber, formatFromLines(sym.References)),
				Code:    "UNDEF_LINE",
			})
		}
	}

	if lt.options.CheckUnused {
		for _, sym := range gen.GetUnreferenced() {
			issues = append(issues, &LintIssue{
				Level:   LintInfo,
				Line:    sym.LineNumber,
				Message: fmt.Sprintf("line %d is defined but never referenced by GOTO/GOSUB/THEN/ON/RUN", sym.LineNumber),
				Code:    "UNREFERENCED_LINE",
			})
		}
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Line < issues[j].Line })
	return issues
}

// formatFromLines renders the distinct source lines referencing a symbol,
// sorted and de-duplicated, for a lint message.
func formatFromLines(refs []*Reference) string {
	seen := make(map[int]bool)
	var lines []int
	for _, ref := range refs {
		if seen[ref.FromLine] {
			continue
		}
		seen[ref.FromLine] = true
		lines = append(lines, ref.FromLine)
	}
	sort.Ints(lines)
	parts := make([]string, len(lines))
	for i, n := range lines {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
