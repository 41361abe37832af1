package tools

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lookbusy1344/basic6502/program"
	"github.com/lookbusy1344/basic6502/token"
)

// ReferenceType indicates how a line number is referenced by a jump.
type ReferenceType int

const (
	RefGoto ReferenceType = iota
	RefGosub
	RefThen
	RefOnGoto
	RefOnGosub
	RefRun
)

func (r ReferenceType) String() string {
	switch r {
	case RefGoto:
		return "GOTO"
	case RefGosub:
		return "GOSUB"
	case RefThen:
		return "THEN"
	case RefOnGoto:
		return "ON...GOTO"
	case RefOnGosub:
		return "ON...GOSUB"
	case RefRun:
		return "RUN"
	default:
		return "unknown"
	}
}

// Reference is one jump to a line number, found at FromLine.
type Reference struct {
	Type     ReferenceType
	FromLine int
}

// Symbol is a line number and every jump that names it.
type Symbol struct {
	LineNumber int
	Defined    bool // true if the program store actually holds this line
	References []*Reference
}

// XRefGenerator builds a line-number cross-reference from a program
// store's contents, grounded on the teacher's label cross-reference
// generator: there a symbol is a label collecting branch/load/store
// references, here a symbol is a line number collecting GOTO/GOSUB/THEN/
// ON...GOTO/ON...GOSUB/RUN targets.
type XRefGenerator struct {
	symbols map[int]*Symbol
}

// NewXRefGenerator creates an empty generator.
func NewXRefGenerator() *XRefGenerator {
	return &XRefGenerator{symbols: make(map[int]*Symbol)}
}

func (x *XRefGenerator) symbol(n int) *Symbol {
	s, ok := x.symbols[n]
	if !ok {
		s = &Symbol{LineNumber: n}
		x.symbols[n] = s
	}
	return s
}

// Generate walks every line store holds, recording its definition, then
// scans each line's token stream for jump targets. It returns the full
// symbol table, keyed by line number.
func (x *XRefGenerator) Generate(store *program.Store) map[int]*Symbol {
	for _, ref := range store.Walk() {
		x.symbol(ref.Number).Defined = true
		x.scanLine(ref.Number, store.Tokens(ref.Addr))
	}
	return x.symbols
}

// scanLine finds every GOTO/GOSUB/THEN/ON.../RUN target in one line's raw
// token bytes. It is a plain forward scan, not a full statement parse —
// line numbers are never tokenized (only reserved words are), so a literal
// decimal run following one of these tokens is always a jump target.
func (x *XRefGenerator) scanLine(lineNo int, toks []byte) {
	afterOn := false
	i := 0
	for i < len(toks) {
		switch toks[i] {
		case token.ON:
			afterOn = true
			i++
		case token.GOTO, token.GOSUB:
			isGosub := toks[i] == token.GOSUB
			rt := refTypeFor(afterOn, isGosub)
			afterOn = false
			i = x.recordTargetList(lineNo, rt, toks, i+1)
		case token.THEN:
			i = x.recordOptionalTarget(lineNo, RefThen, toks, i+1)
		case token.RUN:
			i = x.recordOptionalTarget(lineNo, RefRun, toks, i+1)
		case ':':
			afterOn = false
			i++
		default:
			i++
		}
	}
}

func refTypeFor(afterOn, isGosub bool) ReferenceType {
	switch {
	case afterOn && isGosub:
		return RefOnGosub
	case afterOn:
		return RefOnGoto
	case isGosub:
		return RefGosub
	default:
		return RefGoto
	}
}

// recordTargetList scans a comma-separated run of decimal line numbers
// starting at i (skipping spaces before each one), recording a reference
// for each, and returns the index just past the list — the shape
// ON...GOTO/GOSUB n1,n2,... needs; a plain GOTO/GOSUB only ever has one
// entry in the list.
func (x *XRefGenerator) recordTargetList(lineNo int, rt ReferenceType, toks []byte, i int) int {
	for {
		i = skipSpacesAt(toks, i)
		j, n, ok := scanDigitsAt(toks, i)
		if !ok {
			break
		}
		x.symbol(n).References = append(x.symbol(n).References, &Reference{Type: rt, FromLine: lineNo})
		i = skipSpacesAt(toks, j)
		if i < len(toks) && toks[i] == ',' {
			i++
			continue
		}
		break
	}
	return i
}

// recordOptionalTarget records a single target after THEN or RUN only if
// a decimal run actually follows (THEN and RUN may instead be followed by
// a full statement, or by nothing at all).
func (x *XRefGenerator) recordOptionalTarget(lineNo int, rt ReferenceType, toks []byte, i int) int {
	j := skipSpacesAt(toks, i)
	k, n, ok := scanDigitsAt(toks, j)
	if !ok {
		return i
	}
	x.symbol(n).References = append(x.symbol(n).References, &Reference{Type: rt, FromLine: lineNo})
	return k
}

func skipSpacesAt(toks []byte, i int) int {
	for i < len(toks) && toks[i] == ' ' {
		i++
	}
	return i
}

func scanDigitsAt(toks []byte, i int) (int, int, bool) {
	start := i
	for i < len(toks) && toks[i] >= '0' && toks[i] <= '9' {
		i++
	}
	if i == start {
		return i, 0, false
	}
	n, err := strconv.Atoi(string(toks[start:i]))
	if err != nil {
		return i, 0, false
	}
	return i, n, true
}

// GetSymbols returns the full symbol table.
func (x *XRefGenerator) GetSymbols() map[int]*Symbol {
	return x.symbols
}

// GetUndefined returns every line number that is jumped to but never
// stored, sorted ascending — exactly the set RUN would eventually hit an
// UNDEFINED LINE NUMBER error on, surfaced ahead of time.
func (x *XRefGenerator) GetUndefined() []*Symbol {
	var out []*Symbol
	for _, sym := range x.symbols {
		if !sym.Defined && len(sym.References) > 0 {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNumber < out[j].LineNumber })
	return out
}

// GetUnreferenced returns every stored line that no GOTO/GOSUB/THEN/ON/RUN
// anywhere in the program jumps to, sorted ascending. A program's first
// line is routinely unreferenced (execution falls into it rather than
// jumping); callers that want to flag genuinely dead code should expect
// that and filter it themselves.
func (x *XRefGenerator) GetUnreferenced() []*Symbol {
	var out []*Symbol
	for _, sym := range x.symbols {
		if sym.Defined && len(sym.References) == 0 {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNumber < out[j].LineNumber })
	return out
}

// XRefReport formats a symbol table as human-readable text, grounded on
// the teacher's own XRefReport.
type XRefReport struct {
	symbols []*Symbol
}

// NewXRefReport sorts symbols by line number and wraps them for printing.
func NewXRefReport(symbols map[int]*Symbol) *XRefReport {
	sorted := make([]*Symbol, 0, len(symbols))
	for _, sym := range symbols {
		sorted = append(sorted, sym)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LineNumber < sorted[j].LineNumber })
	return &XRefReport{symbols: sorted}
}

// String renders the report: one block per line number, its definition
// status, and every reference to it grouped by jump type, followed by a
// summary count.
func (r *XRefReport) String() string {
	var sb strings.Builder
	sb.WriteString("Line Cross-Reference\n")
	sb.WriteString("=====================\n\n")

	for _, sym := range r.symbols {
		sb.WriteString(fmt.Sprintf("%-10d", sym.LineNumber))
		if sym.Defined {
			sb.WriteString(" [defined]")
		} else {
			sb.WriteString(" [undefined]")
		}
		sb.WriteByte('\n')

		if len(sym.References) == 0 {
			sb.WriteString("  Referenced:  (never)\n")
		} else {
			sb.WriteString(fmt.Sprintf("  Referenced:  %d time(s)\n", len(sym.References)))
			byType := make(map[ReferenceType][]int)
			for _, ref := range sym.References {
				byType[ref.Type] = append(byType[ref.Type], ref.FromLine)
			}
			types := []ReferenceType{RefGoto, RefGosub, RefThen, RefOnGoto, RefOnGosub, RefRun}
			for _, rt := range types {
				froms := byType[rt]
				if len(froms) == 0 {
					continue
				}
				sort.Ints(froms)
				parts := make([]string, len(froms))
				for i, n := range froms {
					parts[i] = strconv.Itoa(n)
				}
				sb.WriteString(fmt.Sprintf("    %-10s: line(s) %s\n", rt.String(), strings.Join(parts, ", ")))
			}
		}
		sb.WriteByte('\n')
	}

	defined, undefined, unreferenced := 0, 0, 0
	for _, sym := range r.symbols {
		if sym.Defined {
			defined++
		} else {
			undefined++
		}
		if sym.Defined && len(sym.References) == 0 {
			unreferenced++
		}
	}
	sb.WriteString("Summary\n")
	sb.WriteString("=======\n")
	sb.WriteString(fmt.Sprintf("Defined lines:     %d\n", defined))
	sb.WriteString(fmt.Sprintf("Undefined targets: %d\n", undefined))
	sb.WriteString(fmt.Sprintf("Unreferenced:      %d\n", unreferenced))

	return sb.String()
}

// GenerateXRef is the convenience entry point: build and format a
// cross-reference report for store in one call.
func GenerateXRef(store *program.Store) string {
	gen := NewXRefGenerator()
	symbols := gen.Generate(store)
	return NewXRefReport(symbols).String()
}
