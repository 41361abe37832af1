package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lookbusy1344/basic6502/program"
)

// CoverageEntry is one executed line's run count, copied out of a
// vm.LineCoverage snapshot so this package never needs vm's own type.
type CoverageEntry struct {
	Line           int
	ExecutionCount uint64
}

// Coverage reports which lines of a stored program never ran during the
// run a vm.LineCoverage recorded, the static complement to that tracker:
// LineCoverage says what happened during one RUN, Coverage says what that
// implies about the program's dead weight. Grounded on vm/coverage.go's
// executed/unexecuted split, reshaped into a program.Store-aware report
// the way XRefGenerator reshapes a raw token scan into a symbol table.
type Coverage struct {
	store    *program.Store
	executed map[int]uint64
}

// NewCoverage builds a report over every line store currently holds,
// given the set of lines a run actually executed and how many times.
func NewCoverage(store *program.Store, executed []CoverageEntry) *Coverage {
	m := make(map[int]uint64, len(executed))
	for _, e := range executed {
		m[e.Line] = e.ExecutionCount
	}
	return &Coverage{store: store, executed: m}
}

// DeadLines returns every line number store holds that never executed,
// ascending.
func (c *Coverage) DeadLines() []int {
	var dead []int
	for _, ref := range c.store.Walk() {
		if _, ok := c.executed[ref.Number]; !ok {
			dead = append(dead, ref.Number)
		}
	}
	sort.Ints(dead)
	return dead
}

// Percent returns the fraction of store's lines that executed, as a
// percentage in [0, 100]. A program with no lines reports 100, matching
// XRefGenerator's convention that an empty program has no problems to
// report.
func (c *Coverage) Percent() float64 {
	total := len(c.store.Walk())
	if total == 0 {
		return 100
	}
	ran := total - len(c.DeadLines())
	return float64(ran) / float64(total) * 100.0
}

// String renders a LIST-style dead-line report: the dead lines first
// (most actionable), then the overall percentage, the same
// summary-after-detail ordering tools.XRefReport.String uses.
func (c *Coverage) String() string {
	var sb strings.Builder
	dead := c.DeadLines()
	if len(dead) == 0 {
		sb.WriteString("no dead lines\n")
	} else {
		sb.WriteString("Dead lines (never executed):\n")
		for _, ln := range dead {
			fmt.Fprintf(&sb, "  #%d\n", ln)
		}
	}
	fmt.Fprintf(&sb, "\nCoverage: %.2f%%\n", c.Percent())
	return sb.String()
}
