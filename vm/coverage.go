package vm

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// LineCoverageEntry records how many times a program line has run.
type LineCoverageEntry struct {
	Line           int
	ExecutionCount uint64
	FirstExecution uint64
	LastExecution  uint64
}

// LineCoverage tracks which program lines have been executed, the
// supplemented line-coverage report of SPEC_FULL.md §3.1. Grounded on the
// teacher's CodeCoverage, generalising instruction addresses to BASIC
// line numbers.
type LineCoverage struct {
	Enabled bool
	Writer  io.Writer

	executed map[int]*LineCoverageEntry
	allLines []int // every line number present in the program, for a denominator
}

// NewLineCoverage creates a line coverage tracker writing reports to writer.
func NewLineCoverage(writer io.Writer) *LineCoverage {
	return &LineCoverage{Enabled: true, Writer: writer, executed: make(map[int]*LineCoverageEntry)}
}

// SetLines declares the full set of line numbers in the loaded program,
// used as the coverage denominator.
func (c *LineCoverage) SetLines(lines []int) { c.allLines = lines }

// Start resets the tracker.
func (c *LineCoverage) Start() { c.executed = make(map[int]*LineCoverageEntry) }

// RecordExecution records that line ran at sequence.
func (c *LineCoverage) RecordExecution(line int, sequence uint64) {
	if !c.Enabled {
		return
	}
	if e, ok := c.executed[line]; ok {
		e.ExecutionCount++
		e.LastExecution = sequence
		return
	}
	c.executed[line] = &LineCoverageEntry{Line: line, ExecutionCount: 1, FirstExecution: sequence, LastExecution: sequence}
}

// Coverage returns the fraction of declared lines that have executed, as a
// percentage.
func (c *LineCoverage) Coverage() float64 {
	if len(c.allLines) == 0 {
		return 0
	}
	return float64(len(c.executed)) / float64(len(c.allLines)) * 100.0
}

// ExecutedLines returns every executed line number, ascending.
func (c *LineCoverage) ExecutedLines() []int {
	out := make([]int, 0, len(c.executed))
	for ln := range c.executed {
		out = append(out, ln)
	}
	sort.Ints(out)
	return out
}

// UnexecutedLines returns declared lines that never ran.
func (c *LineCoverage) UnexecutedLines() []int {
	var out []int
	for _, ln := range c.allLines {
		if _, ok := c.executed[ln]; !ok {
			out = append(out, ln)
		}
	}
	return out
}

// Entry returns the coverage entry for a line, or nil if it never ran.
func (c *LineCoverage) Entry(line int) *LineCoverageEntry { return c.executed[line] }

// Flush writes a human-readable coverage report to Writer.
func (c *LineCoverage) Flush() error {
	if c.Writer == nil {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("Line Coverage Report\n")
	sb.WriteString("=====================\n\n")
	if len(c.allLines) > 0 {
		fmt.Fprintf(&sb, "Total Lines:    %d\n", len(c.allLines))
		fmt.Fprintf(&sb, "Executed:       %d\n", len(c.executed))
		fmt.Fprintf(&sb, "Not Executed:   %d\n", len(c.allLines)-len(c.executed))
		fmt.Fprintf(&sb, "Coverage:       %.2f%%\n\n", c.Coverage())
	} else {
		fmt.Fprintf(&sb, "Executed:       %d unique lines\n\n", len(c.executed))
	}

	sb.WriteString("Executed Lines:\n")
	for _, ln := range c.ExecutedLines() {
		e := c.executed[ln]
		fmt.Fprintf(&sb, "#%-5d executed %6d times (first: #%d, last: #%d)\n", ln, e.ExecutionCount, e.FirstExecution, e.LastExecution)
	}

	if un := c.UnexecutedLines(); len(un) > 0 {
		sb.WriteString("\nNot Executed:\n")
		for _, ln := range un {
			fmt.Fprintf(&sb, "#%-5d\n", ln)
		}
	}

	_, err := c.Writer.Write([]byte(sb.String()))
	return err
}

// ExportJSON exports the coverage data as JSON.
func (c *LineCoverage) ExportJSON(w io.Writer) error {
	data := map[string]interface{}{
		"coverage_percent": c.Coverage(),
		"executed_count":   len(c.executed),
		"unexecuted_count": len(c.UnexecutedLines()),
		"executed_lines":   c.executed,
		"unexecuted_lines": c.UnexecutedLines(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// String returns a short summary.
func (c *LineCoverage) String() string {
	return fmt.Sprintf("Line Coverage: %d/%d lines (%.2f%%)\n", len(c.executed), len(c.allLines), c.Coverage())
}
