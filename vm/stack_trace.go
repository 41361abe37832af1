package vm

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FrameOperation identifies a control-stack mutation.
type FrameOperation string

const (
	FramePush FrameOperation = "PUSH"
	FramePop  FrameOperation = "POP"
)

// FrameTraceEntry is a single FOR/GOSUB control-stack push or pop, the
// supplemented "FOR/GOSUB stack trace" of SPEC_FULL.md §3.1. Grounded on
// the teacher's StackTrace, generalised from raw SP deltas to the
// dispatcher's logical control-stack depth.
type FrameTraceEntry struct {
	Sequence  uint64
	Line      int
	Operation FrameOperation
	Kind      FrameKind
	OldDepth  int
	NewDepth  int
	VarName   string // FOR frames only
}

// FrameTrace tracks FOR/GOSUB stack operations and flags the two classic
// control-flow mistakes: NEXT without a matching FOR, and RETURN without a
// matching GOSUB.
type FrameTrace struct {
	Enabled bool
	Writer  io.Writer

	entries    []FrameTraceEntry
	maxEntries int
	maxDepth   int

	totalPushes    uint64
	totalPops      uint64
	underflowCount uint64
}

// NewFrameTrace creates a control-stack tracker writing reports to writer.
func NewFrameTrace(writer io.Writer) *FrameTrace {
	return &FrameTrace{Enabled: true, Writer: writer, entries: make([]FrameTraceEntry, 0, 256), maxEntries: 100000}
}

// Start resets the tracker.
func (f *FrameTrace) Start() {
	f.entries = f.entries[:0]
	f.maxDepth = 0
	f.totalPushes = 0
	f.totalPops = 0
	f.underflowCount = 0
}

// RecordPush logs a frame push (FOR or GOSUB entering the control stack).
func (f *FrameTrace) RecordPush(sequence uint64, line int, kind FrameKind, varName string, oldDepth, newDepth int) {
	if !f.Enabled {
		return
	}
	f.totalPushes++
	if newDepth > f.maxDepth {
		f.maxDepth = newDepth
	}
	if f.maxEntries > 0 && len(f.entries) >= f.maxEntries {
		return
	}
	f.entries = append(f.entries, FrameTraceEntry{
		Sequence: sequence, Line: line, Operation: FramePush, Kind: kind,
		VarName: varName, OldDepth: oldDepth, NewDepth: newDepth,
	})
}

// RecordPop logs a frame pop (NEXT consuming a FOR, or RETURN consuming a
// GOSUB). underflow marks a pop attempted against an empty stack.
func (f *FrameTrace) RecordPop(sequence uint64, line int, kind FrameKind, oldDepth, newDepth int, underflow bool) {
	if !f.Enabled {
		return
	}
	f.totalPops++
	if underflow {
		f.underflowCount++
	}
	if f.maxEntries > 0 && len(f.entries) >= f.maxEntries {
		return
	}
	f.entries = append(f.entries, FrameTraceEntry{
		Sequence: sequence, Line: line, Operation: FramePop, Kind: kind,
		OldDepth: oldDepth, NewDepth: newDepth,
	})
}

// MaxDepth returns the deepest the control stack reached during the run.
func (f *FrameTrace) MaxDepth() int { return f.maxDepth }

// HasUnderflow reports whether any pop was attempted against an empty
// stack (a NEXT WITHOUT FOR or RETURN WITHOUT GOSUB was raised).
func (f *FrameTrace) HasUnderflow() bool { return f.underflowCount > 0 }

// GetEntries returns every recorded push/pop.
func (f *FrameTrace) GetEntries() []FrameTraceEntry { return f.entries }

// Flush writes a human-readable report to Writer.
func (f *FrameTrace) Flush() error {
	if f.Writer == nil {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("Control Stack Trace Report\n")
	sb.WriteString("===========================\n\n")
	fmt.Fprintf(&sb, "Max Depth:      %d frames\n", f.maxDepth)
	fmt.Fprintf(&sb, "Total Pushes:   %d\n", f.totalPushes)
	fmt.Fprintf(&sb, "Total Pops:     %d\n", f.totalPops)
	if f.underflowCount > 0 {
		fmt.Fprintf(&sb, "Underflows:     %d (NEXT/RETURN with no matching frame)\n", f.underflowCount)
	}
	sb.WriteString("\nOperations:\n")
	for _, e := range f.entries {
		switch e.Operation {
		case FramePush:
			fmt.Fprintf(&sb, "[%06d] #%-5d PUSH %-5s depth %d -> %d%s\n",
				e.Sequence, e.Line, e.Kind, e.OldDepth, e.NewDepth, forVarSuffix(e))
		case FramePop:
			fmt.Fprintf(&sb, "[%06d] #%-5d POP  %-5s depth %d -> %d\n",
				e.Sequence, e.Line, e.Kind, e.OldDepth, e.NewDepth)
		}
	}
	_, err := f.Writer.Write([]byte(sb.String()))
	return err
}

func forVarSuffix(e FrameTraceEntry) string {
	if e.Kind == FrameFor && e.VarName != "" {
		return fmt.Sprintf(" (%s)", e.VarName)
	}
	return ""
}

// ExportJSON exports the trace summary as JSON.
func (f *FrameTrace) ExportJSON(w io.Writer) error {
	data := map[string]interface{}{
		"max_depth":       f.maxDepth,
		"total_pushes":    f.totalPushes,
		"total_pops":      f.totalPops,
		"underflow_count": f.underflowCount,
		"entries":         f.entries,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// String returns a short summary.
func (f *FrameTrace) String() string {
	return fmt.Sprintf("Control Stack: max depth %d, %d pushes, %d pops\n", f.maxDepth, f.totalPushes, f.totalPops)
}
