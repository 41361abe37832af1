package vm

import (
	"fmt"
	"io"
	"os"
	"time"
)

// LineTraceEntry is a single TRON line-trace record: spec §4.3's
// supplemented statement tracer prints the line number the dispatcher is
// about to execute, the same way real Microsoft BASIC's TRON does.
type LineTraceEntry struct {
	Sequence  uint64
	Line      int
	Statement string
	Timestamp time.Duration
}

// LineTrace manages TRON/TROFF statement tracing, grounded on the
// teacher's ExecutionTrace: a bounded, flushable log of per-step events,
// generalised from per-instruction register deltas to per-statement line
// numbers.
type LineTrace struct {
	Enabled    bool
	Writer     io.Writer
	MaxEntries int

	entries   []LineTraceEntry
	startTime time.Time
}

// NewLineTrace creates a disabled line trace writing to writer when
// enabled. TRON enables it; TROFF disables it without discarding history.
func NewLineTrace(writer io.Writer) *LineTrace {
	return &LineTrace{
		Writer:     writer,
		MaxEntries: 100000,
		entries:    make([]LineTraceEntry, 0, 256),
	}
}

// Start resets the trace and begins timestamping from now.
func (t *LineTrace) Start() {
	t.startTime = time.Now()
	t.entries = t.entries[:0]
}

// RecordLine appends one trace entry for the statement about to run at
// line, as printed by TRON: "[line]".
func (t *LineTrace) RecordLine(sequence uint64, line int, statement string) {
	if !t.Enabled {
		return
	}
	if t.MaxEntries > 0 && len(t.entries) >= t.MaxEntries {
		return
	}
	t.entries = append(t.entries, LineTraceEntry{
		Sequence:  sequence,
		Line:      line,
		Statement: statement,
		Timestamp: time.Since(t.startTime),
	})
}

// Flush writes every recorded entry to Writer.
func (t *LineTrace) Flush() error {
	if t.Writer == nil {
		return nil
	}
	for _, e := range t.entries {
		if _, err := fmt.Fprintf(t.Writer, "[%06d] #%-5d %s\n", e.Sequence, e.Line, e.Statement); err != nil {
			return err
		}
	}
	return nil
}

// GetEntries returns every recorded entry.
func (t *LineTrace) GetEntries() []LineTraceEntry { return t.entries }

// Clear discards all recorded entries without disabling the trace.
func (t *LineTrace) Clear() { t.entries = t.entries[:0] }

// OpenTraceFile opens a file to receive trace output, truncating any
// existing content.
func OpenTraceFile(filename string) (*os.File, error) {
	return os.Create(filename)
}
