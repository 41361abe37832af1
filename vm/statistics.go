package vm

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"
)

// StatementStats tracks how often one statement keyword (PRINT, FOR, ...)
// has executed.
type StatementStats struct {
	Keyword string
	Count   uint64
}

// GosubStats tracks how often one GOSUB target line has been called.
type GosubStats struct {
	Line      int
	CallCount uint64
}

// HotLineEntry is a program line paired with how often it has executed.
type HotLineEntry struct {
	Line  int
	Count uint64
}

// Stats is the interpreter's running statistics, the supplemented
// vm.Stats component of SPEC_FULL.md §3.1. Grounded on the teacher's
// PerformanceStatistics, generalised from ARM instruction/cycle counters
// to BASIC statement/line counters.
type Stats struct {
	Enabled bool

	TotalStatements  uint64
	ExecutionTime    time.Duration
	StatementsPerSec float64

	StatementCounts map[string]uint64

	GosubCalls map[int]*GosubStats
	HotLines   map[int]uint64

	MemoryReads  uint64
	MemoryWrites uint64

	startTime time.Time
}

// NewStats creates a statistics tracker.
func NewStats() *Stats {
	return &Stats{
		Enabled:         true,
		StatementCounts: make(map[string]uint64),
		GosubCalls:      make(map[int]*GosubStats),
		HotLines:        make(map[int]uint64),
	}
}

// Start resets the tracker and begins timing.
func (s *Stats) Start() {
	s.startTime = time.Now()
	s.TotalStatements = 0
	s.StatementCounts = make(map[string]uint64)
	s.GosubCalls = make(map[int]*GosubStats)
	s.HotLines = make(map[int]uint64)
	s.MemoryReads = 0
	s.MemoryWrites = 0
}

// RecordStatement records one executed statement at line.
func (s *Stats) RecordStatement(keyword string, line int) {
	if !s.Enabled {
		return
	}
	s.TotalStatements++
	s.StatementCounts[keyword]++
	s.HotLines[line]++
}

// RecordGosub records one GOSUB call to line.
func (s *Stats) RecordGosub(line int) {
	if !s.Enabled {
		return
	}
	if g, ok := s.GosubCalls[line]; ok {
		g.CallCount++
		return
	}
	s.GosubCalls[line] = &GosubStats{Line: line, CallCount: 1}
}

// RecordMemoryRead/RecordMemoryWrite add one to the run's memory
// read/write counters. Nothing in the interpreter calls them, so PEEK and
// POKE leave those counters at zero.
func (s *Stats) RecordMemoryRead()  { s.MemoryReads++ }
func (s *Stats) RecordMemoryWrite() { s.MemoryWrites++ }

// Finalize computes derived metrics (statements/sec) at the end of a run.
func (s *Stats) Finalize() {
	s.ExecutionTime = time.Since(s.startTime)
	if s.ExecutionTime.Seconds() > 0 {
		s.StatementsPerSec = float64(s.TotalStatements) / s.ExecutionTime.Seconds()
	}
}

// TopStatements returns the n most frequently executed statement keywords.
func (s *Stats) TopStatements(n int) []StatementStats {
	out := make([]StatementStats, 0, len(s.StatementCounts))
	for kw, count := range s.StatementCounts {
		out = append(out, StatementStats{Keyword: kw, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && n < len(out) {
		return out[:n]
	}
	return out
}

// TopHotLines returns the n most frequently executed lines.
func (s *Stats) TopHotLines(n int) []HotLineEntry {
	out := make([]HotLineEntry, 0, len(s.HotLines))
	for line, count := range s.HotLines {
		out = append(out, HotLineEntry{Line: line, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && n < len(out) {
		return out[:n]
	}
	return out
}

// TopGosubTargets returns the n most frequently called GOSUB targets.
func (s *Stats) TopGosubTargets(n int) []*GosubStats {
	out := make([]*GosubStats, 0, len(s.GosubCalls))
	for _, g := range s.GosubCalls {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallCount > out[j].CallCount })
	if n > 0 && n < len(out) {
		return out[:n]
	}
	return out
}

// ExportJSON exports the statistics as JSON, used by main's statistics
// file for any format other than csv or html.
func (s *Stats) ExportJSON(w io.Writer) error {
	s.Finalize()
	data := map[string]interface{}{
		"total_statements":   s.TotalStatements,
		"execution_time_ms":  s.ExecutionTime.Milliseconds(),
		"statements_per_sec": s.StatementsPerSec,
		"memory_reads":       s.MemoryReads,
		"memory_writes":      s.MemoryWrites,
		"top_statements":     s.TopStatements(20),
		"hot_lines":          s.TopHotLines(20),
		"top_gosub_targets":  s.TopGosubTargets(20),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV exports summary metrics and the statement breakdown as CSV.
func (s *Stats) ExportCSV(w io.Writer) error {
	s.Finalize()
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	rows := [][]string{
		{"Total Statements", fmt.Sprintf("%d", s.TotalStatements)},
		{"Execution Time (ms)", fmt.Sprintf("%d", s.ExecutionTime.Milliseconds())},
		{"Statements/Sec", fmt.Sprintf("%.2f", s.StatementsPerSec)},
		{"Memory Reads", fmt.Sprintf("%d", s.MemoryReads)},
		{"Memory Writes", fmt.Sprintf("%d", s.MemoryWrites)},
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Write([]string{})
	cw.Write([]string{"Statement", "Count"})
	for _, stat := range s.TopStatements(0) {
		if err := cw.Write([]string{stat.Keyword, fmt.Sprintf("%d", stat.Count)}); err != nil {
			return err
		}
	}
	return nil
}

var statsHTMLTemplate = template.Must(template.New("stats").Parse(`
<!DOCTYPE html>
<html>
<head>
    <title>BASIC Interpreter Run Statistics</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        h1 { color: #333; }
        h2 { color: #666; margin-top: 30px; }
        table { border-collapse: collapse; margin: 10px 0; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #4CAF50; color: white; }
        tr:nth-child(even) { background-color: #f2f2f2; }
        .metric { font-weight: bold; }
    </style>
</head>
<body>
    <h1>BASIC Interpreter Run Statistics</h1>

    <h2>Execution Summary</h2>
    <table>
        <tr><td class="metric">Total Statements</td><td>{{.TotalStatements}}</td></tr>
        <tr><td class="metric">Execution Time</td><td>{{.ExecutionTime}}</td></tr>
        <tr><td class="metric">Statements/Second</td><td>{{printf "%.2f" .StatementsPerSec}}</td></tr>
    </table>

    <h2>Memory Access Statistics</h2>
    <table>
        <tr><td class="metric">Memory Reads</td><td>{{.MemoryReads}}</td></tr>
        <tr><td class="metric">Memory Writes</td><td>{{.MemoryWrites}}</td></tr>
    </table>

    <h2>Statement Mix</h2>
    <table>
        <tr><th>Statement</th><th>Count</th></tr>
        {{range .TopStatements}}
        <tr><td>{{.Keyword}}</td><td>{{.Count}}</td></tr>
        {{end}}
    </table>

    <h2>Hot Lines</h2>
    <table>
        <tr><th>Line</th><th>Executions</th></tr>
        {{range .HotLines}}
        <tr><td>#{{.Line}}</td><td>{{.Count}}</td></tr>
        {{end}}
    </table>
</body>
</html>
`))

// ExportHTML renders an HTML statistics report.
func (s *Stats) ExportHTML(w io.Writer) error {
	s.Finalize()
	data := struct {
		TotalStatements  uint64
		ExecutionTime    time.Duration
		StatementsPerSec float64
		MemoryReads      uint64
		MemoryWrites     uint64
		TopStatements    []StatementStats
		HotLines         []HotLineEntry
	}{
		TotalStatements:  s.TotalStatements,
		ExecutionTime:    s.ExecutionTime,
		StatementsPerSec: s.StatementsPerSec,
		MemoryReads:      s.MemoryReads,
		MemoryWrites:     s.MemoryWrites,
		TopStatements:    s.TopStatements(20),
		HotLines:         s.TopHotLines(20),
	}
	return statsHTMLTemplate.Execute(w, data)
}

// String returns a human-readable summary.
func (s *Stats) String() string {
	s.Finalize()
	var sb strings.Builder
	sb.WriteString("Run Statistics\n")
	sb.WriteString("==============\n\n")
	fmt.Fprintf(&sb, "Total Statements:  %d\n", s.TotalStatements)
	fmt.Fprintf(&sb, "Execution Time:    %v\n", s.ExecutionTime)
	fmt.Fprintf(&sb, "Statements/Sec:    %.2f\n\n", s.StatementsPerSec)
	fmt.Fprintf(&sb, "Memory Reads:      %d\n", s.MemoryReads)
	fmt.Fprintf(&sb, "Memory Writes:     %d\n\n", s.MemoryWrites)

	sb.WriteString("Top Statements:\n")
	for i, stat := range s.TopStatements(10) {
		pct := float64(stat.Count) / float64(s.TotalStatements) * 100
		fmt.Fprintf(&sb, "  %2d. %-10s %8d (%.1f%%)\n", i+1, stat.Keyword, stat.Count, pct)
	}
	return sb.String()
}
