package vm

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// VarAccessType distinguishes a variable read from a write in the
// supplemented access trace (SPEC_FULL.md §3.1).
type VarAccessType string

const (
	VarRead  VarAccessType = "READ"
	VarWrite VarAccessType = "WRITE"
)

// VarAccessEntry is a single variable access event.
type VarAccessEntry struct {
	Sequence   uint64
	Line       int
	Name       string
	AccessType VarAccessType
	Value      Value
	OldValue   Value
}

// VarStats aggregates accesses to a single variable across a run.
type VarStats struct {
	Name         string
	ReadCount    uint64
	WriteCount   uint64
	FirstRead    uint64
	FirstWrite   uint64
	LastRead     uint64
	LastWrite    uint64
	LastValue    Value
	UniqueValues uint64
	valuesSeen   map[Value]bool
}

// NewVarStats creates a fresh statistics tracker for one variable name.
func NewVarStats(name string) *VarStats {
	return &VarStats{Name: name, valuesSeen: make(map[Value]bool)}
}

// RecordRead updates read statistics.
func (s *VarStats) RecordRead(sequence uint64, value Value) {
	s.ReadCount++
	if s.FirstRead == 0 {
		s.FirstRead = sequence
	}
	s.LastRead = sequence
	s.LastValue = value
}

// RecordWrite updates write statistics.
func (s *VarStats) RecordWrite(sequence uint64, value Value) {
	s.WriteCount++
	if s.FirstWrite == 0 {
		s.FirstWrite = sequence
	}
	s.LastWrite = sequence
	s.LastValue = value
	if !s.valuesSeen[value] {
		s.valuesSeen[value] = true
		s.UniqueValues++
	}
}

// VarTrace tracks per-variable read/write patterns across a run; main
// enables it for -var-trace or the config's var-trace switch. Grounded on the teacher's RegisterTrace, generalising CPU register
// tracking to BASIC variable tracking.
type VarTrace struct {
	Enabled bool
	Writer  io.Writer

	entries    []VarAccessEntry
	maxEntries int
	stats      map[string]*VarStats

	totalReads  uint64
	totalWrites uint64
}

// NewVarTrace creates a variable access tracker writing reports to writer.
func NewVarTrace(writer io.Writer) *VarTrace {
	return &VarTrace{
		Enabled:    true,
		Writer:     writer,
		entries:    make([]VarAccessEntry, 0, 1000),
		maxEntries: 100000,
		stats:      make(map[string]*VarStats),
	}
}

// Start resets the tracker.
func (v *VarTrace) Start() {
	v.entries = v.entries[:0]
	v.stats = make(map[string]*VarStats)
	v.totalReads = 0
	v.totalWrites = 0
}

// RecordRead logs a variable read at the given source line.
func (v *VarTrace) RecordRead(sequence uint64, line int, name string, value Value) {
	if !v.Enabled {
		return
	}
	v.getOrCreate(name).RecordRead(sequence, value)
	v.totalReads++
	if v.maxEntries > 0 && len(v.entries) >= v.maxEntries {
		return
	}
	v.entries = append(v.entries, VarAccessEntry{
		Sequence: sequence, Line: line, Name: name, AccessType: VarRead, Value: value,
	})
}

// RecordWrite logs a variable write at the given source line.
func (v *VarTrace) RecordWrite(sequence uint64, line int, name string, oldValue, newValue Value) {
	if !v.Enabled {
		return
	}
	v.getOrCreate(name).RecordWrite(sequence, newValue)
	v.totalWrites++
	if v.maxEntries > 0 && len(v.entries) >= v.maxEntries {
		return
	}
	v.entries = append(v.entries, VarAccessEntry{
		Sequence: sequence, Line: line, Name: name, AccessType: VarWrite, Value: newValue, OldValue: oldValue,
	})
}

func (v *VarTrace) getOrCreate(name string) *VarStats {
	if s, ok := v.stats[name]; ok {
		return s
	}
	s := NewVarStats(name)
	v.stats[name] = s
	return s
}

// GetStats returns statistics for one variable, or nil if never accessed.
func (v *VarTrace) GetStats(name string) *VarStats { return v.stats[name] }

// GetAllStats returns every tracked variable's statistics, sorted by name.
func (v *VarTrace) GetAllStats() []*VarStats {
	out := make([]*VarStats, 0, len(v.stats))
	for _, s := range v.stats {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetHotVars returns the most frequently accessed variables.
func (v *VarTrace) GetHotVars(limit int) []*VarStats {
	stats := v.GetAllStats()
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].ReadCount+stats[i].WriteCount > stats[j].ReadCount+stats[j].WriteCount
	})
	if limit > 0 && limit < len(stats) {
		return stats[:limit]
	}
	return stats
}

// DetectReadBeforeWrite returns variable names that were read before ever
// being written, a common source of a silently-zero BASIC bug.
func (v *VarTrace) DetectReadBeforeWrite() []string {
	var out []string
	for _, s := range v.stats {
		if s.FirstRead > 0 && (s.FirstWrite == 0 || s.FirstRead < s.FirstWrite) {
			out = append(out, s.Name)
		}
	}
	sort.Strings(out)
	return out
}

// GetEntries returns every recorded access.
func (v *VarTrace) GetEntries() []VarAccessEntry { return v.entries }

// Flush writes a human-readable access report to Writer.
func (v *VarTrace) Flush() error {
	if v.Writer == nil {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("Variable Access Pattern Analysis\n")
	sb.WriteString("=================================\n\n")
	fmt.Fprintf(&sb, "Total Reads:  %d\n", v.totalReads)
	fmt.Fprintf(&sb, "Total Writes: %d\n", v.totalWrites)
	fmt.Fprintf(&sb, "Variables Tracked: %d\n\n", len(v.stats))

	sb.WriteString("Hot Variables (by total accesses):\n")
	for i, s := range v.GetHotVars(10) {
		fmt.Fprintf(&sb, "%2d. %-8s: %6d accesses (R:%6d W:%6d) [%d unique values]\n",
			i+1, s.Name, s.ReadCount+s.WriteCount, s.ReadCount, s.WriteCount, s.UniqueValues)
	}
	sb.WriteString("\n")

	if rbw := v.DetectReadBeforeWrite(); len(rbw) > 0 {
		sb.WriteString("Read Before Write:\n")
		for _, name := range rbw {
			s := v.stats[name]
			fmt.Fprintf(&sb, "  %s: first read at #%d\n", name, s.FirstRead)
		}
		sb.WriteString("\n")
	}

	_, err := v.Writer.Write([]byte(sb.String()))
	return err
}

// ExportJSON exports the trace summary as JSON.
func (v *VarTrace) ExportJSON(w io.Writer) error {
	statsMap := make(map[string]interface{})
	for name, s := range v.stats {
		statsMap[name] = map[string]interface{}{
			"read_count":    s.ReadCount,
			"write_count":   s.WriteCount,
			"first_read":    s.FirstRead,
			"first_write":   s.FirstWrite,
			"unique_values": s.UniqueValues,
		}
	}
	data := map[string]interface{}{
		"total_reads":       v.totalReads,
		"total_writes":      v.totalWrites,
		"total_entries":     len(v.entries),
		"variables_tracked": len(v.stats),
		"variable_stats":    statsMap,
		"read_before_write": v.DetectReadBeforeWrite(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// String returns a short one-line-per-section summary.
func (v *VarTrace) String() string {
	var sb strings.Builder
	sb.WriteString("Variable Access Summary\n")
	fmt.Fprintf(&sb, "Reads: %d Writes: %d Tracked: %d\n", v.totalReads, v.totalWrites, len(v.stats))
	return sb.String()
}
