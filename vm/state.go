package vm

import (
	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/mbf"
	"github.com/lookbusy1344/basic6502/program"
)

// FrameKind distinguishes the two control-structures that share the
// dispatcher's one control stack, per spec §3's "FOR/GOSUB control-flow
// stack".
type FrameKind string

const (
	FrameFor   FrameKind = "FOR"
	FrameGosub FrameKind = "GOSUB"
)

// Position is a text-pointer value: the program-store header address of a
// line (or 0 for the direct-mode scratch buffer) together with a byte
// offset into that line's token stream. Package dispatcher's NEWSTT loop
// and the FOR/GOSUB frames below both address source position this way.
type Position struct {
	Addr   uint16
	Offset int
}

// Frame is one entry on the control stack: either a FOR loop's saved loop
// variable, limit, step and re-entry point, or a GOSUB's saved return
// point. Real Microsoft BASIC keeps both kinds on a single stack so that
// NEXT can discard intervening, unmatched FOR frames when its variable
// does not match the top of stack, and RETURN can similarly require a
// GOSUB frame be on top.
type Frame struct {
	Kind FrameKind

	// FOR fields.
	VarAddr    uint16
	VarName    string
	Limit      float64
	Step       float64
	LoopBodyAt Position // text position of the statement right after the FOR

	// GOSUB field.
	ReturnAt Position // text position right after the GOSUB statement
}

// maxControlStackDepth bounds the FOR/GOSUB stack, a safety valve spec §5
// does not size explicitly; an unbounded recursive GOSUB would otherwise
// grow without limit and never surface as a BASIC-level error.
const maxControlStackDepth = 4096

// ControlStack is the FOR/GOSUB stack (spec §3/§4.3).
type ControlStack struct {
	frames []Frame
	trace  *FrameTrace
}

// NewControlStack creates an empty control stack. trace may be nil.
func NewControlStack(trace *FrameTrace) *ControlStack {
	return &ControlStack{trace: trace}
}

// Depth returns the number of frames currently on the stack.
func (c *ControlStack) Depth() int { return len(c.frames) }

// PushFor pushes a FOR frame, first discarding any existing FOR frame for
// the same loop variable together with every frame above it (re-entering
// an active FOR with the same variable reuses its slot rather than
// nesting), matching classic Microsoft BASIC's FOR semantics.
func (c *ControlStack) PushFor(seq uint64, line int, f Frame) error {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Kind == FrameFor && c.frames[i].VarName == f.VarName {
			c.frames = c.frames[:i]
			break
		}
	}
	if len(c.frames) >= maxControlStackDepth {
		return basic.New(basic.ErrOutOfMemory, "")
	}
	old := len(c.frames)
	c.frames = append(c.frames, f)
	if c.trace != nil {
		c.trace.RecordPush(seq, line, FrameFor, f.VarName, old, len(c.frames))
	}
	return nil
}

// PushGosub pushes a GOSUB return frame.
func (c *ControlStack) PushGosub(seq uint64, line int, returnAt Position) error {
	if len(c.frames) >= maxControlStackDepth {
		return basic.New(basic.ErrOutOfMemory, "")
	}
	old := len(c.frames)
	c.frames = append(c.frames, Frame{Kind: FrameGosub, ReturnAt: returnAt})
	if c.trace != nil {
		c.trace.RecordPush(seq, line, FrameGosub, "", old, len(c.frames))
	}
	return nil
}

// FindFor searches downward from the top of stack for a FOR frame whose
// loop variable matches varName (or, if varName is empty, the topmost FOR
// frame of any name), discarding every frame above and including it, per
// spec's resolved Open Question: "NEXT V discards intervening frames".
// Returns NF (NEXT WITHOUT FOR) if no such frame exists.
func (c *ControlStack) FindFor(seq uint64, line int, varName string) (Frame, error) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Kind != FrameFor {
			continue
		}
		if varName != "" && c.frames[i].VarName != varName {
			continue
		}
		f := c.frames[i]
		old := len(c.frames)
		c.frames = c.frames[:i]
		if c.trace != nil {
			c.trace.RecordPop(seq, line, FrameFor, old, len(c.frames), false)
		}
		return f, nil
	}
	if c.trace != nil {
		c.trace.RecordPop(seq, line, FrameFor, len(c.frames), len(c.frames), true)
	}
	return Frame{}, basic.New(basic.ErrNextWithoutFor, "")
}

// PushForKeep re-pushes a FOR frame that is continuing to loop (NEXT found
// the counter still within range), without consulting the depth cap a
// second time.
func (c *ControlStack) PushForKeep(f Frame) { c.frames = append(c.frames, f) }

// PopGosub searches downward from the top of stack for the nearest GOSUB
// frame, discarding every FOR frame above it on the way down — a RETURN
// leaves any loop it was called from unfinished, the same way NEXT's
// FindFor discards intervening frames on the way to the FOR it wants.
// Returns RG (RETURN WITHOUT GOSUB) if no GOSUB frame exists at all.
func (c *ControlStack) PopGosub(seq uint64, line int) (Frame, error) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Kind != FrameGosub {
			continue
		}
		f := c.frames[i]
		old := len(c.frames)
		c.frames = c.frames[:i]
		if c.trace != nil {
			c.trace.RecordPop(seq, line, FrameGosub, old, len(c.frames), false)
		}
		return f, nil
	}
	if c.trace != nil {
		c.trace.RecordPop(seq, line, FrameGosub, len(c.frames), len(c.frames), true)
	}
	return Frame{}, basic.New(basic.ErrReturnWithoutGosub, "")
}

// Reset empties the control stack, used by CLEAR/NEW/RUN and by the
// top-level error handler (spec §7: "control-flow stack frames ... are
// discarded").
func (c *ControlStack) Reset() { c.frames = c.frames[:0] }

// DataCursor tracks READ's position in the program's DATA statements
// (spec §4.3): a (line address, byte offset within that line's tokens)
// pair, advanced by READ and reset to the first DATA statement by
// RESTORE.
type DataCursor struct {
	store   *program.Store
	addr    uint16
	offset  int
	atStart bool
}

// NewDataCursor creates a cursor positioned at the first line in store (or
// exhausted, if the program is empty); READ scans forward from there for
// DATA.
func NewDataCursor(store *program.Store) *DataCursor {
	d := &DataCursor{store: store}
	d.RestoreToStart()
	return d
}

// RestoreToStart repositions the cursor at the first line in the program,
// per RESTORE with no argument.
func (d *DataCursor) RestoreToStart() {
	addr, ok := d.store.FirstLine()
	if !ok {
		d.atStart = false
		return
	}
	d.addr = addr
	d.offset = 0
	d.atStart = true
}

// RestoreToLine repositions the cursor at the first line whose number is
// >= lineNo, per RESTORE n.
func (d *DataCursor) RestoreToLine(lineNo int) error {
	addr, ok := d.store.FindFirstAtOrAfter(lineNo)
	if !ok {
		return basic.New(basic.ErrUndefinedLine, "")
	}
	d.addr = addr
	d.offset = 0
	d.atStart = true
	return nil
}

// Exhausted reports whether the cursor has run off the end of the
// program without finding another DATA statement.
func (d *DataCursor) Exhausted() bool { return !d.atStart }

// Addr and Offset expose the cursor's raw position so the dispatcher's
// DATA-token scanner (implemented alongside the statement dispatcher,
// since it must share the tokenizer's lexical rules for comma/colon
// separators) can resume scanning exactly where the last READ left off.
func (d *DataCursor) Addr() uint16 { return d.addr }
func (d *DataCursor) Offset() int  { return d.offset }

// Advance moves the cursor to (addr, offset), called by the dispatcher
// after it has scanned one DATA item, possibly crossing into the next
// program line.
func (d *DataCursor) Advance(addr uint16, offset int) {
	d.addr = addr
	d.offset = offset
	d.atStart = true
}

// MarkExhausted records that no further DATA item exists.
func (d *DataCursor) MarkExhausted() { d.atStart = false }

// Machine bundles every piece of interpreter state the dispatcher and
// evaluator share: the address space, program store, value subsystem, the
// FOR/GOSUB stack, the DATA cursor, and the random-number generator. It is
// the BASIC-domain analogue of the teacher's VM struct: one owned, wired
// collection of subsystems rather than a god object with embedded logic.
type Machine struct {
	Memory  *Memory
	Program *program.Store
	Vars    *Vars
	Arrays  *Arrays
	Strings *Strings
	Control *ControlStack
	Data    *DataCursor
	Random  *mbf.Random

	Stats        *Stats
	LineTrace    *LineTrace
	VarTrace     *VarTrace
	FrameTrace   *FrameTrace
	LineCoverage *LineCoverage
	Sequence     uint64
	CurrentLine  int
}

// NewMachine wires together a fresh 64 KiB address space and every
// subsystem above it, with program text starting right after the
// canonical pointer block.
func NewMachine(seed int64) *Machine {
	mem := NewMemory()
	store := program.New(mem, PointerBlockEnd, MemorySize-1)
	frameTrace := NewFrameTrace(nil)

	m := &Machine{
		Memory:       mem,
		Program:      store,
		Vars:         NewVars(mem),
		Arrays:       NewArrays(mem),
		Control:      NewControlStack(frameTrace),
		Data:         NewDataCursor(store),
		Random:       mbf.NewRandom(seed),
		Stats:        NewStats(),
		LineTrace:    NewLineTrace(nil),
		VarTrace:     NewVarTrace(nil),
		FrameTrace:   frameTrace,
		LineCoverage: NewLineCoverage(nil),
	}
	m.Strings = NewStrings(mem, m.Vars, m.Arrays)
	return m
}

// Clear implements CLEAR: erases all variables, arrays, and strings,
// empties the control stack, and resets FRETOP, while leaving the
// program text untouched. Per spec §4.3.
func (m *Machine) Clear() {
	end := m.Program.End()
	m.Memory.SetPointer(AddrVARTAB, end)
	m.Memory.SetPointer(AddrARYTAB, end)
	m.Memory.SetPointer(AddrSTREND, end)
	m.Memory.SetPointer(AddrFRETOP, MemorySize-1)
	m.Control.Reset()
	m.Strings.ResetTemp()
	m.Data.RestoreToStart()
}

// New implements NEW: erases the program as well as everything Clear
// erases, returning the machine to its just-started state.
func (m *Machine) New() {
	m.Program.Reset()
	m.Clear()
}

// NextSequence returns a monotonically increasing counter used to
// timestamp trace and statistics entries.
func (m *Machine) NextSequence() uint64 {
	m.Sequence++
	return m.Sequence
}
