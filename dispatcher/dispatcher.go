// Package dispatcher implements the statement dispatcher ("NEWSTT"): the
// interpreter's main loop, text pointer, and every statement handler. It
// is grounded on the teacher's vm.VM.Step/Run fetch-decode-execute loop
// (vm/executor.go) — read one unit at a time, dispatch on its kind, record
// diagnostics, advance — generalized from ARM instruction words to BASIC
// statement tokens, and on vm/branch.go's control-flow handlers, which map
// directly onto GOTO/GOSUB/ON/FOR/NEXT here.
package dispatcher

import (
	"fmt"

	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/eval"
	"github.com/lookbusy1344/basic6502/program"
	"github.com/lookbusy1344/basic6502/token"
	"github.com/lookbusy1344/basic6502/vm"
)

// Mode distinguishes direct (immediate command line) execution from
// running a stored program, per spec §4.3.
type Mode int

const (
	ModeDirect Mode = iota
	ModeProgram
)

// StepResult reports what the dispatcher needs before it can continue,
// the shape spec §4.3's design note asks for so package netrepl can drive
// execution across WebSocket round-trips without blocking a goroutine on
// console I/O.
type StepResult int

const (
	// Running means Step made progress and is ready to be called again
	// immediately.
	Running StepResult = iota
	// NeedsInput means an INPUT statement is waiting for a line from the
	// console; call ProvideInput then Step again.
	NeedsInput
	// NeedsChar means a GET statement is waiting for a single keypress;
	// call ProvideChar then Step again.
	NeedsChar
	// Done means execution returned to the READY prompt (direct mode,
	// end of input) or the program halted (END/STOP/fell off the end).
	Done
)

// userFunc is one DEF FN definition: its parameter and the token bytes of
// its body expression, snapshotted at definition time so later program
// edits cannot retroactively change an already-defined function's meaning.
type userFunc struct {
	param    string
	isString bool
	body     []byte
}

// Dispatcher holds the interpreter's running state: the machine it drives,
// the console it talks to, the current text pointer, and the DEF FN table.
// It is the BASIC-domain analogue of the teacher's VM: the thing Step/Run
// advance one unit at a time.
type Dispatcher struct {
	M       *vm.Machine
	Console Console

	// SysHook and UsrHook are the two optional host callbacks spec §6
	// names; nil means SYS is a no-op and USR returns its argument.
	SysHook func(addr uint16) error
	UsrHook func(x float64) (float64, error)

	mode Mode
	pos  vm.Position
	line []byte // cached token bytes (with trailing End) for pos.Addr

	fns map[string]*userFunc

	hasStop bool
	stopPos vm.Position

	// dataInArgs records whether the DATA cursor is currently positioned
	// inside a DATA statement's argument list (after a comma) rather than
	// needing to search forward for the next DATA token; see nextDataItem.
	dataInArgs bool

	pendingInput     *pendingInput
	pendingChar      bool
	pendingGetTarget *eval.LValue
	pendingLine      vm.Position // where to resume once pendingChar/pendingInput resolves

	// LoadHook and SaveHook back LOAD/SAVE; nil means no storage device is
	// wired and both statements raise DV (DEVICE NOT PRESENT).
	LoadHook func(name string) ([]LoadedLine, error)
	SaveHook func(name string, lines []program.LineRef, store *program.Store) error

	// MaxStatements is the host-configured statement budget per RUN,
	// config's `[execution] max_statements`; 0 means unbounded. Exceeding
	// it raises BR (BREAK) rather than letting a runaway program spin
	// forever, the same safety valve the teacher's MaxCycles gives the
	// ARM VM.
	MaxStatements uint64
	stmtCount     uint64

	finished bool
}

// LoadedLine is one program line as a LOAD source hands it back: a line
// number and its already-crunched token bytes.
type LoadedLine struct {
	Number int
	Tokens []byte
}

// pendingInput is the state an in-flight INPUT statement keeps across a
// NeedsInput pause: the prompt already shown and the targets still waiting
// for a value.
type pendingInput struct {
	prompt  string
	targets []eval.LValue
}

// New creates a dispatcher over a fresh machine, in direct mode with an
// empty immediate-command buffer.
func New(console Console) *Dispatcher {
	d := &Dispatcher{
		M:       vm.NewMachine(1),
		Console: console,
		fns:     make(map[string]*userFunc),
	}
	d.loadDirect(nil)
	return d
}

// Machine exposes the underlying machine for callers (package netrepl,
// the repl's debug commands) that need to inspect variables or memory
// directly rather than through a statement.
func (d *Dispatcher) Machine() *vm.Machine { return d.M }

// Clear performs the CLEAR statement's full reset (variables, arrays,
// string heap, control stack, DATA cursor) plus the dispatcher-local state
// a machine-level reset alone cannot see: any outstanding STOP/CONT
// position and the DATA-cursor search-state flag. Package repl calls this
// directly, not just the CLEAR statement, since spec §4.2 treats any
// program edit in immediate mode as implicitly executing CLEAR.
func (d *Dispatcher) Clear() {
	d.M.Clear()
	d.hasStop = false
	d.dataInArgs = false
}

// LoadDirect installs tokens as the immediate-mode line without running it,
// for a caller that drives Step itself instead of using RunDirect — package
// netrepl, whose session loop must return control after NeedsInput/NeedsChar
// rather than block inside Run waiting on a console read.
func (d *Dispatcher) LoadDirect(tokens []byte) {
	d.loadDirect(tokens)
}

// ReportError runs the same unified error handling Run uses when Step
// returns an error: print it, unwind the control and temp-string stacks,
// and return to direct mode. Exported for package netrepl's own Step-driving
// loop, which cannot call Run itself without risking a blocking console
// read on NeedsInput/NeedsChar.
func (d *Dispatcher) ReportError(err error) {
	d.reportError(err)
}

// loadDirect installs tokens as the immediate-mode line and positions the
// text pointer at its first byte.
func (d *Dispatcher) loadDirect(tokens []byte) {
	d.mode = ModeDirect
	d.pos = vm.Position{Addr: 0, Offset: 0}
	d.line = append(append([]byte{}, tokens...), token.End)
	d.finished = false
}

// jumpTo moves the text pointer to an arbitrary (line, offset), reloading
// the cached token slice if the target line differs from the one already
// loaded. addr == 0 always means the direct-mode buffer.
func (d *Dispatcher) jumpTo(pos vm.Position) {
	if pos.Addr == 0 {
		d.pos = pos
		return
	}
	if pos.Addr != d.pos.Addr || d.mode != ModeProgram {
		d.mode = ModeProgram
		toks := d.M.Program.Tokens(pos.Addr)
		d.line = append(append([]byte{}, toks...), token.End)
	}
	d.pos = pos
}

// currentLineNumber reports the program line number execution is
// currently on, or 0 in direct mode, for error annotation.
func (d *Dispatcher) currentLineNumber() int {
	if d.mode != ModeProgram {
		return 0
	}
	return d.M.Program.LineNumber(d.pos.Addr)
}

// RunDirect tokenizes and runs one immediate-mode line to completion
// (blocking on console I/O), the entry point package repl's shell uses for
// every line that is not a program edit. It does not itself implement the
// "line beginning with a decimal integer edits the program" rule — that is
// the shell's job, per spec §6's CLI surface note.
func (d *Dispatcher) RunDirect(tokens []byte) error {
	d.loadDirect(tokens)
	return d.Run()
}

// RunProgram switches to program mode starting at the program's first
// line (RUN with no argument) and runs to completion.
func (d *Dispatcher) RunProgram() error {
	if err := d.execRun(""); err != nil {
		return err
	}
	return d.Run()
}

// Run drives Step in a blocking loop, resolving NeedsInput/NeedsChar by
// calling straight through to the console, until the dispatcher reaches
// Done. This is what a synchronous CLI uses; package netrepl instead calls
// Step directly and returns NeedsInput/NeedsChar to its WebSocket client.
func (d *Dispatcher) Run() error {
	for {
		res, err := d.Step()
		if err != nil {
			d.reportError(err)
			return nil
		}
		switch res {
		case Done:
			return nil
		case NeedsInput:
			line, err := d.Console.ReadLine("") // execInput already wrote the prompt
			if err != nil {
				return err
			}
			if err := d.ProvideInput(line); err != nil {
				d.reportError(err)
				return nil
			}
		case NeedsChar:
			c, ok := d.Console.PollChar()
			if !ok {
				// Spec §5's explicit allowance: a blocking-stdin console
				// degrades GET to waiting for a whole line and taking its
				// first byte, rather than busy-polling for a keypress that
				// will never arrive asynchronously.
				line, err := d.Console.ReadLine("")
				if err != nil {
					return err
				}
				if len(line) > 0 {
					c, ok = line[0], true
				}
			}
			d.ProvideChar(c, ok)
		}
	}
}

// reportError implements spec §7's unified error handling: print the code
// and message (annotated with the line if one is known), discard the
// control stack and temporary-string stack, and return to direct mode.
// Variables and the program itself are left untouched.
func (d *Dispatcher) reportError(err error) {
	be, ok := basic.IsBasicError(err)
	if !ok {
		d.Console.Write("?" + err.Error() + "\n")
	} else {
		if d.mode == ModeProgram {
			be = be.WithLine(d.currentLineNumber())
		}
		d.Console.Write(be.Error() + "\n")
	}
	d.M.Control.Reset()
	d.M.Strings.ResetTemp()
	d.mode = ModeDirect
	d.finished = true
}

// Step executes the next unit of work per spec §4.3's main loop: read the
// next byte at the text pointer, dispatch on what kind of byte it is, and
// return. It never blocks; NeedsInput/NeedsChar instead return control so
// the caller can supply the awaited data via ProvideInput/ProvideChar.
func (d *Dispatcher) Step() (StepResult, error) {
	if d.finished {
		return Done, nil
	}
	if d.pendingInput != nil {
		return NeedsInput, nil
	}
	if d.pendingChar {
		return NeedsChar, nil
	}

	d.skipSpaces()
	b := d.current()

	switch {
	case b == token.End:
		return d.advanceLine()
	case b == ':':
		d.pos.Offset++
		return Running, nil
	case token.IsStatement(b):
		d.M.Strings.ResetTemp()
		d.pos.Offset++
		return d.dispatch(b)
	default:
		d.M.Strings.ResetTemp()
		return d.execLet()
	}
}

// advanceLine implements rule 2 of spec §4.3's main loop: on end-of-line,
// move to the next program line, or in direct mode signal Done so the host
// can return to its own prompt. The dispatcher never prints "READY." itself
// — that text (or, for package netrepl, an equivalent client-side state
// change) is the host's call to make once Step reports Done, per spec §6's
// console abstraction.
func (d *Dispatcher) advanceLine() (StepResult, error) {
	if d.mode == ModeDirect {
		d.finished = true
		return Done, nil
	}
	next, ok := d.M.Program.NextLine(d.pos.Addr)
	if !ok {
		d.finished = true
		return Done, nil
	}
	d.jumpTo(vm.Position{Addr: next, Offset: program.LineHeaderSize})
	lineNo := d.M.Program.LineNumber(next)
	d.M.LineCoverage.RecordExecution(lineNo, d.M.NextSequence())
	if d.M.LineTrace.Enabled {
		d.Console.Write(fmt.Sprintf("[%d]", lineNo))
		d.M.LineTrace.RecordLine(d.M.NextSequence(), lineNo, "")
	}
	return Running, nil
}

func (d *Dispatcher) current() byte {
	if d.pos.Offset >= len(d.line) {
		return token.End
	}
	return d.line[d.pos.Offset]
}

func (d *Dispatcher) skipSpaces() {
	for d.pos.Offset < len(d.line) && d.line[d.pos.Offset] == ' ' {
		d.pos.Offset++
	}
}

// remaining returns the token bytes from the text pointer to end of line,
// the slice every expression/lvalue parse works from.
func (d *Dispatcher) remaining() []byte {
	return d.line[d.pos.Offset:]
}

// evalExpr evaluates one expression starting at the text pointer and
// advances the text pointer past it.
func (d *Dispatcher) evalExpr() (eval.Value, error) {
	v, consumed, err := eval.Eval(d.remaining(), d.adapter())
	if err != nil {
		return eval.Value{}, err
	}
	d.pos.Offset += consumed
	if v.IsString {
		if err := d.M.Strings.PushTemp(v.Str); err != nil {
			return eval.Value{}, err
		}
	}
	return v, nil
}

// parseLValue parses an assignment target at the text pointer and advances
// past it.
func (d *Dispatcher) parseLValue() (eval.LValue, error) {
	lv, consumed, err := eval.ParseLValue(d.remaining(), d.adapter())
	if err != nil {
		return eval.LValue{}, err
	}
	d.pos.Offset += consumed
	return lv, nil
}

// expectByte consumes tok.Byte b, skipping leading spaces, or raises SN.
func (d *Dispatcher) expectByte(b byte) error {
	d.skipSpaces()
	if d.current() != b {
		return basic.New(basic.ErrSyntax, "")
	}
	d.pos.Offset++
	return nil
}

// atStatementEnd reports whether the text pointer is at a statement boundary
// (colon or end-of-line), skipping spaces first.
func (d *Dispatcher) atStatementEnd() bool {
	d.skipSpaces()
	c := d.current()
	return c == token.End || c == ':'
}

// assign stores v into the variable or array element lv names, per LET's
// type-coercion rule: string into string, number into number, else TM.
func (d *Dispatcher) assign(lv eval.LValue, v eval.Value) error {
	if lv.IsString != v.IsString {
		return basic.New(basic.ErrTypeMismatch, "")
	}
	if lv.Indices == nil {
		addr, err := d.M.Vars.Lookup(lv.Name, lv.IsString)
		if err != nil {
			return err
		}
		old := d.M.Vars.Get(addr)
		if err := d.storeVar(addr, lv.IsString, v); err != nil {
			return err
		}
		d.M.VarTrace.RecordWrite(d.M.NextSequence(), d.currentLineNumber(), lv.Name, old, d.M.Vars.Get(addr))
		return nil
	}
	header, err := d.M.Arrays.Ensure(lv.Name, lv.IsString, len(lv.Indices))
	if err != nil {
		return err
	}
	elemAddr, err := d.M.Arrays.ElementAddr(header, lv.Indices)
	if err != nil {
		return err
	}
	return d.storeArrayElem(elemAddr, lv.IsString, v)
}

func (d *Dispatcher) storeVar(addr uint16, isString bool, v eval.Value) error {
	if isString {
		length, ptr, err := d.M.Strings.Intern(v.Str)
		if err != nil {
			return err
		}
		d.M.Vars.SetStringDescriptor(addr, length, ptr)
		return nil
	}
	return d.M.Vars.SetNumber(addr, v.Num)
}

func (d *Dispatcher) storeArrayElem(addr uint16, isString bool, v eval.Value) error {
	if isString {
		length, ptr, err := d.M.Strings.Intern(v.Str)
		if err != nil {
			return err
		}
		d.M.Arrays.SetStringDescriptor(addr, length, ptr)
		return nil
	}
	return d.M.Arrays.SetNumber(addr, v.Num)
}

// lineNumberFromValue implements spec §4.3's "numeric->line-number
// coercion rule": truncate toward zero, reject negatives and values
// >= 64000.
func lineNumberFromValue(v eval.Value) (int, error) {
	if v.IsString {
		return 0, basic.New(basic.ErrTypeMismatch, "")
	}
	n, err := vm.SafeFloatToLineNumber(v.Num, program.MaxLineNumber)
	if err != nil {
		return 0, basic.New(basic.ErrIllegalQuantity, "")
	}
	return n, nil
}
