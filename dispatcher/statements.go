package dispatcher

import (
	"fmt"
	"strings"

	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/eval"
	"github.com/lookbusy1344/basic6502/program"
	"github.com/lookbusy1344/basic6502/token"
	"github.com/lookbusy1344/basic6502/tools"
	"github.com/lookbusy1344/basic6502/vm"
)

// handler is one statement's implementation. It is called with the text
// pointer already past the statement's own token byte, and is responsible
// for consuming everything up to (but not past) the next ':' or
// end-of-line.
type handler func(d *Dispatcher) (StepResult, error)

// dispatchTable maps a statement token to its handler, the BASIC-domain
// analogue of the teacher's opcode-to-executor table.
var dispatchTable map[token.Byte]handler

func init() {
	dispatchTable = map[token.Byte]handler{
		token.LET:     (*Dispatcher).execLet,
		token.PRINT:   (*Dispatcher).execPrint,
		token.INPUT:   (*Dispatcher).execInput,
		token.GOTO:    (*Dispatcher).execGoto,
		token.GOSUB:   (*Dispatcher).execGosub,
		token.RETURN:  (*Dispatcher).execReturn,
		token.IF:      (*Dispatcher).execIf,
		token.ON:      (*Dispatcher).execOn,
		token.FOR:     (*Dispatcher).execFor,
		token.NEXT:    (*Dispatcher).execNext,
		token.DIM:     (*Dispatcher).execDim,
		token.DATA:    (*Dispatcher).execData,
		token.READ:    (*Dispatcher).execRead,
		token.RESTORE: (*Dispatcher).execRestore,
		token.END:     (*Dispatcher).execEnd,
		token.STOP:    (*Dispatcher).execStop,
		token.REM:     (*Dispatcher).execRem,
		token.CLEAR:   (*Dispatcher).execClear,
		token.NEW:     (*Dispatcher).execNewStmt,
		token.RUN:     (*Dispatcher).execRunStmt,
		token.LIST:    (*Dispatcher).execList,
		token.DEF:     (*Dispatcher).execDef,
		token.POKE:    (*Dispatcher).execPoke,
		token.GET:     (*Dispatcher).execGet,
		token.TRON:    (*Dispatcher).execTron,
		token.TROFF:   (*Dispatcher).execTroff,
		token.CONT:    (*Dispatcher).execCont,
		token.SYS:     (*Dispatcher).execSys,
		token.LOAD:    (*Dispatcher).execLoadStmt,
		token.SAVE:    (*Dispatcher).execSaveStmt,
	}
}

func (d *Dispatcher) dispatch(tok token.Byte) (StepResult, error) {
	if d.MaxStatements > 0 {
		d.stmtCount++
		if d.stmtCount > d.MaxStatements {
			return Running, basic.New(basic.ErrBreak, "")
		}
	}
	if kw, ok := token.Spelling(tok); ok {
		d.M.Stats.RecordStatement(kw, d.currentLineNumber())
	}
	h, ok := dispatchTable[tok]
	if !ok {
		return Running, basic.New(basic.ErrSyntax, "")
	}
	return h(d)
}

// execLet is the shared implicit-LET / explicit-LET body: LET V = expr and
// a bare "V = expr" (no LET keyword) dispatch here identically.
func (d *Dispatcher) execLet() (StepResult, error) {
	lv, err := d.parseLValue()
	if err != nil {
		return Running, err
	}
	if err := d.expectByte(token.OpEQ); err != nil {
		return Running, err
	}
	v, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	if err := d.assign(lv, v); err != nil {
		return Running, err
	}
	return Running, nil
}

// execRem consumes the rest of the physical line; CRUNCH already folded
// everything after REM into raw bytes with no embedded End, so skipping to
// the cached line's length is sufficient.
func (d *Dispatcher) execRem() (StepResult, error) {
	d.pos.Offset = len(d.line) - 1
	return Running, nil
}

func (d *Dispatcher) execEnd() (StepResult, error) {
	d.finished = true
	return Done, nil
}

// execStop implements STOP: like END, but remembers where it left off so
// CONT can resume, per spec §4.3.
func (d *Dispatcher) execStop() (StepResult, error) {
	d.hasStop = true
	d.stopPos = d.pos
	d.Console.Write(fmt.Sprintf("BREAK IN %d\n", d.currentLineNumber()))
	d.finished = true
	return Done, nil
}

// execCont implements CONT: resumes at the statement following the last
// STOP, or raises CN if the program was edited or never stopped.
func (d *Dispatcher) execCont() (StepResult, error) {
	if !d.hasStop {
		return Running, basic.New(basic.ErrCantContinue, "")
	}
	d.jumpTo(d.stopPos)
	d.hasStop = false
	d.finished = false
	return Running, nil
}

func (d *Dispatcher) execGoto() (StepResult, error) {
	v, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	lineNo, err := lineNumberFromValue(v)
	if err != nil {
		return Running, err
	}
	addr, ok := d.M.Program.FindLine(lineNo)
	if !ok {
		return Running, basic.New(basic.ErrUndefinedLine, "")
	}
	d.jumpTo(vm.Position{Addr: addr, Offset: program.LineHeaderSize})
	return Running, nil
}

func (d *Dispatcher) execGosub() (StepResult, error) {
	v, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	lineNo, err := lineNumberFromValue(v)
	if err != nil {
		return Running, err
	}
	addr, ok := d.M.Program.FindLine(lineNo)
	if !ok {
		return Running, basic.New(basic.ErrUndefinedLine, "")
	}
	returnAt := d.pos
	if err := d.M.Control.PushGosub(d.M.NextSequence(), d.currentLineNumber(), returnAt); err != nil {
		return Running, err
	}
	d.M.Stats.RecordGosub(lineNo)
	d.jumpTo(vm.Position{Addr: addr, Offset: program.LineHeaderSize})
	return Running, nil
}

func (d *Dispatcher) execReturn() (StepResult, error) {
	f, err := d.M.Control.PopGosub(d.M.NextSequence(), d.currentLineNumber())
	if err != nil {
		return Running, err
	}
	d.jumpTo(f.ReturnAt)
	return Running, nil
}

// execIf implements IF <expr> THEN <target>: a bare line number after THEN
// is a GOTO shorthand, otherwise the remainder of the line is executed as
// one or more colon-separated statements.
func (d *Dispatcher) execIf() (StepResult, error) {
	v, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	if err := d.expectByte(token.THEN); err != nil {
		return Running, err
	}
	if !v.Truth() {
		d.pos.Offset = len(d.line) - 1
		return Running, nil
	}
	d.skipSpaces()
	if isDigitByte(d.current()) {
		return d.gotoLiteralLineNumber()
	}
	return Running, nil
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

// gotoLiteralLineNumber parses a raw decimal line number at the text
// pointer (IF...THEN n, ON...GOTO n, ...) and jumps there.
func (d *Dispatcher) gotoLiteralLineNumber() (StepResult, error) {
	start := d.pos.Offset
	for isDigitByte(d.current()) {
		d.pos.Offset++
	}
	lineNo := 0
	fmt.Sscanf(string(d.line[start:d.pos.Offset]), "%d", &lineNo)
	addr, ok := d.M.Program.FindLine(lineNo)
	if !ok {
		return Running, basic.New(basic.ErrUndefinedLine, "")
	}
	d.jumpTo(vm.Position{Addr: addr, Offset: program.LineHeaderSize})
	return Running, nil
}

// execOn implements ON <expr> GOTO/GOSUB n1,n2,...: the expression
// (truncated, 1-based) selects which line number in the list to jump to;
// out of range falls through to the next statement.
func (d *Dispatcher) execOn() (StepResult, error) {
	v, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	if v.IsString {
		return Running, basic.New(basic.ErrTypeMismatch, "")
	}
	selector, err := vm.SafeFloatToSubscript(v.Num)
	if err != nil {
		return Running, basic.New(basic.ErrIllegalQuantity, "")
	}

	d.skipSpaces()
	isGosub := d.current() == token.GOSUB
	if d.current() != token.GOTO && d.current() != token.GOSUB {
		return Running, basic.New(basic.ErrSyntax, "")
	}
	d.pos.Offset++

	targets, err := d.parseLineNumberList()
	if err != nil {
		return Running, err
	}
	if selector < 1 || selector > len(targets) {
		return Running, nil
	}
	lineNo := targets[selector-1]
	addr, ok := d.M.Program.FindLine(lineNo)
	if !ok {
		return Running, basic.New(basic.ErrUndefinedLine, "")
	}
	if isGosub {
		if err := d.M.Control.PushGosub(d.M.NextSequence(), d.currentLineNumber(), d.pos); err != nil {
			return Running, err
		}
	}
	d.jumpTo(vm.Position{Addr: addr, Offset: program.LineHeaderSize})
	return Running, nil
}

// parseLineNumberList scans a comma-separated list of raw decimal line
// numbers, as ON...GOTO/GOSUB needs.
func (d *Dispatcher) parseLineNumberList() ([]int, error) {
	var out []int
	for {
		d.skipSpaces()
		start := d.pos.Offset
		for isDigitByte(d.current()) {
			d.pos.Offset++
		}
		if d.pos.Offset == start {
			return nil, basic.New(basic.ErrSyntax, "")
		}
		n := 0
		fmt.Sscanf(string(d.line[start:d.pos.Offset]), "%d", &n)
		out = append(out, n)
		d.skipSpaces()
		if d.current() == ',' {
			d.pos.Offset++
			continue
		}
		break
	}
	return out, nil
}

// execFor implements FOR v = start TO limit [STEP step]. It always pushes
// a fresh frame (even when re-entering the same variable, per
// ControlStack.PushFor's replace-on-top rule) pointing at the statement
// right after the FOR, so NEXT can re-enter the loop body.
func (d *Dispatcher) execFor() (StepResult, error) {
	lv, err := d.parseLValue()
	if err != nil {
		return Running, err
	}
	if lv.IsString || lv.Indices != nil {
		return Running, basic.New(basic.ErrSyntax, "")
	}
	if err := d.expectByte(token.OpEQ); err != nil {
		return Running, err
	}
	start, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	if err := d.assign(lv, start); err != nil {
		return Running, err
	}
	if err := d.expectByte(token.TO); err != nil {
		return Running, err
	}
	limit, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	step := 1.0
	d.skipSpaces()
	if d.current() == token.STEP {
		d.pos.Offset++
		sv, err := d.evalExpr()
		if err != nil {
			return Running, err
		}
		step = sv.Num
	}

	varAddr, err := d.M.Vars.Lookup(lv.Name, false)
	if err != nil {
		return Running, err
	}
	frame := vm.Frame{
		Kind:       vm.FrameFor,
		VarAddr:    varAddr,
		VarName:    lv.Name,
		Limit:      limit.Num,
		Step:       step,
		LoopBodyAt: d.pos,
	}
	if err := d.M.Control.PushFor(d.M.NextSequence(), d.currentLineNumber(), frame); err != nil {
		return Running, err
	}
	return Running, nil
}

// execNext implements NEXT [v1, v2, ...]: a bare NEXT closes the topmost
// FOR frame; a name list closes each named loop in turn, matching real
// Microsoft BASIC's multi-variable NEXT shorthand.
func (d *Dispatcher) execNext() (StepResult, error) {
	if d.atStatementEnd() {
		return d.nextOne("")
	}
	for {
		name, consumed, err := d.scanVarName()
		if err != nil {
			return Running, err
		}
		d.pos.Offset += consumed
		res, err := d.nextOne(name)
		if err != nil || res != Running {
			return res, err
		}
		d.skipSpaces()
		if d.current() == ',' {
			d.pos.Offset++
			continue
		}
		break
	}
	return Running, nil
}

// scanVarName reads one bare variable name (no subscript) at the text
// pointer using the evaluator's own lexer, returning its canonical name
// and the number of bytes consumed.
func (d *Dispatcher) scanVarName() (string, int, error) {
	toks := eval.Lex(d.remaining())
	if toks[0].Kind != eval.TKIdent {
		return "", 0, basic.New(basic.ErrSyntax, "")
	}
	return toks[0].Name, toks[1].Pos, nil
}

func (d *Dispatcher) nextOne(name string) (StepResult, error) {
	f, err := d.M.Control.FindFor(d.M.NextSequence(), d.currentLineNumber(), name)
	if err != nil {
		return Running, err
	}
	cur := d.M.Vars.Get(f.VarAddr).Num
	next := cur + f.Step
	if err := d.M.Vars.SetNumber(f.VarAddr, next); err != nil {
		return Running, err
	}
	done := (f.Step >= 0 && next > f.Limit) || (f.Step < 0 && next < f.Limit)
	if done {
		return Running, nil
	}
	d.M.Control.PushForKeep(f)
	d.jumpTo(f.LoopBodyAt)
	return Running, nil
}

func (d *Dispatcher) execDim() (StepResult, error) {
	for {
		d.skipSpaces()
		toks := eval.Lex(d.remaining())
		if toks[0].Kind != eval.TKIdent {
			return Running, basic.New(basic.ErrSyntax, "")
		}
		name := toks[0].Name
		isString := strings.HasSuffix(name, "$")
		d.pos.Offset += toks[1].Pos
		if err := d.expectByte('('); err != nil {
			return Running, err
		}
		var maxIndices []int
		for {
			v, err := d.evalExpr()
			if err != nil {
				return Running, err
			}
			idx, err := vm.SafeFloatToSubscript(v.Num)
			if err != nil {
				return Running, basic.New(basic.ErrBadSubscript, "")
			}
			maxIndices = append(maxIndices, idx)
			d.skipSpaces()
			if d.current() == ',' {
				d.pos.Offset++
				continue
			}
			break
		}
		if err := d.expectByte(')'); err != nil {
			return Running, err
		}
		if _, err := d.M.Arrays.Dim(name, isString, maxIndices); err != nil {
			return Running, err
		}
		d.skipSpaces()
		if d.current() == ',' {
			d.pos.Offset++
			continue
		}
		break
	}
	return Running, nil
}

// execData is a no-op at execution time; DATA's contents are only ever
// consumed by READ scanning the program text directly.
func (d *Dispatcher) execData() (StepResult, error) {
	d.pos.Offset = len(d.line) - 1
	return Running, nil
}

// execRead implements READ v1, v2, ...: it walks the program text from
// the DATA cursor forward, skipping every non-DATA statement, collecting
// comma-separated literals until it has satisfied every target.
func (d *Dispatcher) execRead() (StepResult, error) {
	for {
		lv, err := d.parseLValue()
		if err != nil {
			return Running, err
		}
		raw, err := d.nextDataItem()
		if err != nil {
			return Running, err
		}
		v, err := coerceDataItem(raw, lv.IsString)
		if err != nil {
			return Running, err
		}
		if err := d.assign(lv, v); err != nil {
			return Running, err
		}
		d.skipSpaces()
		if d.current() == ',' {
			d.pos.Offset++
			continue
		}
		break
	}
	return Running, nil
}

// coerceDataItem applies spec's READ coercion: a string target accepts any
// literal verbatim; a numeric target must parse as a number or raises
// TYPE MISMATCH.
func coerceDataItem(raw string, wantString bool) (eval.Value, error) {
	if wantString {
		return eval.StringValue(raw), nil
	}
	var f float64
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%g", &f); err != nil {
		return eval.Value{}, basic.New(basic.ErrTypeMismatch, "")
	}
	return eval.NumberValue(f), nil
}

// nextDataItem advances the shared DATA cursor to the following
// comma-separated literal, skipping over every intervening statement that
// is not itself a DATA statement, and returns its raw (untyped) text. A
// DATA statement's own comma-separated items are scanned directly, without
// re-searching for the DATA token, as long as d.dataInArgs records that the
// cursor is still positioned inside that statement's argument list; once an
// item is terminated by a colon or end-of-line instead of a comma, the next
// call resumes the token search, which may cross into a later line.
func (d *Dispatcher) nextDataItem() (string, error) {
	if d.M.Data.Exhausted() {
		return "", basic.New(basic.ErrOutOfData, "")
	}
	addr := d.M.Data.Addr()
	offset := d.M.Data.Offset()
	toks := append(append([]byte{}, d.M.Program.Tokens(addr)...), token.End)

	if !d.dataInArgs {
		for {
			if offset >= len(toks) || toks[offset] == token.End {
				next, ok := d.M.Program.NextLine(addr)
				if !ok {
					d.M.Data.MarkExhausted()
					return "", basic.New(basic.ErrOutOfData, "")
				}
				addr = next
				offset = 0
				toks = append(append([]byte{}, d.M.Program.Tokens(addr)...), token.End)
				continue
			}
			if toks[offset] == token.DATA {
				offset++
				break
			}
			offset++
		}
	}

	for offset < len(toks) && toks[offset] == ' ' {
		offset++
	}
	start := offset
	for offset < len(toks) && toks[offset] != ',' && toks[offset] != ':' && toks[offset] != token.End {
		offset++
	}
	item := strings.TrimSpace(string(toks[start:offset]))
	if len(item) >= 2 && item[0] == '"' && item[len(item)-1] == '"' {
		item = item[1 : len(item)-1]
	}
	if offset < len(toks) && toks[offset] == ',' {
		offset++
		d.dataInArgs = true
	} else {
		d.dataInArgs = false
	}
	d.M.Data.Advance(addr, offset)
	return item, nil
}

func (d *Dispatcher) execRestore() (StepResult, error) {
	d.dataInArgs = false
	if d.atStatementEnd() {
		d.M.Data.RestoreToStart()
		return Running, nil
	}
	v, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	lineNo, err := lineNumberFromValue(v)
	if err != nil {
		return Running, err
	}
	if err := d.M.Data.RestoreToLine(lineNo); err != nil {
		return Running, err
	}
	return Running, nil
}

func (d *Dispatcher) execClear() (StepResult, error) {
	d.Clear()
	return Running, nil
}

func (d *Dispatcher) execNewStmt() (StepResult, error) {
	d.M.New()
	d.hasStop = false
	d.dataInArgs = false
	d.finished = true
	return Done, nil
}

// execRunStmt implements RUN [line]: clears all variables then starts
// execution from the given line (or the first line), per spec §4.3.
func (d *Dispatcher) execRunStmt() (StepResult, error) {
	arg := ""
	if !d.atStatementEnd() {
		start := d.pos.Offset
		for isDigitByte(d.current()) {
			d.pos.Offset++
		}
		arg = string(d.line[start:d.pos.Offset])
	}
	if err := d.execRun(arg); err != nil {
		return Running, err
	}
	return Running, nil
}

func (d *Dispatcher) execRun(arg string) error {
	d.Clear()
	d.stmtCount = 0
	d.M.Stats.Start()
	d.M.LineCoverage.Start()
	refs := d.M.Program.Walk()
	lines := make([]int, len(refs))
	for i, ref := range refs {
		lines[i] = ref.Number
	}
	d.M.LineCoverage.SetLines(lines)
	var addr uint16
	var ok bool
	if arg == "" {
		addr, ok = d.M.Program.FirstLine()
	} else {
		lineNo := 0
		fmt.Sscanf(arg, "%d", &lineNo)
		addr, ok = d.M.Program.FindLine(lineNo)
	}
	if !ok {
		d.finished = true
		return nil
	}
	d.jumpTo(vm.Position{Addr: addr, Offset: program.LineHeaderSize})
	d.finished = false
	return nil
}

// execList implements LIST [first][-last]: with no arguments it prints
// every stored line; "LIST 100" prints just line 100; "LIST 100-" prints
// from 100 to the end; "LIST -200" prints up to line 200; "LIST 100-200"
// prints the range. Rendering itself is delegated to tools.Formatter, the
// same detokenize-and-prefix-with-line-number logic LIST always used,
// generalized so other callers (the supplemented cross-reference tooling)
// share it instead of duplicating it.
func (d *Dispatcher) execList() (StepResult, error) {
	first, last := d.parseListRange()
	d.Console.Write(tools.List(d.M.Program, first, last))
	d.pos.Offset = len(d.line) - 1
	return Running, nil
}

// parseListRange reads LIST's optional [first][-last] argument pair from
// the text pointer, consuming it.
func (d *Dispatcher) parseListRange() (int, int) {
	d.skipSpaces()
	first := 0
	if isDigitByte(d.current()) {
		first = d.scanLineNumberLiteral()
	}
	d.skipSpaces()
	if d.current() != token.OpMinus {
		return first, first
	}
	d.pos.Offset++
	d.skipSpaces()
	if !isDigitByte(d.current()) {
		return first, 0
	}
	return first, d.scanLineNumberLiteral()
}

// scanLineNumberLiteral parses a raw decimal run at the text pointer,
// advancing past it. Callers must already know d.current() is a digit.
func (d *Dispatcher) scanLineNumberLiteral() int {
	start := d.pos.Offset
	for isDigitByte(d.current()) {
		d.pos.Offset++
	}
	n := 0
	fmt.Sscanf(string(d.line[start:d.pos.Offset]), "%d", &n)
	return n
}

// execDef implements DEF FN name(param) = body: it does not evaluate body
// now, only records its token span, per spec §4.4's DEF FN semantics.
func (d *Dispatcher) execDef() (StepResult, error) {
	if err := d.expectByte(token.FN); err != nil {
		return Running, err
	}
	toks := eval.Lex(d.remaining())
	if toks[0].Kind != eval.TKIdent {
		return Running, basic.New(basic.ErrSyntax, "")
	}
	fnName := toks[0].Name
	d.pos.Offset += toks[1].Pos
	if err := d.expectByte('('); err != nil {
		return Running, err
	}
	ptoks := eval.Lex(d.remaining())
	if ptoks[0].Kind != eval.TKIdent {
		return Running, basic.New(basic.ErrSyntax, "")
	}
	param := ptoks[0].Name
	isString := strings.HasSuffix(param, "$")
	d.pos.Offset += ptoks[1].Pos
	if err := d.expectByte(')'); err != nil {
		return Running, err
	}
	if err := d.expectByte(token.OpEQ); err != nil {
		return Running, err
	}
	bodyStart := d.pos.Offset
	for !d.atStatementEnd() {
		d.pos.Offset++
	}
	body := append([]byte{}, d.line[bodyStart:d.pos.Offset]...)
	d.fns[fnName] = &userFunc{param: param, isString: isString, body: body}
	return Running, nil
}

func (d *Dispatcher) execPoke() (StepResult, error) {
	addrV, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	addr, err := vm.SafeFloatToUint16(addrV.Num)
	if err != nil {
		return Running, basic.New(basic.ErrIllegalQuantity, "")
	}
	if err := d.expectByte(','); err != nil {
		return Running, err
	}
	valV, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	b, err := vm.SafeFloatToByte(valV.Num)
	if err != nil {
		return Running, basic.New(basic.ErrIllegalQuantity, "")
	}
	d.M.Memory.PokeByte(addr, b)
	return Running, nil
}

func (d *Dispatcher) execSys() (StepResult, error) {
	v, err := d.evalExpr()
	if err != nil {
		return Running, err
	}
	addr, err := vm.SafeFloatToUint16(v.Num)
	if err != nil {
		return Running, basic.New(basic.ErrIllegalQuantity, "")
	}
	if d.SysHook != nil {
		return Running, d.SysHook(addr)
	}
	return Running, nil
}

// execGet implements GET v: a single non-blocking keypress. If none is
// waiting it suspends with NeedsChar; ProvideChar then stores the key, or
// "" (0 for a numeric target) when the host reports that none arrived.
func (d *Dispatcher) execGet() (StepResult, error) {
	lv, err := d.parseLValue()
	if err != nil {
		return Running, err
	}
	d.pendingLine = d.pos
	c, ok := d.Console.PollChar()
	if !ok {
		d.pendingChar = true
		d.pendingGetTarget = &lv
		return NeedsChar, nil
	}
	return Running, d.storeGetResult(lv, c)
}

func (d *Dispatcher) storeGetResult(lv eval.LValue, c byte) error {
	var v eval.Value
	if lv.IsString {
		if c == 0 {
			v = eval.StringValue("")
		} else {
			v = eval.StringValue(string([]byte{c}))
		}
	} else {
		v = eval.NumberValue(float64(c))
	}
	return d.assign(lv, v)
}

// ProvideChar resolves a pending GET raised by Step returning NeedsChar.
func (d *Dispatcher) ProvideChar(c byte, ok bool) {
	if !d.pendingChar {
		return
	}
	d.pendingChar = false
	lv := d.pendingGetTarget
	d.pendingGetTarget = nil
	d.jumpTo(d.pendingLine)
	if !ok {
		c = 0
	}
	if err := d.storeGetResult(*lv, c); err != nil {
		d.reportError(err)
	}
}

// execTron implements the supplemented TRON statement: enables the shared
// line tracer. While it is on, advanceLine prints "[line]" to the console
// each time execution falls through from one program line to the next; a
// line entered by RUN, GOTO, GOSUB or RETURN is not announced.
func (d *Dispatcher) execTron() (StepResult, error) {
	d.M.LineTrace.Enabled = true
	d.M.LineTrace.Start()
	return Running, nil
}

func (d *Dispatcher) execTroff() (StepResult, error) {
	d.M.LineTrace.Enabled = false
	return Running, nil
}

// execLoadStmt and execSaveStmt parse a quoted filename and delegate to
// the host-supplied hooks; with no hook wired, they raise DEVICE NOT
// PRESENT, matching
// spec §7's "host errors ... only for the file-I/O boundary" allowance for
// an embedding that has not wired storage at all.
func (d *Dispatcher) execLoadStmt() (StepResult, error) {
	name, err := d.scanQuotedString()
	if err != nil {
		return Running, err
	}
	if d.LoadHook == nil {
		return Running, basic.New(basic.ErrDeviceNotPresent, "")
	}
	tokensByLine, err := d.LoadHook(name)
	if err != nil {
		return Running, err
	}
	d.M.New()
	d.dataInArgs = false
	for _, lt := range tokensByLine {
		if err := d.M.Program.Insert(lt.Number, lt.Tokens); err != nil {
			return Running, err
		}
	}
	d.finished = true
	return Done, nil
}

func (d *Dispatcher) execSaveStmt() (StepResult, error) {
	name, err := d.scanQuotedString()
	if err != nil {
		return Running, err
	}
	if d.SaveHook == nil {
		return Running, basic.New(basic.ErrDeviceNotPresent, "")
	}
	return Running, d.SaveHook(name, d.M.Program.Walk(), d.M.Program)
}

func (d *Dispatcher) scanQuotedString() (string, error) {
	d.skipSpaces()
	if d.current() != '"' {
		return "", basic.New(basic.ErrSyntax, "")
	}
	d.pos.Offset++
	start := d.pos.Offset
	for d.current() != '"' && d.current() != token.End {
		d.pos.Offset++
	}
	s := string(d.line[start:d.pos.Offset])
	if d.current() == '"' {
		d.pos.Offset++
	}
	return s, nil
}
