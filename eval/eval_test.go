package eval

import (
	"testing"

	"github.com/lookbusy1344/basic6502/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMachine is a minimal in-memory Machine for exercising the evaluator
// without pulling in the vm/dispatcher packages.
type stubMachine struct {
	vars    map[string]Value
	arrays  map[string]map[string]Value
	mem     [65536]byte
	col     int
	rndNext float64
	fns     map[string]func(Value) (Value, error)
}

func newStub() *stubMachine {
	return &stubMachine{vars: map[string]Value{}, arrays: map[string]map[string]Value{}, fns: map[string]func(Value) (Value, error){}}
}

func (s *stubMachine) Variable(name string, isString bool) (Value, error) {
	if v, ok := s.vars[name]; ok {
		return v, nil
	}
	if isString {
		return StringValue(""), nil
	}
	return NumberValue(0), nil
}

func (s *stubMachine) ArrayElement(name string, isString bool, indices []int) (Value, error) {
	key := name
	for _, i := range indices {
		key += "," + string(rune('0'+i))
	}
	if v, ok := s.arrays[name][key]; ok {
		return v, nil
	}
	if isString {
		return StringValue(""), nil
	}
	return NumberValue(0), nil
}

func (s *stubMachine) CallUserFunction(name string, arg Value) (Value, error) {
	if fn, ok := s.fns[name]; ok {
		return fn(arg)
	}
	return NumberValue(0), nil
}

func (s *stubMachine) Peek(addr uint16) byte            { return s.mem[addr] }
func (s *stubMachine) Rnd(x float64) float64            { return s.rndNext }
func (s *stubMachine) Fre() float64                     { return 12345 }
func (s *stubMachine) Usr(arg float64) (float64, error) { return arg + 1, nil }
func (s *stubMachine) OutputColumn() int                { return s.col }

// evalStr crunches src the same way the dispatcher would before calling Eval,
// so tests exercise the real tokenizer-to-evaluator pipeline.
func evalStr(t *testing.T, src string, m Machine) Value {
	t.Helper()
	toks, err := token.Crunch(src)
	require.NoError(t, err)
	v, _, err := Eval(toks, m)
	require.NoError(t, err)
	return v
}

func evalErr(t *testing.T, src string, m Machine) error {
	t.Helper()
	toks, err := token.Crunch(src)
	require.NoError(t, err)
	_, _, err = Eval(toks, m)
	return err
}

func TestArithmeticPrecedence(t *testing.T) {
	m := newStub()
	assert.Equal(t, 14.0, evalStr(t, "2+3*4", m).Num)
	assert.Equal(t, 20.0, evalStr(t, "(2+3)*4", m).Num)
	assert.Equal(t, 4.0, evalStr(t, "-2^2", m).Num, "unary minus binds tighter than ^")
	assert.Equal(t, 8.0, evalStr(t, "2^3", m).Num)
	assert.Equal(t, 0.25, evalStr(t, "2^-2", m).Num)
}

func TestStringConcatenation(t *testing.T) {
	m := newStub()
	v := evalStr(t, `"AB"+"CD"`, m)
	assert.True(t, v.IsString)
	assert.Equal(t, "ABCD", v.Str)
}

func TestTypeMismatchOnMixedAddition(t *testing.T) {
	m := newStub()
	err := evalErr(t, `"AB"+1`, m)
	assert.Error(t, err)
}

func TestRelationalOperators(t *testing.T) {
	m := newStub()
	assert.Equal(t, -1.0, evalStr(t, "1<2", m).Num)
	assert.Equal(t, 0.0, evalStr(t, "1>2", m).Num)
	assert.Equal(t, -1.0, evalStr(t, "1<=1", m).Num)
	assert.Equal(t, -1.0, evalStr(t, "2>=1", m).Num)
	assert.Equal(t, -1.0, evalStr(t, "1<>2", m).Num)
	v := evalStr(t, `"APPLE"<"BANANA"`, m)
	assert.Equal(t, -1.0, v.Num)
}

func TestLogicalOperators(t *testing.T) {
	m := newStub()
	assert.Equal(t, -1.0, evalStr(t, "-1 AND -1", m).Num)
	assert.Equal(t, 0.0, evalStr(t, "1 AND 2", m).Num, "bitwise AND of 0b01 and 0b10")
	assert.Equal(t, -1.0, evalStr(t, "0 OR -1", m).Num)
	assert.Equal(t, -1.0, evalStr(t, "NOT 0", m).Num)
}

func TestDivisionByZero(t *testing.T) {
	m := newStub()
	err := evalErr(t, "1/0", m)
	assert.Error(t, err)
}

func TestVariableLookup(t *testing.T) {
	m := newStub()
	m.vars["X"] = NumberValue(42)
	assert.Equal(t, 42.0, evalStr(t, "X+1", m).Num)
}

func TestArrayElementLookup(t *testing.T) {
	m := newStub()
	m.arrays["A"] = map[string]Value{"A,1": NumberValue(7)}
	assert.Equal(t, 7.0, evalStr(t, "A(1)", m).Num)
}

func TestBuiltinNumericFunctions(t *testing.T) {
	m := newStub()
	assert.Equal(t, 3.0, evalStr(t, "ABS(-3)", m).Num)
	assert.Equal(t, -1.0, evalStr(t, "SGN(-5)", m).Num)
	assert.Equal(t, 2.0, evalStr(t, "INT(2.9)", m).Num)
	assert.Equal(t, -3.0, evalStr(t, "INT(-2.1)", m).Num, "INT floors toward negative infinity")
	assert.Equal(t, 3.0, evalStr(t, "SQR(9)", m).Num)
}

func TestBuiltinStringFunctions(t *testing.T) {
	m := newStub()
	assert.Equal(t, "HELLO", evalStr(t, `LEFT$("HELLO WORLD",5)`, m).Str)
	assert.Equal(t, "WORLD", evalStr(t, `RIGHT$("HELLO WORLD",5)`, m).Str)
	assert.Equal(t, "LLO", evalStr(t, `MID$("HELLO",3)`, m).Str)
	assert.Equal(t, "LL", evalStr(t, `MID$("HELLO",3,2)`, m).Str)
	assert.Equal(t, 5.0, evalStr(t, `LEN("HELLO")`, m).Num)
	assert.Equal(t, "A", evalStr(t, "CHR$(65)", m).Str)
	assert.Equal(t, 65.0, evalStr(t, `ASC("A")`, m).Num)
}

func TestAscOfEmptyStringErrors(t *testing.T) {
	m := newStub()
	err := evalErr(t, `ASC("")`, m)
	assert.Error(t, err)
}

func TestValParsesLeadingNumber(t *testing.T) {
	m := newStub()
	assert.Equal(t, 42.0, evalStr(t, `VAL("42ABC")`, m).Num)
	assert.Equal(t, 0.0, evalStr(t, `VAL("ABC")`, m).Num)
}

func TestEvalStopsAtStatementBoundary(t *testing.T) {
	m := newStub()
	toks, err := token.Crunch("X+1:PRINT X")
	require.NoError(t, err)
	v, pos, err := Eval(toks, m)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Num)
	assert.Equal(t, byte(':'), toks[pos])
}

func TestMachineHooks(t *testing.T) {
	m := newStub()
	m.mem[100] = 42
	m.rndNext = 0.75
	m.col = 3
	assert.Equal(t, 42.0, evalStr(t, "PEEK(100)", m).Num)
	assert.Equal(t, 0.75, evalStr(t, "RND(1)", m).Num)
	assert.Equal(t, 12345.0, evalStr(t, "FRE(0)", m).Num)
	assert.Equal(t, 3.0, evalStr(t, "POS(0)", m).Num)
	assert.Equal(t, 6.0, evalStr(t, "USR(5)", m).Num)
}

func TestTabAndSpc(t *testing.T) {
	m := newStub()
	m.col = 2
	assert.Equal(t, "   ", evalStr(t, "TAB(5)", m).Str)
	assert.Equal(t, "", evalStr(t, "TAB(1)", m).Str, "TAB behind the current column yields nothing")
	assert.Equal(t, "  ", evalStr(t, "SPC(2)", m).Str)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, " 5", FormatNumber(5))
	assert.Equal(t, "-5", FormatNumber(-5))
	assert.Equal(t, " 0.5", FormatNumber(0.5))
}
