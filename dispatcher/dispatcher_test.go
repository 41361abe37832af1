package dispatcher

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/program"
	"github.com/lookbusy1344/basic6502/token"
)

// newTestDispatcher builds a Dispatcher over an in-memory console, returning
// it alongside the output buffer so tests can assert on printed text.
func newTestDispatcher() (*Dispatcher, *bytes.Buffer) {
	out := &bytes.Buffer{}
	console := NewStreamConsole(out, strings.NewReader(""))
	return New(console), out
}

// loadLines crunches and inserts a whole program, one "N source" pair per
// line, into d's program store.
func loadLines(t *testing.T, d *Dispatcher, lines ...string) {
	t.Helper()
	for _, line := range lines {
		sp := strings.SplitN(line, " ", 2)
		require.Len(t, sp, 2)
		num, err := strconv.Atoi(sp[0])
		require.NoError(t, err)
		toks, err := token.Crunch(sp[1])
		require.NoError(t, err)
		require.NoError(t, d.M.Program.Insert(num, toks[:len(toks)-1]))
	}
}

func TestForNextZoneAndSemicolonPrint(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 FOR I=1 TO 3 : PRINT I; : NEXT : PRINT "X"`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, " 1  2  3 X\n", out.String())
}

func TestGosubRecursionUnwindsControlStack(t *testing.T) {
	d, out := newTestDispatcher()
	// A recursive GOSUB that counts N down to zero and back up through four
	// nested RETURNs. N is an ordinary simple variable, shared by every
	// level (real BASIC has no per-call variable scoping), so each level's
	// second PRINT, executed after the nested call returns, sees whatever
	// value the deepest call left behind rather than its own.
	loadLines(t, d,
		`10 N=3`,
		`20 GOSUB 100`,
		`30 PRINT "DONE"`,
		`40 END`,
		`100 PRINT N;`,
		`110 IF N=0 THEN RETURN`,
		`120 N=N-1`,
		`130 GOSUB 100`,
		`140 PRINT N;`,
		`150 RETURN`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, " 3  2  1  0  0  0  0 DONE\n", out.String())
}

func TestOnGotoOutOfRangeFallsThrough(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 ON 0 GOTO 50,60`,
		`20 PRINT "F"`,
		`30 END`,
		`50 PRINT "FIFTY"`,
		`60 PRINT "SIXTY"`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "F\n", out.String())
}

func TestComputedGoto(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 X=30 : GOTO X`,
		`20 PRINT "N"`,
		`30 PRINT "Y"`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "Y\n", out.String())
}

func TestReadDataMultipleItemsPerStatement(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 READ A,B,C`,
		`20 PRINT A;B;C`,
		`30 DATA 1,2,3`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, " 1  2  3 \n", out.String())
}

func TestReadDataAcrossMultipleStatementsAndLines(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 DATA 1,2`,
		`20 PRINT "HI" : DATA 3`,
		`30 READ A,B,C`,
		`40 PRINT A;B;C`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "HI\n 1  2  3 \n", out.String())
}

func TestReadStringDataAcceptsAnyLiteral(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 DATA HELLO,WORLD`,
		`20 READ A$,B$`,
		`30 PRINT A$;" ";B$`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "HELLO WORLD\n", out.String())
}

func TestRestoreRewindsDataCursor(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 DATA 5,6`,
		`20 READ A,B`,
		`30 RESTORE`,
		`40 READ C,D`,
		`50 PRINT A;B;C;D`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, " 5  6  5  6 \n", out.String())
}

func TestOutOfDataRaisesError(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 READ A`,
	)
	require.NoError(t, d.RunProgram())
	require.Contains(t, out.String(), "?OUT OF DATA ERROR")
}

func TestDimAndArrayAssignment(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 DIM A(5)`,
		`20 A(3)=42`,
		`30 PRINT A(3)`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, " 42 \n", out.String())
}

func TestDefFnRecursionIsSafe(t *testing.T) {
	d, out := newTestDispatcher()
	// A DEF FN body is a single expression, so it cannot call itself
	// directly; this instead confirms two nested calls to the same
	// function each see their own argument binding rather than the outer
	// call's save/restore clobbering the inner one's.
	loadLines(t, d,
		`10 DEF FNDBL(X) = X*2`,
		`20 PRINT FNDBL(FNDBL(3))`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, " 12 \n", out.String())
}

func TestIfThenLiteralLineNumber(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 IF 1=1 THEN 30`,
		`20 PRINT "NO"`,
		`30 PRINT "YES"`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "YES\n", out.String())
}

func TestStopAndCont(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 PRINT "A"`,
		`20 STOP`,
		`30 PRINT "B"`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "A\nBREAK IN 20\n", out.String())

	out.Reset()
	require.NoError(t, d.RunDirect(mustCrunch(t, "CONT")))
	require.Equal(t, "B\n", out.String())
}

func TestPrintCommaZoneAlignment(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d, `10 PRINT "AB",1`)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "AB"+strings.Repeat(" ", 8)+" 1 \n", out.String())
}

func TestInputPendingRoundTrip(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 INPUT "N";A`,
		`20 PRINT A*2`,
	)
	require.NoError(t, d.execRun(""))
	for {
		res, err := d.Step()
		require.NoError(t, err)
		if res == NeedsInput {
			break
		}
		if res == Done {
			t.Fatal("expected NeedsInput before Done")
		}
	}
	require.Equal(t, "N? ", out.String())
	require.NoError(t, d.ProvideInput("5"))
	for {
		res, err := d.Step()
		require.NoError(t, err)
		if res == Done {
			break
		}
	}
	require.Equal(t, "N?  10 \n", out.String())
}

func TestGetPendingRoundTrip(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 GET A$`,
		`20 PRINT A$`,
	)
	require.NoError(t, d.execRun(""))
	for {
		res, err := d.Step()
		require.NoError(t, err)
		if res == NeedsChar {
			break
		}
	}
	d.ProvideChar('Q', true)
	for {
		res, err := d.Step()
		require.NoError(t, err)
		if res == Done {
			break
		}
	}
	require.Equal(t, "Q\n", out.String())
}

func TestUndefinedLineRaisesError(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d, `10 GOTO 999`)
	require.NoError(t, d.RunProgram())
	require.Contains(t, out.String(), "?UNDEFINED LINE NUMBER ERROR IN 10")
}

func TestReturnWithoutGosub(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d, `10 RETURN`)
	require.NoError(t, d.RunProgram())
	require.Contains(t, out.String(), "?RETURN WITHOUT GOSUB ERROR IN 10")
}

func TestReturnDiscardsDanglingForFrame(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 GOSUB 100`,
		`20 PRINT "BACK"`,
		`30 END`,
		`100 FOR I=1 TO 5`,
		`110 RETURN`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "BACK\n", out.String())
}

func TestNextWithoutFor(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d, `10 NEXT I`)
	require.NoError(t, d.RunProgram())
	require.Contains(t, out.String(), "?NEXT WITHOUT FOR ERROR IN 10")
}

func TestLoadHookRejectsWithoutWiring(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d, `10 LOAD "X"`)
	require.NoError(t, d.RunProgram())
	require.Contains(t, out.String(), "?DEVICE NOT PRESENT ERROR IN 10")
}

func TestSaveHookIsCalledWithProgramLines(t *testing.T) {
	d, _ := newTestDispatcher()
	var savedName string
	var savedCount int
	d.SaveHook = func(name string, lines []program.LineRef, _ *program.Store) error {
		savedName = name
		savedCount = len(lines)
		return nil
	}
	loadLines(t, d,
		`10 PRINT "A"`,
		`20 PRINT "B"`,
		`30 SAVE "MYPROG"`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "MYPROG", savedName)
	require.Equal(t, 3, savedCount)
}

func mustCrunch(t *testing.T, src string) []byte {
	t.Helper()
	toks, err := token.Crunch(src)
	require.NoError(t, err)
	return toks[:len(toks)-1]
}

func TestListWithNoArgumentsPrintsWholeProgram(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 PRINT "A"`,
		`20 PRINT "B"`,
	)
	require.NoError(t, d.RunDirect(mustCrunch(t, "LIST")))
	require.Equal(t, "10 PRINT \"A\"\n20 PRINT \"B\"\n", out.String())
}

func TestListWithRangeFiltersLines(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 PRINT "A"`,
		`20 PRINT "B"`,
		`30 PRINT "C"`,
	)
	require.NoError(t, d.RunDirect(mustCrunch(t, "LIST 20-30")))
	require.Equal(t, "20 PRINT \"B\"\n30 PRINT \"C\"\n", out.String())
}

func TestListWithSingleLineNumber(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 PRINT "A"`,
		`20 PRINT "B"`,
	)
	require.NoError(t, d.RunDirect(mustCrunch(t, "LIST 20")))
	require.Equal(t, "20 PRINT \"B\"\n", out.String())
}

func TestMaxStatementsForcesBreak(t *testing.T) {
	d, out := newTestDispatcher()
	d.MaxStatements = 5
	loadLines(t, d,
		`10 PRINT "X";`,
		`20 GOTO 10`,
	)
	// Run reports errors itself and returns nil, so drive Step directly to
	// observe the BREAK error the statement budget raises.
	require.NoError(t, d.execRun(""))
	var err error
	for {
		var res StepResult
		res, err = d.Step()
		if err != nil || res == Done {
			break
		}
	}
	require.Error(t, err)
	basicErr, ok := basic.IsBasicError(err)
	require.True(t, ok)
	require.Equal(t, "BR", basicErr.Code)
	require.Equal(t, "XXX", out.String())
}

func TestMaxStatementsZeroMeansUnbounded(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 FOR I=1 TO 200 : NEXT`,
		`20 PRINT "DONE"`,
	)
	require.NoError(t, d.RunProgram())
	require.Equal(t, "DONE\n", out.String())
}

func TestListWithOpenEndedRange(t *testing.T) {
	d, out := newTestDispatcher()
	loadLines(t, d,
		`10 PRINT "A"`,
		`20 PRINT "B"`,
		`30 PRINT "C"`,
	)
	require.NoError(t, d.RunDirect(mustCrunch(t, "LIST 20-")))
	require.Equal(t, "20 PRINT \"B\"\n30 PRINT \"C\"\n", out.String())
}
