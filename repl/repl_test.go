package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShellImmediateModeCommand(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewShell(out, strings.NewReader(`PRINT 1+2`+"\n"))
	require.NoError(t, s.Run())
	require.Equal(t, "READY.\n 3 \nREADY.\n", out.String())
}

func TestShellProgramEditAndRun(t *testing.T) {
	out := &bytes.Buffer{}
	in := strings.NewReader("10 PRINT \"HI\"\n20 PRINT \"BYE\"\nRUN\n")
	s := NewShell(out, in)
	require.NoError(t, s.Run())
	require.Equal(t, "READY.\nHI\nBYE\nREADY.\n", out.String())
}

func TestShellLineDeletion(t *testing.T) {
	out := &bytes.Buffer{}
	in := strings.NewReader("10 PRINT \"A\"\n20 PRINT \"B\"\n20\nRUN\n")
	s := NewShell(out, in)
	require.NoError(t, s.Run())
	require.Equal(t, "READY.\nA\nREADY.\n", out.String())
}

func TestShellQuitWordEndsSession(t *testing.T) {
	out := &bytes.Buffer{}
	in := strings.NewReader("PRINT 1\nQUIT\nPRINT 2\n")
	s := NewShell(out, in)
	require.NoError(t, s.Run())
	require.Equal(t, "READY.\n 1 \nREADY.\n", out.String())
}

func TestShellRecordsHistory(t *testing.T) {
	out := &bytes.Buffer{}
	in := strings.NewReader("10 PRINT 1\nLIST\n")
	s := NewShell(out, in)
	require.NoError(t, s.Run())
	require.Equal(t, []string{"10 PRINT 1", "LIST"}, s.History.All())
}

func TestShellProgramEditClearsVariables(t *testing.T) {
	out := &bytes.Buffer{}
	// X is set by RUN, then an unrelated edit (adding line 30) must
	// implicitly CLEAR it, so the immediate-mode PRINT X afterward reports
	// 0 rather than the value RUN left behind.
	in := strings.NewReader(
		"10 X=5\n" +
			"20 PRINT X\n" +
			"RUN\n" +
			"30 PRINT \"Z\"\n" +
			"PRINT X\n",
	)
	s := NewShell(out, in)
	require.NoError(t, s.Run())
	require.Equal(t, "READY.\n 5 \nREADY.\n 0 \nREADY.\n", out.String())
}

func TestShellRuntimeErrorReportsAndContinues(t *testing.T) {
	out := &bytes.Buffer{}
	in := strings.NewReader("PRINT 1\nRETURN\nPRINT 2\n")
	s := NewShell(out, in)
	require.NoError(t, s.Run())
	got := out.String()
	require.Contains(t, got, "?RETURN WITHOUT GOSUB ERROR\n")
	require.Contains(t, got, " 1 \n")
	require.Contains(t, got, " 2 \n")
}
