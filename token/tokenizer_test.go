package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrunchKeyword(t *testing.T) {
	out, err := Crunch(`PRINT "HI"`)
	require.NoError(t, err)
	assert.Equal(t, []byte{PRINT, ' ', '"', 'H', 'I', '"', End}, out)
}

func TestCrunchNoWordBoundary(t *testing.T) {
	// FORI tokenizes as FOR then I, per spec §4.1 rule 5.
	out, err := Crunch("FORI=1TO10")
	require.NoError(t, err)
	assert.Equal(t, FOR, out[0])
	assert.Equal(t, byte('I'), out[1])
	assert.Equal(t, OpEQ, out[2])
	assert.Equal(t, byte('1'), out[3])
	assert.Equal(t, TO, out[4])
}

func TestCrunchGoTo(t *testing.T) {
	out, err := Crunch("GO TO 100")
	require.NoError(t, err)
	assert.Equal(t, GOTO, out[0])

	out, err = Crunch("GOTO100")
	require.NoError(t, err)
	assert.Equal(t, GOTO, out[0])

	out, err = Crunch("GOSUB 100")
	require.NoError(t, err)
	assert.Equal(t, GOSUB, out[0])
}

func TestCrunchGosubNotStolenByGotoSpecialCase(t *testing.T) {
	// GOSUB must tokenize whole via matchKeyword; the "GO" ... "TO"
	// spaced-word special case must never fire just because a word starts
	// with "GO".
	out, err := Crunch("GOSUB 100")
	require.NoError(t, err)
	assert.Equal(t, []byte{GOSUB, ' ', '1', '0', '0', End}, out)
}

func TestCrunchGoAloneIsLiteral(t *testing.T) {
	out, err := Crunch("GOAWAY")
	require.NoError(t, err)
	assert.Equal(t, []byte{'G', 'O', 'A', 'W', 'A', 'Y', End}, out)
}

func TestCrunchQuestionMarkIsPrint(t *testing.T) {
	out, err := Crunch(`?"X"`)
	require.NoError(t, err)
	assert.Equal(t, PRINT, out[0])
}

func TestCrunchRemTakesRestOfLineVerbatim(t *testing.T) {
	out, err := Crunch("REM hello World 123")
	require.NoError(t, err)
	assert.Equal(t, REM, out[0])
	assert.Equal(t, []byte(" hello World 123"), out[1:len(out)-1])
}

func TestCrunchDataTailUntouchedUntilColon(t *testing.T) {
	out, err := Crunch("DATA hi,there:PRINT 1")
	require.NoError(t, err)
	assert.Equal(t, DATA, out[0])
	s := string(out[1:])
	assert.Contains(t, s, "hi,there")
	// PRINT after the colon is still tokenized.
	assert.Contains(t, s, string(PRINT))
}

func TestCrunchCaseInsensitiveKeywordUppercasesLiteral(t *testing.T) {
	out, err := Crunch("print x")
	require.NoError(t, err)
	assert.Equal(t, PRINT, out[0])
	assert.Equal(t, byte(' '), out[1])
	assert.Equal(t, byte('X'), out[2])
}

func TestCrunchStringTooLong(t *testing.T) {
	long := ""
	for i := 0; i < 260; i++ {
		long += "A"
	}
	_, err := Crunch(long)
	require.Error(t, err)
}

func TestDetokenizeRoundTrip(t *testing.T) {
	src := `PRINT "HI";A$;TAB(5)`
	out, err := RoundTrip(src)
	require.NoError(t, err)
	again, err := Crunch(src)
	require.NoError(t, err)
	assert.Equal(t, again, out)
}

func TestDetokenizeExpandsKeywords(t *testing.T) {
	toks, err := Crunch("FORI=1TO10STEP2")
	require.NoError(t, err)
	s := Detokenize(toks)
	assert.Equal(t, "FORI=1TO10STEP2", s)
}
