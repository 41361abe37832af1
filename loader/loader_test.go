package loader

import (
	"bytes"
	"testing"

	"github.com/lookbusy1344/basic6502/program"
	"github.com/lookbusy1344/basic6502/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMem struct{ buf [65536]byte }

func (m *fakeMem) PeekByte(addr uint16) byte    { return m.buf[addr] }
func (m *fakeMem) PokeByte(addr uint16, v byte) { m.buf[addr] = v }

func TestSaveLoadRoundTrip(t *testing.T) {
	mem := &fakeMem{}
	store := program.New(mem, 0x10, 0xFFFF)

	for _, line := range []struct {
		no  int
		src string
	}{
		{10, `PRINT "HI"`},
		{20, `FOR I=1 TO 10`},
		{30, `NEXT I`},
	} {
		toks, err := token.Crunch(line.src)
		require.NoError(t, err)
		require.NoError(t, store.Insert(line.no, toks[:len(toks)-1]))
	}

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, store))

	lines, err := Load(&buf)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, 10, lines[0].Number)
	assert.Equal(t, 20, lines[1].Number)
	assert.Equal(t, 30, lines[2].Number)

	mem2 := &fakeMem{}
	store2 := program.New(mem2, 0x10, 0xFFFF)
	for _, l := range lines {
		require.NoError(t, store2.Insert(l.Number, l.Tokens))
	}
	assert.Equal(t, store.Walk(), store2.Walk())
}

func TestLoadRejectsTruncatedStream(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte{0x05, 0x00}))
	assert.Error(t, err)
}

func TestLoadEmptyProgramIsJustSentinel(t *testing.T) {
	var buf bytes.Buffer
	mem := &fakeMem{}
	store := program.New(mem, 0x10, 0xFFFF)
	require.NoError(t, Save(&buf, store))
	lines, err := Load(&buf)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
