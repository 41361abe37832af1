package tools

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/basic6502/program"
	"github.com/lookbusy1344/basic6502/token"
)

// fakeMemory is a minimal flat byte array satisfying program.Memory,
// matching the one package program's own store_test.go uses.
type fakeMemory struct {
	buf [65536]byte
}

func (m *fakeMemory) PeekByte(addr uint16) byte    { return m.buf[addr] }
func (m *fakeMemory) PokeByte(addr uint16, v byte) { m.buf[addr] = v }

func newTestStore(t *testing.T, lines map[int]string) *program.Store {
	t.Helper()
	mem := &fakeMemory{}
	s := program.New(mem, 0x1000, 0xF000)
	for num, src := range lines {
		toks, err := token.Crunch(src)
		require.NoError(t, err)
		require.NoError(t, s.Insert(num, toks[:len(toks)-1]))
	}
	return s
}

func TestFormatDefaultMatchesList(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `PRINT "HI"`,
		20: `GOTO 10`,
	})

	out := List(s, 0, 0)
	require.Equal(t, "10 PRINT \"HI\"\n20 GOTO 10\n", out)
}

func TestFormatRangeFiltersLines(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `PRINT "A"`,
		20: `PRINT "B"`,
		30: `PRINT "C"`,
	})

	out := NewFormatter(DefaultFormatOptions()).Format(s, 20, 20)
	require.Equal(t, "20 PRINT \"B\"\n", out)

	out = NewFormatter(DefaultFormatOptions()).Format(s, 20, 0)
	require.Equal(t, "20 PRINT \"B\"\n30 PRINT \"C\"\n", out)
}

func TestFormatExpandedPadsLineNumbers(t *testing.T) {
	s := newTestStore(t, map[int]string{10: `PRINT 1`})

	out := NewFormatter(ExpandedFormatOptions()).Format(s, 0, 0)
	require.Equal(t, "   10 PRINT 1\n", out)
}

func TestFormatSpaceAfterColonLeavesQuotedColonsAlone(t *testing.T) {
	s := newTestStore(t, map[int]string{10: `PRINT "A:B":PRINT "C"`})

	opts := DefaultFormatOptions()
	opts.SpaceAfterColon = true
	out := NewFormatter(opts).Format(s, 0, 0)
	require.Equal(t, "10 PRINT \"A:B\": PRINT \"C\"\n", out)
}
