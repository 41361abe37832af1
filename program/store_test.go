package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMemory is a minimal flat byte array satisfying the Memory interface,
// enough to exercise Store in isolation from the vm package.
type fakeMemory struct {
	buf [65536]byte
}

func (m *fakeMemory) PeekByte(addr uint16) byte     { return m.buf[addr] }
func (m *fakeMemory) PokeByte(addr uint16, v byte)  { m.buf[addr] = v }

func TestInsertAndWalkAscending(t *testing.T) {
	mem := &fakeMemory{}
	s := New(mem, 0x1000, 0xF000)

	require.NoError(t, s.Insert(20, []byte("B")))
	require.NoError(t, s.Insert(10, []byte("A")))
	require.NoError(t, s.Insert(30, []byte("C")))

	lines := s.Walk()
	require.Len(t, lines, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{lines[0].Number, lines[1].Number, lines[2].Number})
	assert.Equal(t, []byte("A"), s.Tokens(lines[0].Addr))
	assert.Equal(t, []byte("B"), s.Tokens(lines[1].Addr))
	assert.Equal(t, []byte("C"), s.Tokens(lines[2].Addr))
}

func TestReplaceExistingLine(t *testing.T) {
	mem := &fakeMemory{}
	s := New(mem, 0x1000, 0xF000)
	require.NoError(t, s.Insert(10, []byte("OLD")))
	require.NoError(t, s.Insert(10, []byte("NEW")))

	lines := s.Walk()
	require.Len(t, lines, 1)
	assert.Equal(t, []byte("NEW"), s.Tokens(lines[0].Addr))
}

func TestInsertEmptyDeletesLine(t *testing.T) {
	mem := &fakeMemory{}
	s := New(mem, 0x1000, 0xF000)
	require.NoError(t, s.Insert(10, []byte("X")))
	require.NoError(t, s.Insert(10, nil))
	assert.Empty(t, s.Walk())
}

func TestLinkChainTerminatesAtZero(t *testing.T) {
	mem := &fakeMemory{}
	s := New(mem, 0x1000, 0xF000)
	require.NoError(t, s.Insert(10, []byte("A")))
	require.NoError(t, s.Insert(20, []byte("BB")))
	require.NoError(t, s.Insert(5, []byte("CCC")))

	visited := map[int]bool{}
	addr, ok := s.FirstLine()
	for ok {
		ln := s.LineNumber(addr)
		assert.False(t, visited[ln], "line %d visited twice", ln)
		visited[ln] = true
		addr, ok = s.NextLine(addr)
	}
	assert.Equal(t, map[int]bool{10: true, 20: true, 5: true}, visited)
	assert.Greater(t, s.End(), s.base)
}

func TestOutOfMemoryWhenNoRoom(t *testing.T) {
	mem := &fakeMemory{}
	s := New(mem, 0x1000, 0x1000+LineHeaderSize+2) // room for one 1-byte line only
	require.NoError(t, s.Insert(10, []byte("A")))
	err := s.Insert(20, []byte("BBBBBBBBBB"))
	require.Error(t, err)
}

func TestFindFirstAtOrAfter(t *testing.T) {
	mem := &fakeMemory{}
	s := New(mem, 0x1000, 0xF000)
	require.NoError(t, s.Insert(10, []byte("A")))
	require.NoError(t, s.Insert(30, []byte("B")))

	addr, ok := s.FindFirstAtOrAfter(15)
	require.True(t, ok)
	assert.Equal(t, 30, s.LineNumber(addr))

	_, ok = s.FindFirstAtOrAfter(31)
	assert.False(t, ok)
}
