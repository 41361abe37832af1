package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringsAllocAndRead(t *testing.T) {
	mem := NewMemory()
	vars := NewVars(mem)
	arrays := NewArrays(mem)
	heap := NewStrings(mem, vars, arrays)

	ptr, err := heap.Alloc("HELLO")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", heap.Read(5, ptr))
}

func TestStringsAllocGrowsDownwardFromFretop(t *testing.T) {
	mem := NewMemory()
	vars := NewVars(mem)
	arrays := NewArrays(mem)
	heap := NewStrings(mem, vars, arrays)

	before := mem.Pointer(AddrFRETOP)
	ptr, err := heap.Alloc("AB")
	require.NoError(t, err)
	assert.Less(t, ptr, before)
	assert.Equal(t, ptr, mem.Pointer(AddrFRETOP))
}

func TestStringsCollectPreservesLiveRootsAndReclaimsDead(t *testing.T) {
	mem := NewMemory()
	vars := NewVars(mem)
	arrays := NewArrays(mem)
	heap := NewStrings(mem, vars, arrays)

	// A$ is a live root.
	aAddr, err := vars.Lookup("A", true)
	require.NoError(t, err)
	length, ptr, err := heap.Intern("KEEP")
	require.NoError(t, err)
	vars.SetStringDescriptor(aAddr, length, ptr)

	// An unrooted allocation representing garbage (e.g. a discarded
	// intermediate concatenation).
	_, err = heap.Alloc("GARBAGE-DATA")
	require.NoError(t, err)

	fretopBefore := mem.Pointer(AddrFRETOP)
	heap.Collect()
	fretopAfter := mem.Pointer(AddrFRETOP)
	assert.Greater(t, fretopAfter, fretopBefore)

	gotLen, gotPtr := Descriptor(mem, aAddr+2)
	assert.Equal(t, "KEEP", heap.Read(gotLen, gotPtr))
}

func TestStringsCollectIsIdempotent(t *testing.T) {
	mem := NewMemory()
	vars := NewVars(mem)
	arrays := NewArrays(mem)
	heap := NewStrings(mem, vars, arrays)

	aAddr, err := vars.Lookup("A", true)
	require.NoError(t, err)
	length, ptr, err := heap.Intern("STABLE")
	require.NoError(t, err)
	vars.SetStringDescriptor(aAddr, length, ptr)

	heap.Collect()
	fretopOnce := mem.Pointer(AddrFRETOP)
	heap.Collect()
	fretopTwice := mem.Pointer(AddrFRETOP)
	assert.Equal(t, fretopOnce, fretopTwice)

	gotLen, gotPtr := Descriptor(mem, aAddr+2)
	assert.Equal(t, "STABLE", heap.Read(gotLen, gotPtr))
}

func TestStringsAllocTriggersCollectWhenFull(t *testing.T) {
	mem := NewMemory()
	mem.SetPointer(AddrFRETOP, mem.Pointer(AddrSTREND)+30)
	mem.SetPointer(AddrMEMSIZ, mem.Pointer(AddrSTREND)+30)
	vars := NewVars(mem)
	arrays := NewArrays(mem)
	heap := NewStrings(mem, vars, arrays)

	aAddr, err := vars.Lookup("A", true)
	require.NoError(t, err)
	length, ptr, err := heap.Intern("0123456789")
	require.NoError(t, err)
	vars.SetStringDescriptor(aAddr, length, ptr)

	// Unrooted garbage takes up the space the next allocation needs.
	_, err = heap.Alloc("GARBAGE-XX")
	require.NoError(t, err)

	// This allocation does not fit alongside the live root without a
	// collect first; Alloc must collect and retry rather than erroring.
	_, err = heap.Alloc("9876543210")
	require.NoError(t, err)

	gotLen, gotPtr := Descriptor(mem, aAddr+2)
	assert.Equal(t, "0123456789", heap.Read(gotLen, gotPtr))
}

func TestStringsPushTempOverflow(t *testing.T) {
	mem := NewMemory()
	vars := NewVars(mem)
	arrays := NewArrays(mem)
	heap := NewStrings(mem, vars, arrays)

	var lastErr error
	for i := 0; i < tempStackDepth+1; i++ {
		lastErr = heap.PushTemp(fmt.Sprintf("T%d", i))
	}
	assert.Error(t, lastErr)

	heap.ResetTemp()
	assert.NoError(t, heap.PushTemp("fresh"))
}
