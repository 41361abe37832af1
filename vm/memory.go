// Package vm implements the address space, value subsystem, and
// interpreter state of spec §3/§4.5/§4.6: the flat 64 KiB buffer with its
// six canonical pointers, the simple-variable and array tables, and the
// string heap with its mark-and-compact collector. It is grounded on the
// teacher's vm package: a single owned byte buffer with bounds-checked
// access and running statistics (here a flat buffer rather than the
// teacher's permissioned segments, since spec §3 calls for one linear
// 65536-byte space with uniform PEEK/POKE, not per-region permissions).
package vm

import (
	"fmt"
)

// MemorySize is the full simulated address space, per spec §3.
const MemorySize = 65536

// Canonical low-memory pointer locations, per spec §3. Real Microsoft
// BASIC keeps these as zero-page cells; the exact addresses are not
// load-bearing for any external interface, so they are placed in a small
// fixed block at the very bottom of the address space, away from where a
// program's own TXTTAB will ever sit.
const (
	AddrTXTTAB = 0x0000
	AddrVARTAB = 0x0002
	AddrARYTAB = 0x0004
	AddrSTREND = 0x0006
	AddrFRETOP = 0x0008
	AddrMEMSIZ = 0x000A

	// PointerBlockEnd is the first byte not reserved for the canonical
	// pointers; TXTTAB is initialised here so programs never collide with
	// the pointer block itself.
	PointerBlockEnd = 0x0010
)

// Memory is the 64 KiB linear buffer backing the whole interpreter: the
// program store, variable/array tables, and string heap all sub-allocate
// within it, and PEEK/POKE give a BASIC program uniform access to every
// byte of it, per spec §3/§5 ("no locking is required; no two operations
// can be in flight").
type Memory struct {
	buf [MemorySize]byte

	AccessCount uint64
	ReadCount   uint64
	WriteCount  uint64
}

// NewMemory creates a zeroed address space with the canonical pointers
// initialised to an empty program occupying no space.
func NewMemory() *Memory {
	m := &Memory{}
	m.SetPointer(AddrTXTTAB, PointerBlockEnd)
	m.SetPointer(AddrVARTAB, PointerBlockEnd)
	m.SetPointer(AddrARYTAB, PointerBlockEnd)
	m.SetPointer(AddrSTREND, PointerBlockEnd)
	m.SetPointer(AddrFRETOP, MemorySize-1)
	m.SetPointer(AddrMEMSIZ, MemorySize-1)
	return m
}

// PeekByte reads one byte, used internally by every higher layer (program
// store, variable table, string heap) as well as by the BASIC PEEK
// function.
func (m *Memory) PeekByte(addr uint16) byte {
	m.AccessCount++
	m.ReadCount++
	return m.buf[addr]
}

// PokeByte writes one byte, the POKE-equivalent primitive every higher
// layer is built on.
func (m *Memory) PokeByte(addr uint16, v byte) {
	m.AccessCount++
	m.WriteCount++
	m.buf[addr] = v
}

// peekRaw/pokeRaw bypass the access counters for internal bulk operations
// (GC compaction, variable- and array-table moves) where counting every byte as a
// user-visible access would make FRE() and access statistics meaningless.
func (m *Memory) peekRaw(addr uint16) byte    { return m.buf[addr] }
func (m *Memory) pokeRaw(addr uint16, v byte) { m.buf[addr] = v }

// Peek implements the BASIC PEEK(addr) function: addr must be 0..65535 per
// spec §4.3, which the evaluator enforces before calling this.
func (m *Memory) Peek(addr uint16) byte { return m.PeekByte(addr) }

// Poke implements the BASIC POKE addr, v statement.
func (m *Memory) Poke(addr uint16, v byte) { m.PokeByte(addr, v) }

// Pointer reads one of the six canonical 16-bit little-endian pointers.
func (m *Memory) Pointer(addr uint16) uint16 {
	return uint16(m.peekRaw(addr)) | uint16(m.peekRaw(addr+1))<<8
}

// SetPointer writes one of the six canonical pointers.
func (m *Memory) SetPointer(addr uint16, v uint16) {
	m.pokeRaw(addr, byte(v))
	m.pokeRaw(addr+1, byte(v>>8))
}

// CheckInvariants verifies spec §3's ordering invariant across the six
// canonical pointers, returning an error naming the violated pair.
func (m *Memory) CheckInvariants() error {
	txttab := m.Pointer(AddrTXTTAB)
	vartab := m.Pointer(AddrVARTAB)
	arytab := m.Pointer(AddrARYTAB)
	strend := m.Pointer(AddrSTREND)
	fretop := m.Pointer(AddrFRETOP)
	memsiz := m.Pointer(AddrMEMSIZ)

	order := []struct {
		name string
		val  uint16
	}{
		{"TXTTAB", txttab}, {"VARTAB", vartab}, {"ARYTAB", arytab},
		{"STREND", strend}, {"FRETOP", fretop}, {"MEMSIZ", memsiz},
	}
	for i := 1; i < len(order); i++ {
		if order[i-1].val > order[i].val {
			return fmt.Errorf("pointer invariant violated: %s(0x%04X) > %s(0x%04X)",
				order[i-1].name, order[i-1].val, order[i].name, order[i].val)
		}
	}
	return nil
}

// Bytes returns a read-only copy of a region, used by the string heap GC.
func (m *Memory) Bytes(start, length uint16) []byte {
	out := make([]byte, length)
	for i := uint16(0); i < length; i++ {
		out[i] = m.peekRaw(start + i)
	}
	return out
}

// CopyWithin moves length bytes from src to dst without disturbing access
// statistics, used when a new simple variable shifts the array table up.
func (m *Memory) CopyWithin(dst, src, length uint16) {
	if dst == src || length == 0 {
		return
	}
	if dst < src {
		for i := uint16(0); i < length; i++ {
			m.pokeRaw(dst+i, m.peekRaw(src+i))
		}
		return
	}
	for i := length; i > 0; i-- {
		m.pokeRaw(dst+i-1, m.peekRaw(src+i-1))
	}
}
