package vm

import (
	"github.com/lookbusy1344/basic6502/basic"
)

// numericElemSize/stringElemSize are the per-element widths inside an
// array's storage block: a full MBF5 value, or a 3-byte string descriptor.
const (
	numericElemSize = 5
	stringElemSize  = 3
)

// defaultExtent is the implicit bound spec §4.5 assigns an array touched
// by a subscript before any DIM: "giving indices 0..10", i.e. 11 slots per
// dimension.
const defaultExtent = 11

// arrayHeaderSize is name(2) + total-size(2) + dim-count(1) before the
// per-dimension extent words.
const arrayHeaderSize = 5

// Arrays is the array table (spec §4.5), occupying ARYTAB..STREND.
type Arrays struct {
	mem *Memory
}

// NewArrays wraps mem's ARYTAB..STREND region as an array table.
func NewArrays(mem *Memory) *Arrays { return &Arrays{mem: mem} }

// find linear-scans the array table for name, returning its header
// address.
func (a *Arrays) find(b1, b2 byte) (uint16, bool) {
	addr := a.mem.Pointer(AddrARYTAB)
	end := a.mem.Pointer(AddrSTREND)
	for addr < end {
		if a.mem.peekRaw(addr) == b1 && a.mem.peekRaw(addr+1) == b2 {
			return addr, true
		}
		total := a.mem.Pointer(addr + 2)
		addr += total
	}
	return 0, false
}

// elemSize returns the per-element width for an array header.
func (a *Arrays) elemSize(header uint16) uint16 {
	if a.mem.peekRaw(header+1)&stringNameBit != 0 {
		return stringElemSize
	}
	return numericElemSize
}

// Dim creates name's array with the given per-dimension extents (each the
// maximum legal index, so a stored extent of maxIndices[i]+1 slots). Returns
// DD (REDIM'D ARRAY) if name is already dimensioned, per spec §4.5.
func (a *Arrays) Dim(name string, isString bool, maxIndices []int) (uint16, error) {
	b1, b2 := EncodeName(name, isString)
	if _, ok := a.find(b1, b2); ok {
		return 0, basic.New(basic.ErrRedimensionedArray, "")
	}
	return a.create(b1, b2, isString, maxIndices)
}

// Ensure returns name's array header, auto-dimensioning it to
// defaultExtent-1 per dimension (using dimCount dimensions, inferred from
// the subscript expression that triggered this) if it does not yet exist.
func (a *Arrays) Ensure(name string, isString bool, dimCount int) (uint16, error) {
	b1, b2 := EncodeName(name, isString)
	if addr, ok := a.find(b1, b2); ok {
		return addr, nil
	}
	maxIndices := make([]int, dimCount)
	for i := range maxIndices {
		maxIndices[i] = defaultExtent - 1
	}
	return a.create(b1, b2, isString, maxIndices)
}

func (a *Arrays) create(b1, b2 byte, isString bool, maxIndices []int) (uint16, error) {
	extents := make([]int, len(maxIndices))
	elems := 1
	for i, m := range maxIndices {
		if m < 0 {
			return 0, basic.New(basic.ErrBadSubscript, "")
		}
		extents[i] = m + 1
		elems *= extents[i]
	}

	elemSize := uint16(numericElemSize)
	if isString {
		elemSize = stringElemSize
	}
	headerLen := uint16(arrayHeaderSize) + uint16(2*len(extents))
	total := headerLen + uint16(elems)*elemSize

	strend := a.mem.Pointer(AddrSTREND)
	fretop := a.mem.Pointer(AddrFRETOP)
	if fretop-strend < total {
		return 0, basic.New(basic.ErrOutOfMemory, "")
	}

	header := strend
	a.mem.pokeRaw(header, b1)
	a.mem.pokeRaw(header+1, b2)
	a.mem.SetPointer(header+2, total)
	a.mem.pokeRaw(header+4, byte(len(extents)))
	off := header + arrayHeaderSize
	for _, e := range extents {
		a.mem.SetPointer(off, uint16(e))
		off += 2
	}
	for p := off; p < header+total; p++ {
		a.mem.pokeRaw(p, 0)
	}

	a.mem.SetPointer(AddrSTREND, strend+total)
	return header, nil
}

// extents reads an array's dimension extents back from its header.
func (a *Arrays) extents(header uint16) []int {
	d := int(a.mem.peekRaw(header + 4))
	out := make([]int, d)
	off := header + arrayHeaderSize
	for i := 0; i < d; i++ {
		out[i] = int(a.mem.Pointer(off))
		off += 2
	}
	return out
}

// ElementAddr computes the address of the element at indices within the
// array at header, using the row-major fold spec §4.5 prescribes:
// offset = (((i1*E2+i2)*E3+i3)...*ED+iD).
func (a *Arrays) ElementAddr(header uint16, indices []int) (uint16, error) {
	extents := a.extents(header)
	if len(indices) != len(extents) {
		return 0, basic.New(basic.ErrBadSubscript, "")
	}
	offset := 0
	for k, idx := range indices {
		if idx < 0 || idx >= extents[k] {
			return 0, basic.New(basic.ErrBadSubscript, "")
		}
		if k == 0 {
			offset = idx
		} else {
			offset = offset*extents[k] + idx
		}
	}
	d := len(extents)
	dataStart := header + arrayHeaderSize + uint16(2*d)
	return dataStart + uint16(offset)*a.elemSize(header), nil
}

// GetNumber reads a numeric element.
func (a *Arrays) GetNumber(elemAddr uint16) float64 { return unpackAt(a.mem, elemAddr) }

// SetNumber writes a numeric element.
func (a *Arrays) SetNumber(elemAddr uint16, f float64) error {
	n, err := packClamped(f)
	if err != nil {
		return err
	}
	for i, b := range n {
		a.mem.pokeRaw(elemAddr+uint16(i), b)
	}
	return nil
}

// GetString reads a string element's descriptor as a Go string.
func (a *Arrays) GetString(elemAddr uint16) string { return readDescriptorString(a.mem, elemAddr) }

// SetStringDescriptor writes a string element's descriptor.
func (a *Arrays) SetStringDescriptor(elemAddr uint16, length byte, ptr uint16) {
	a.mem.pokeRaw(elemAddr, length)
	a.mem.pokeRaw(elemAddr+1, byte(ptr))
	a.mem.pokeRaw(elemAddr+2, byte(ptr>>8))
}
