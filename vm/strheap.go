package vm

import (
	"sort"

	"github.com/lookbusy1344/basic6502/basic"
)

// tempStackDepth is the temporary-string stack's capacity: intermediate
// results an in-flight expression has produced but not yet stored to a
// variable. Spec §4.6 requires "at least 3"; sized generously above that
// so ordinary nested expressions never hit STRING FORMULA TOO COMPLEX.
const tempStackDepth = 8

// Strings is the string heap (spec §4.6): a downward-growing region
// between STREND and MEMSIZ holding the raw bytes descriptors point at,
// plus a small bounded temporary-string stack of not-yet-assigned
// intermediate results, held as Go strings.
type Strings struct {
	mem   *Memory
	vars  *Vars
	array *Arrays

	temp []string // raw bytes of each pushed temporary, newest last
}

// NewStrings wraps mem's FRETOP..MEMSIZ region as a string heap. vars and
// arrays supply the GC's root set.
func NewStrings(mem *Memory, vars *Vars, arrays *Arrays) *Strings {
	return &Strings{mem: mem, vars: vars, array: arrays}
}

// Alloc copies s onto the heap, growing downward from FRETOP, collecting
// first if there is not enough room, per spec §4.6's allocation algorithm.
func (h *Strings) Alloc(s string) (uint16, error) {
	n := uint16(len(s))
	strend := h.mem.Pointer(AddrSTREND)
	fretop := h.mem.Pointer(AddrFRETOP)
	if fretop-strend < n {
		h.Collect()
		fretop = h.mem.Pointer(AddrFRETOP)
		strend = h.mem.Pointer(AddrSTREND)
		if fretop-strend < n {
			return 0, basic.New(basic.ErrOutOfStringSpace, "")
		}
	}
	newTop := fretop - n
	for i := uint16(0); i < n; i++ {
		h.mem.pokeRaw(newTop+i, s[i])
	}
	h.mem.SetPointer(AddrFRETOP, newTop)
	return newTop, nil
}

// Intern allocates s on the heap and returns its descriptor. A string
// longer than 255 bytes is not stored; Intern returns LS (STRING TOO LONG)
// for it.
func (h *Strings) Intern(s string) (byte, uint16, error) {
	if len(s) > 255 {
		return 0, 0, basic.New(basic.ErrStringTooLong, "")
	}
	ptr, err := h.Alloc(s)
	if err != nil {
		return 0, 0, err
	}
	return byte(len(s)), ptr, nil
}

// PushTemp keeps an intermediate string result alive across a GC until the
// expression evaluator either stores it or discards it. Returns
// ST (STRING FORMULA TOO COMPLEX) once the stack is full, per spec §4.6.
func (h *Strings) PushTemp(s string) error {
	if len(h.temp) >= tempStackDepth {
		return basic.New(basic.ErrStringFormulaTooComplex, "")
	}
	h.temp = append(h.temp, s)
	return nil
}

// ResetTemp discards the temporary-string stack, used at the start of each
// statement and by the error handler, per spec §7.
func (h *Strings) ResetTemp() { h.temp = h.temp[:0] }

// descriptorAddr is one (length, pointer) triple's address, gathered
// during mark so compact can rewrite it in place.
type descriptorAddr struct {
	addr uint16
}

// roots collects every heap-resident (pointer >= STREND) string
// descriptor address reachable from the variable table and array table,
// per spec §4.6's mark phase. The temporary-string stack holds plain Go
// strings rather than descriptors and so never dangles across a GC; it is
// not part of this root set.
func (h *Strings) roots() []descriptorAddr {
	var out []descriptorAddr
	strend := h.mem.Pointer(AddrSTREND)

	vartab := h.mem.Pointer(AddrVARTAB)
	arytab := h.mem.Pointer(AddrARYTAB)
	for addr := vartab; addr < arytab; addr += simpleEntrySize {
		if h.mem.peekRaw(addr+1)&stringNameBit == 0 {
			continue
		}
		length, ptr := Descriptor(h.mem, addr+2)
		if length > 0 && ptr >= strend {
			out = append(out, descriptorAddr{addr + 2})
		}
	}

	arrayEnd := h.mem.Pointer(AddrSTREND)
	for addr := arytab; addr < arrayEnd; {
		if h.mem.peekRaw(addr+1)&stringNameBit != 0 {
			d := int(h.mem.peekRaw(addr + 4))
			extStart := addr + arrayHeaderSize
			elems := 1
			for i := 0; i < d; i++ {
				elems *= int(h.mem.Pointer(extStart + uint16(2*i)))
			}
			dataStart := extStart + uint16(2*d)
			for i := 0; i < elems; i++ {
				elemAddr := dataStart + uint16(i)*stringElemSize
				length, ptr := Descriptor(h.mem, elemAddr)
				if length > 0 && ptr >= strend {
					out = append(out, descriptorAddr{elemAddr})
				}
			}
		}
		total := h.mem.Pointer(addr + 2)
		addr += total
	}

	return out
}

// Collect runs the mark-and-compact collector described in spec §4.6:
// gather live descriptors, pack their bytes against MEMSIZ in descending
// address order (oldest allocation first, since allocation always takes
// the next-lower address), and raise FRETOP to the new high-water mark.
func (h *Strings) Collect() {
	roots := h.roots()
	type live struct {
		desc descriptorAddr
		ptr  uint16
		len  byte
	}
	lives := make([]live, 0, len(roots))
	for _, r := range roots {
		length, ptr := Descriptor(h.mem, r.addr)
		lives = append(lives, live{r, ptr, length})
	}
	sort.Slice(lives, func(i, j int) bool { return lives[i].ptr > lives[j].ptr })

	dest := h.mem.Pointer(AddrMEMSIZ)
	for _, l := range lives {
		bytes := h.mem.Bytes(l.ptr, uint16(l.len))
		dest -= uint16(l.len)
		for i, b := range bytes {
			h.mem.pokeRaw(dest+uint16(i), b)
		}
		h.mem.pokeRaw(l.desc.addr, l.len)
		h.mem.pokeRaw(l.desc.addr+1, byte(dest))
		h.mem.pokeRaw(l.desc.addr+2, byte(dest>>8))
	}
	h.mem.SetPointer(AddrFRETOP, dest)
}

// Read materialises the bytes a descriptor points at as a Go string.
func (h *Strings) Read(length byte, ptr uint16) string {
	b := make([]byte, length)
	for i := byte(0); i < length; i++ {
		b[i] = h.mem.peekRaw(ptr + uint16(i))
	}
	return string(b)
}
