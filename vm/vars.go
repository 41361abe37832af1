package vm

import (
	"strings"

	"github.com/lookbusy1344/basic6502/basic"
)

// simpleEntrySize is the on-disk size of one simple-variable table entry:
// 2 name bytes followed by a 5-byte payload. Spec §3 describes a 4-byte
// payload, but a numeric payload must hold a full MBF5 value (5 bytes, per
// spec §3's own float encoding), so the entry is widened to 7 bytes here;
// this is purely an internal layout choice the spec explicitly leaves
// unconstrained ("the core does not depend on the exact addresses of its
// own internal structures"). Recorded as a resolved inconsistency in
// DESIGN.md. A string payload uses only the first 3 of the 5 payload bytes
// (a descriptor: length + 2-byte heap pointer); the remaining 2 are unused
// padding, mirroring how real Microsoft BASIC pads string slots to the
// same width as numeric ones.
const simpleEntrySize = 2 + 5

// stringNameBit marks the second name byte of a simple-variable entry as
// holding a string (as opposed to numeric) variable, the same way the
// trailing $ on an identifier does in source text.
const stringNameBit = 0x80

// Vars is the simple-variable table (spec §4.5), stored directly in the
// address space between VARTAB and ARYTAB so PEEK can observe it like any
// other region.
type Vars struct {
	mem *Memory
}

// NewVars wraps mem's VARTAB..ARYTAB region as a simple-variable table.
func NewVars(mem *Memory) *Vars { return &Vars{mem: mem} }

// EncodeName canonicalises a BASIC identifier into its 2-byte table key:
// uppercase, first two characters only, second byte's high bit set for a
// string name. Matches spec §3's "two significant characters" rule.
func EncodeName(name string, isString bool) (byte, byte) {
	up := strings.ToUpper(name)
	var b1, b2 byte
	if len(up) > 0 {
		b1 = up[0]
	}
	if len(up) > 1 {
		b2 = up[1]
	}
	if isString {
		b2 |= stringNameBit
	}
	return b1, b2
}

// find linear-scans VARTAB..ARYTAB for a matching name, per spec §4.5's
// "linear scan of the simple-variable table, comparing the two name
// bytes".
func (v *Vars) find(b1, b2 byte) (uint16, bool) {
	start := v.mem.Pointer(AddrVARTAB)
	end := v.mem.Pointer(AddrARYTAB)
	for addr := start; addr < end; addr += simpleEntrySize {
		if v.mem.peekRaw(addr) == b1 && v.mem.peekRaw(addr+1) == b2 {
			return addr, true
		}
	}
	return 0, false
}

// Lookup returns the address of name's entry, creating it (zero-valued or
// empty-string) if it does not already exist. Creation advances VARTAB's
// companion boundaries by shifting the array table and everything after
// it upward, exactly as spec §4.5 prescribes: "allocate at the end by
// advancing [the region], which requires shifting the array table and
// string heap boundary".
func (v *Vars) Lookup(name string, isString bool) (uint16, error) {
	b1, b2 := EncodeName(name, isString)
	if addr, ok := v.find(b1, b2); ok {
		return addr, nil
	}

	arytab := v.mem.Pointer(AddrARYTAB)
	strend := v.mem.Pointer(AddrSTREND)
	fretop := v.mem.Pointer(AddrFRETOP)

	if uint16(fretop-strend) < simpleEntrySize {
		return 0, basic.New(basic.ErrOutOfMemory, "")
	}

	regionLen := strend - arytab
	v.mem.CopyWithin(arytab+simpleEntrySize, arytab, regionLen)

	newAddr := arytab
	v.mem.pokeRaw(newAddr, b1)
	v.mem.pokeRaw(newAddr+1, b2)
	for i := uint16(2); i < simpleEntrySize; i++ {
		v.mem.pokeRaw(newAddr+i, 0)
	}

	v.mem.SetPointer(AddrARYTAB, arytab+simpleEntrySize)
	v.mem.SetPointer(AddrSTREND, strend+simpleEntrySize)
	return newAddr, nil
}

// VarEntry is one row of a simple-variable table snapshot, as surfaced to a
// watch view: the name as it was truncated to BASIC's two-significant-
// character rule (with a trailing '$' restored for a string variable) and
// its current value.
type VarEntry struct {
	Name  string
	Value Value
}

// All returns every simple variable currently allocated, in table order
// (oldest first), for a host's variable-watch display.
func (v *Vars) All() []VarEntry {
	start := v.mem.Pointer(AddrVARTAB)
	end := v.mem.Pointer(AddrARYTAB)
	var out []VarEntry
	for addr := start; addr < end; addr += simpleEntrySize {
		b1 := v.mem.peekRaw(addr)
		b2raw := v.mem.peekRaw(addr + 1)
		isString := b2raw&stringNameBit != 0
		b2 := b2raw &^ stringNameBit
		name := string(b1)
		if b2 != 0 {
			name += string(b2)
		}
		if isString {
			name += "$"
		}
		out = append(out, VarEntry{Name: name, Value: v.Get(addr)})
	}
	return out
}

// Get reads the Value stored at a simple-variable entry address.
func (v *Vars) Get(addr uint16) Value {
	if v.mem.peekRaw(addr+1)&stringNameBit != 0 {
		return StringValue(readDescriptorString(v.mem, addr+2))
	}
	return NumberValue(unpackAt(v.mem, addr+2))
}

// SetNumber packs and stores a numeric value at a simple-variable entry.
func (v *Vars) SetNumber(addr uint16, f float64) error {
	n, err := packClamped(f)
	if err != nil {
		return err
	}
	for i, b := range n {
		v.mem.pokeRaw(addr+2+uint16(i), b)
	}
	return nil
}

// SetStringDescriptor stores a descriptor (length, heap pointer) at a
// simple-variable entry; the string bytes themselves already live on the
// heap at ptr.
func (v *Vars) SetStringDescriptor(addr uint16, length byte, ptr uint16) {
	v.mem.pokeRaw(addr+2, length)
	v.mem.pokeRaw(addr+3, byte(ptr))
	v.mem.pokeRaw(addr+4, byte(ptr>>8))
}

// Descriptor reads back the (length, pointer) pair stored at a
// string-variable entry.
func Descriptor(mem *Memory, addr uint16) (byte, uint16) {
	length := mem.peekRaw(addr)
	ptr := uint16(mem.peekRaw(addr+1)) | uint16(mem.peekRaw(addr+2))<<8
	return length, ptr
}

func readDescriptorString(mem *Memory, descAddr uint16) string {
	length, ptr := Descriptor(mem, descAddr)
	b := make([]byte, length)
	for i := byte(0); i < length; i++ {
		b[i] = mem.peekRaw(ptr + uint16(i))
	}
	return string(b)
}
