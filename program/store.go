// Package program implements the Program Store (spec §4.2): an in-memory
// linked list of tokenized lines held inside the simulated 64 KiB address
// space, editable in place. It is grounded on the teacher's
// encoder package, whose job of emitting structured byte records and then
// repairing relocatable references in a fix-up pass is directly analogous
// to repairing every line's link field after an insert or delete shifts
// everything after it.
package program

import (
	"sort"

	"github.com/lookbusy1344/basic6502/basic"
)

// MaxLineNumber is the spec §3 ceiling for a program line number.
const MaxLineNumber = 63999

// LineHeaderSize is the link(2)+line-number(2) prefix before a line's
// token bytes.
const LineHeaderSize = 4

// Store owns the program region of the address space: bytes
// [base, base+len) starting at TXTTAB and ending just before VARTAB. It
// does not own the byte slice; it reads and writes through the Memory
// interface so PEEK/POKE and the variable table see the same bytes.
type Store struct {
	mem   Memory
	base  uint16 // TXTTAB
	limit uint16 // hard ceiling a line insert may not cross

	// index caches line-number -> address, invalidated on every mutation,
	// mirroring the spec's permitted optimisation ("Implementations MAY
	// keep an auxiliary sorted cache from line number to address").
	index     map[int]uint16
	indexOK   bool
	end       uint16 // address of the line-end (== current VARTAB)
}

// Memory is the subset of the 64 KiB address space the program store
// needs. vm.Memory satisfies it.
type Memory interface {
	PeekByte(addr uint16) byte
	PokeByte(addr uint16, v byte)
}

// New creates a Store whose first line will be written at base. limit is
// the fixed address the program region must never grow past.
func New(mem Memory, base, limit uint16) *Store {
	s := &Store{mem: mem, base: base, limit: limit, end: base}
	s.writeEnd()
	return s
}

// End returns the address just past the final line's trailing End byte,
// where the 0x0000 end-of-program marker is written — the value VARTAB
// must be kept equal to.
func (s *Store) End() uint16 { return s.end }

// Reset empties the program store back to a single end-of-program marker,
// used by NEW.
func (s *Store) Reset() {
	s.end = s.base
	s.index = nil
	s.indexOK = false
	s.writeEnd()
}

func (s *Store) writeEnd() {
	s.mem.PokeByte(s.end, 0)
	s.mem.PokeByte(s.end+1, 0)
}

func (s *Store) readUint16(addr uint16) uint16 {
	return uint16(s.mem.PeekByte(addr)) | uint16(s.mem.PeekByte(addr+1))<<8
}

func (s *Store) writeUint16(addr uint16, v uint16) {
	s.mem.PokeByte(addr, byte(v))
	s.mem.PokeByte(addr+1, byte(v>>8))
}

// lineNumberAt reads the 2-byte line number field of the line header at
// addr (addr points at the link field, not the line number).
func (s *Store) lineNumberAt(addr uint16) int {
	return int(s.readUint16(addr + 2))
}

func (s *Store) linkAt(addr uint16) uint16 {
	return s.readUint16(addr)
}

// FirstLine returns the address of the first stored line, or (0, false) if
// the program is empty.
func (s *Store) FirstLine() (uint16, bool) {
	if s.base == s.end {
		return 0, false
	}
	return s.base, true
}

// NextLine returns the address of the line following addr, or (0, false)
// at end-of-program.
func (s *Store) NextLine(addr uint16) (uint16, bool) {
	link := s.linkAt(addr)
	if link == 0 {
		return 0, false
	}
	return link, true
}

// LineNumber returns the line number stored at the header address addr.
func (s *Store) LineNumber(addr uint16) int { return s.lineNumberAt(addr) }

// Tokens returns the token bytes (without link/line-number header, without
// the trailing End byte) stored at header address addr.
func (s *Store) Tokens(addr uint16) []byte {
	start := addr + LineHeaderSize
	i := start
	for s.mem.PeekByte(i) != 0 {
		i++
	}
	out := make([]byte, 0, i-start)
	for p := start; p < i; p++ {
		out = append(out, s.mem.PeekByte(p))
	}
	return out
}

// FindLine walks the linked list looking for lineNo, refreshing the
// address index as it goes. The index is an address cache only; the walk
// itself remains the source of truth, matching the spec's requirement
// that it be invalidated on every mutation.
func (s *Store) FindLine(lineNo int) (uint16, bool) {
	if s.indexOK {
		if addr, ok := s.index[lineNo]; ok {
			return addr, true
		}
	}
	addr, ok := s.FirstLine()
	idx := make(map[int]uint16)
	for ok {
		ln := s.lineNumberAt(addr)
		idx[ln] = addr
		if ln == lineNo {
			s.index = idx
			s.indexOK = true
			return addr, true
		}
		addr, ok = s.NextLine(addr)
	}
	s.index = idx
	s.indexOK = true
	return 0, false
}

// FindFirstAtOrAfter returns the address of the first stored line whose
// number is >= lineNo, used by RESTORE n and RUN n.
func (s *Store) FindFirstAtOrAfter(lineNo int) (uint16, bool) {
	addr, ok := s.FirstLine()
	for ok {
		if s.lineNumberAt(addr) >= lineNo {
			return addr, true
		}
		addr, ok = s.NextLine(addr)
	}
	return 0, false
}

// Insert stores tokens (without header, without trailing End — Insert
// appends its own) under lineNo, replacing any existing line with that
// number first. An empty tokens slice deletes the line, per spec §4.2.
// Insert and Delete share this one entry point, exactly as the spec
// specifies ("If tokens is empty, finish (the line is deleted)").
func (s *Store) Insert(lineNo int, tokens []byte) error {
	if lineNo < 0 || lineNo > MaxLineNumber {
		return basic.New(basic.ErrIllegalQuantity, "")
	}

	if existing, ok := s.FindLine(lineNo); ok {
		s.removeAt(existing)
	}
	if len(tokens) == 0 {
		return nil
	}

	newSize := uint16(LineHeaderSize + len(tokens) + 1)
	if s.end > s.limit || s.limit-s.end < newSize {
		return basic.New(basic.ErrOutOfMemory, "")
	}

	insertAt, found := s.FindFirstAtOrAfter(lineNo)
	if !found {
		insertAt = s.end
	}

	// Shift every byte from insertAt..end up by newSize to make room,
	// highest address first so the copy never overwrites source bytes it
	// still needs — the same "rewrite every subsequent link" discipline
	// the teacher's encoder fix-up pass applies to relocated branch
	// targets after a size change.
	for addr := s.end; addr > insertAt; addr-- {
		s.mem.PokeByte(addr-1+newSize, s.mem.PeekByte(addr-1))
	}

	s.writeUint16(insertAt, 0) // link patched below
	s.writeUint16(insertAt+2, uint16(lineNo))
	copy1 := insertAt + LineHeaderSize
	for _, b := range tokens {
		s.mem.PokeByte(copy1, b)
		copy1++
	}
	s.mem.PokeByte(copy1, 0)

	s.end += newSize
	s.repairLinks()
	s.writeEnd()
	s.index = nil
	s.indexOK = false
	return nil
}

// Delete removes lineNo if present; deleting an absent line is a no-op,
// matching BASIC's tolerant immediate-mode line editor.
func (s *Store) Delete(lineNo int) {
	if addr, ok := s.FindLine(lineNo); ok {
		s.removeAt(addr)
	}
}

// removeAt splices out the line at addr and shifts everything after it
// down, repairing links afterward.
func (s *Store) removeAt(addr uint16) {
	next, ok := s.NextLine(addr)
	var size uint16
	if ok {
		size = next - addr
	} else {
		size = s.end - addr
	}
	for p := addr; p+size < s.end; p++ {
		s.mem.PokeByte(p, s.mem.PeekByte(p+size))
	}
	s.end -= size
	s.repairLinks()
	s.writeEnd()
	s.index = nil
	s.indexOK = false
}

// repairLinks walks the whole chain rewriting every link field to the
// address of the following line's first byte, per spec §4.2: "Updating
// link fields is mandatory because every link is an absolute offset and
// all subsequent lines have moved."
func (s *Store) repairLinks() {
	addr, ok := s.FirstLine()
	for ok {
		size := uint16(LineHeaderSize)
		for s.mem.PeekByte(addr+size) != 0 {
			size++
		}
		size++ // trailing End byte
		next := addr + size
		if next >= s.end {
			s.writeUint16(addr, 0)
			break
		}
		s.writeUint16(addr, next)
		addr = next
	}
}

// Walk returns every stored line's (number, header address) in ascending
// order — the supplemented iterator SPEC_FULL.md §4.2 names for LIST,
// coverage reporting, and cross-reference.
func (s *Store) Walk() []LineRef {
	var out []LineRef
	addr, ok := s.FirstLine()
	for ok {
		out = append(out, LineRef{Number: s.lineNumberAt(addr), Addr: addr})
		addr, ok = s.NextLine(addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// LineRef is a (line number, header address) pair returned by Walk.
type LineRef struct {
	Number int
	Addr   uint16
}
