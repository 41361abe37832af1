package vm

import (
	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/mbf"
)

// packClamped packs f to MBF5, translating mbf's overflow error into the
// canonical OV BASIC error.
func packClamped(f float64) (mbf.Num, error) {
	n, err := mbf.Pack(f)
	if err != nil {
		return mbf.Zero, basic.New(basic.ErrOverflow, "")
	}
	return n, nil
}

// unpackAt reads 5 MBF5 bytes at addr and returns the unpacked float64.
func unpackAt(mem *Memory, addr uint16) float64 {
	var n mbf.Num
	for i := range n {
		n[i] = mem.peekRaw(addr + uint16(i))
	}
	return mbf.Unpack(n)
}
