// Package mbf implements the Microsoft Binary Format 5-byte floating point
// codec used by the value subsystem: variables and array elements store
// their payload as a Num at rest, while the evaluator's numeric Value
// holds the unpacked float64 used for arithmetic, as §9's design note
// directs.
package mbf

import (
	"math"

	"github.com/lookbusy1344/basic6502/basic"
)

// Num is the 5-byte at-rest representation described in spec §3:
// byte 0 is the biased exponent (bias 128, 0 means the value zero);
// byte 1 is the sign bit plus the top 7 mantissa bits; bytes 2-4 are the
// remaining 24 mantissa bits, most-significant byte first.
type Num [5]byte

// Zero is the canonical MBF5 encoding of 0.
var Zero Num

const (
	bias     = 128
	maxExp   = 255 // biased exponent ceiling before OVERFLOW
	mantBits = 31  // 1 implicit + 31 stored fraction bits
)

// Pack converts an IEEE double to MBF5. Overflow (|v| >= 2^127 in the
// biased-exponent sense) raises basic.ErrOverflow. Underflow (a nonzero v
// too small to represent, exponent <= -128) silently returns Zero, per
// spec §4.4's "underflow silently returns 0".
func Pack(v float64) (Num, error) {
	if v == 0 || math.IsNaN(v) {
		return Zero, nil
	}
	sign := false
	if v < 0 {
		sign = true
		v = -v
	}
	if math.IsInf(v, 0) {
		return Zero, basic.New(basic.ErrOverflow, "")
	}

	frac, exp2 := math.Frexp(v) // v == frac * 2^exp2, 0.5 <= frac < 1
	// Normalise to 1.0 <= mantissa < 2.0 by folding one power of two in.
	mantissa := frac * 2
	exp := exp2 - 1 + bias

	if exp >= maxExp {
		return Zero, basic.New(basic.ErrOverflow, "")
	}
	if exp <= 0 {
		return Zero, nil
	}

	// mantissa is in [1,2); drop the implicit leading 1 and scale the
	// remaining fraction into a 31-bit unsigned integer, rounding to
	// nearest.
	frac31 := mantissa - 1
	scaled := frac31 * float64(uint64(1)<<mantBits)
	bits := uint32(math.Round(scaled))
	if bits>>mantBits != 0 {
		// Rounded up into the next power of two.
		bits = 0
		exp++
		if exp >= maxExp {
			return Zero, basic.New(basic.ErrOverflow, "")
		}
	}

	var n Num
	n[0] = byte(exp)
	n[1] = byte(bits >> 24 & 0x7F)
	if sign {
		n[1] |= 0x80
	}
	n[2] = byte(bits >> 16)
	n[3] = byte(bits >> 8)
	n[4] = byte(bits)
	return n, nil
}

// Unpack converts an MBF5 value back to an IEEE double, losslessly for
// every value Pack can produce.
func Unpack(n Num) float64 {
	if n[0] == 0 {
		return 0
	}
	sign := n[1]&0x80 != 0
	bits := uint32(n[1]&0x7F)<<24 | uint32(n[2])<<16 | uint32(n[3])<<8 | uint32(n[4])
	mantissa := 1 + float64(bits)/float64(uint64(1)<<mantBits)
	v := math.Ldexp(mantissa, int(n[0])-bias)
	if sign {
		v = -v
	}
	return v
}

// IsZero reports whether n encodes the value zero.
func (n Num) IsZero() bool { return n[0] == 0 }

// MustPack is Pack without an error return, for callers that have already
// range-checked (literal constants parsed from source text that the
// tokenizer/evaluator knows are in range).
func MustPack(v float64) Num {
	n, err := Pack(v)
	if err != nil {
		return Zero
	}
	return n
}
