package mbf

import (
	"fmt"
	"math"
)

// SafeFloat64ToInt16 truncates toward zero and range-checks against a
// 16-bit two's-complement line number or subscript. The same
// explicit-range-check-then-convert discipline as the teacher's
// SafeUint32ToUint16 family, applied to floats instead of unsigned words.
func SafeFloat64ToInt16(v float64) (int16, error) {
	t := math.Trunc(v)
	if t < math.MinInt16 || t > math.MaxInt16 {
		return 0, fmt.Errorf("float64 value %g exceeds int16 range", v)
	}
	return int16(t), nil
}

// SafeFloat64ToUint16 truncates toward zero and range-checks against
// 0..65535, used for PEEK/POKE addresses and array extents.
func SafeFloat64ToUint16(v float64) (uint16, error) {
	t := math.Trunc(v)
	if t < 0 || t > math.MaxUint16 {
		return 0, fmt.Errorf("float64 value %g exceeds uint16 range", v)
	}
	return uint16(t), nil
}

// SafeFloat64ToByte truncates toward zero and range-checks against
// 0..255, used for POKE values and CHR$ arguments.
func SafeFloat64ToByte(v float64) (byte, error) {
	t := math.Trunc(v)
	if t < 0 || t > math.MaxUint8 {
		return 0, fmt.Errorf("float64 value %g exceeds byte range", v)
	}
	return byte(t), nil
}

// SafeFloat64ToInt truncates toward zero and range-checks against the
// int32 range, used for generic integer coercions (ON..GOTO
// selector, loop counters used as plain Go indices).
func SafeFloat64ToInt(v float64) (int, error) {
	t := math.Trunc(v)
	if t < math.MinInt32 || t > math.MaxInt32 {
		return 0, fmt.Errorf("float64 value %g exceeds int range", v)
	}
	return int(t), nil
}

// AsInt16 truncates without range checking, for callers that have already
// validated range (mirrors the teacher's AsInt32: the bit pattern is
// preserved intentionally for display/bitwise paths).
func AsInt16(v float64) int16 {
	return int16(int64(math.Trunc(v)))
}
