package eval

import (
	"math"
	"strings"

	"github.com/lookbusy1344/basic6502/basic"
)

// bothNumeric requires both values be numbers, per spec §4.4: "Operators
// are strictly typed; mixing types raises TYPE MISMATCH."
func bothNumeric(a, b Value) (float64, float64, error) {
	if a.IsString || b.IsString {
		return 0, 0, basic.New(basic.ErrTypeMismatch, "")
	}
	return a.Num, b.Num, nil
}

// addValues implements binary +: numeric addition, or string
// concatenation when both operands are strings.
func addValues(a, b Value) (Value, error) {
	if a.IsString != b.IsString {
		return Value{}, basic.New(basic.ErrTypeMismatch, "")
	}
	if a.IsString {
		s := a.Str + b.Str
		if len(s) > 255 {
			return Value{}, basic.New(basic.ErrStringTooLong, "")
		}
		return StringValue(s), nil
	}
	sum := a.Num + b.Num
	if err := checkFinite(sum); err != nil {
		return Value{}, err
	}
	return NumberValue(sum), nil
}

func subValues(a, b Value) (Value, error) {
	x, y, err := bothNumeric(a, b)
	if err != nil {
		return Value{}, err
	}
	diff := x - y
	if err := checkFinite(diff); err != nil {
		return Value{}, err
	}
	return NumberValue(diff), nil
}

// compareValues implements spec §4.4's relational row: both operands must
// share a type, the comparison is numeric or lexicographic-by-byte for
// strings, and the result is always numeric truth (-1/0).
func compareValues(a, b Value, rel RelOp) (Value, error) {
	if a.IsString != b.IsString {
		return Value{}, basic.New(basic.ErrTypeMismatch, "")
	}
	var cmp int
	if a.IsString {
		cmp = strings.Compare(a.Str, b.Str)
	} else {
		switch {
		case a.Num < b.Num:
			cmp = -1
		case a.Num > b.Num:
			cmp = 1
		}
	}
	var result bool
	switch rel {
	case RelEQ:
		result = cmp == 0
	case RelNE:
		result = cmp != 0
	case RelLT:
		result = cmp < 0
	case RelLE:
		result = cmp <= 0
	case RelGT:
		result = cmp > 0
	case RelGE:
		result = cmp >= 0
	}
	return TruthValue(result), nil
}

// power implements `^`, including spec §4.4's EXP(y*LOG(x)) rule for a
// non-integer exponent and its negative-base restriction.
func power(base, exp Value) (Value, error) {
	x, y, err := bothNumeric(base, exp)
	if err != nil {
		return Value{}, err
	}
	if y == math.Trunc(y) {
		r := math.Pow(x, y)
		if err := checkFinite(r); err != nil {
			return Value{}, err
		}
		return NumberValue(r), nil
	}
	if x < 0 {
		return Value{}, basic.New(basic.ErrIllegalQuantity, "")
	}
	if x == 0 {
		if y > 0 {
			return NumberValue(0), nil
		}
		return Value{}, basic.New(basic.ErrDivisionByZero, "")
	}
	r := math.Exp(y * math.Log(x))
	if err := checkFinite(r); err != nil {
		return Value{}, err
	}
	return NumberValue(r), nil
}

// toInt16 coerces a numeric Value to a 16-bit two's-complement integer for
// AND/OR/NOT, per spec §4.4.
func toInt16(v Value) (int16, error) {
	if v.IsString {
		return 0, basic.New(basic.ErrTypeMismatch, "")
	}
	t := int64(math.Trunc(v.Num))
	return int16(uint16(t)), nil
}

func bitwiseCombine(a, b Value, f func(x, y int16) int16) (Value, error) {
	x, err := toInt16(a)
	if err != nil {
		return Value{}, err
	}
	y, err := toInt16(b)
	if err != nil {
		return Value{}, err
	}
	return NumberValue(float64(f(x, y))), nil
}

// toSubscript coerces a numeric Value to a non-negative int, used for
// array subscripts, TAB/SPC widths, and LEFT$/RIGHT$/MID$ counts and
// positions.
func toSubscript(v Value) (int, error) {
	if v.IsString {
		return 0, basic.New(basic.ErrTypeMismatch, "")
	}
	t := math.Trunc(v.Num)
	if t < 0 || t > math.MaxInt32 {
		return 0, basic.New(basic.ErrBadSubscript, "")
	}
	return int(t), nil
}

// toAddress coerces a numeric Value to a 16-bit address, used by PEEK.
func toAddress(v Value) (uint16, error) {
	if v.IsString {
		return 0, basic.New(basic.ErrTypeMismatch, "")
	}
	t := math.Trunc(v.Num)
	if t < 0 || t > math.MaxUint16 {
		return 0, basic.New(basic.ErrIllegalQuantity, "")
	}
	return uint16(t), nil
}

// toByte coerces a numeric Value to a single byte, used by CHR$.
func toByte(v Value) (byte, error) {
	if v.IsString {
		return 0, basic.New(basic.ErrTypeMismatch, "")
	}
	t := math.Trunc(v.Num)
	if t < 0 || t > 255 {
		return 0, basic.New(basic.ErrIllegalQuantity, "")
	}
	return byte(t), nil
}
