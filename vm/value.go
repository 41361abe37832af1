package vm

import "github.com/lookbusy1344/basic6502/mbf"

// Kind tags a Value the way spec §9 mandates: "tagged unions
// Number(MBF5) | String(Descriptor) ... type dispatch ... is a two-arm
// match; never introspect via reflection."
type Kind int

const (
	KindNumber Kind = iota
	KindString
)

// Value is the dynamically-typed result of evaluating a BASIC expression,
// or the payload held by a variable or array element.
type Value struct {
	Kind Kind
	Num  float64 // valid when Kind == KindNumber; the unpacked IEEE double
	Str  string  // valid when Kind == KindString
}

// NumberValue wraps a float64 as a numeric Value.
func NumberValue(v float64) Value { return Value{Kind: KindNumber, Num: v} }

// StringValue wraps a Go string as a string Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// Truth converts a numeric Value to BASIC's truth convention, used by IF
// and the logical operators: zero is false, anything else is true.
func (v Value) Truth() bool { return v.Kind == KindNumber && v.Num != 0 }

// TruthValue returns BASIC's canonical -1/0 numeric truth Value.
func TruthValue(b bool) Value {
	if b {
		return NumberValue(-1)
	}
	return NumberValue(0)
}

// Pack converts a numeric Value to its at-rest MBF5 encoding.
func (v Value) Pack() (mbf.Num, error) {
	return mbf.Pack(v.Num)
}
