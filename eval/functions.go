package eval

import (
	"math"
	"strconv"
	"strings"

	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/token"
)

// callBuiltin evaluates a builtin numeric or string function whose token
// has already been consumed; p is positioned at the opening '('.
func (p *Parser) callBuiltin(op token.Byte) (Value, error) {
	switch op {
	case token.LEFTDOLLAR:
		return p.callLeftRight(true)
	case token.RIGHTDOLLAR:
		return p.callLeftRight(false)
	case token.MIDDOLLAR:
		return p.callMid()
	}

	args, err := p.parseArgList()
	if err != nil {
		return Value{}, err
	}
	if len(args) != 1 {
		return Value{}, basic.New(basic.ErrSyntax, "")
	}
	a := args[0]

	switch op {
	case token.SGN:
		return numericFn(a, func(x float64) (float64, error) {
			switch {
			case x > 0:
				return 1, nil
			case x < 0:
				return -1, nil
			default:
				return 0, nil
			}
		})
	case token.INT:
		return numericFn(a, func(x float64) (float64, error) { return math.Floor(x), nil })
	case token.ABS:
		return numericFn(a, func(x float64) (float64, error) { return math.Abs(x), nil })
	case token.SQR:
		return numericFn(a, func(x float64) (float64, error) {
			if x < 0 {
				return 0, basic.New(basic.ErrIllegalQuantity, "")
			}
			return math.Sqrt(x), nil
		})
	case token.LOG:
		return numericFn(a, func(x float64) (float64, error) {
			if x <= 0 {
				return 0, basic.New(basic.ErrIllegalQuantity, "")
			}
			return math.Log(x), nil
		})
	case token.EXP:
		return numericFn(a, func(x float64) (float64, error) {
			r := math.Exp(x)
			return r, checkFinite(r)
		})
	case token.SIN:
		return numericFn(a, func(x float64) (float64, error) { return math.Sin(x), nil })
	case token.COS:
		return numericFn(a, func(x float64) (float64, error) { return math.Cos(x), nil })
	case token.TAN:
		return numericFn(a, func(x float64) (float64, error) { return math.Tan(x), nil })
	case token.ATN:
		return numericFn(a, func(x float64) (float64, error) { return math.Atan(x), nil })
	case token.RND:
		if a.IsString {
			return Value{}, basic.New(basic.ErrTypeMismatch, "")
		}
		return NumberValue(p.m.Rnd(a.Num)), nil
	case token.FRE:
		return NumberValue(p.m.Fre()), nil
	case token.POS:
		return NumberValue(float64(p.m.OutputColumn())), nil
	case token.USR:
		if a.IsString {
			return Value{}, basic.New(basic.ErrTypeMismatch, "")
		}
		r, err := p.m.Usr(a.Num)
		return NumberValue(r), err
	case token.PEEK:
		addr, err := toAddress(a)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(float64(p.m.Peek(addr))), nil
	case token.LEN:
		if !a.IsString {
			return Value{}, basic.New(basic.ErrTypeMismatch, "")
		}
		return NumberValue(float64(len(a.Str))), nil
	case token.VAL:
		if !a.IsString {
			return Value{}, basic.New(basic.ErrTypeMismatch, "")
		}
		return NumberValue(parseLeadingNumber(a.Str)), nil
	case token.ASC:
		if !a.IsString {
			return Value{}, basic.New(basic.ErrTypeMismatch, "")
		}
		if a.Str == "" {
			return Value{}, basic.New(basic.ErrIllegalQuantity, "")
		}
		return NumberValue(float64(a.Str[0])), nil
	case token.STRDOLLAR:
		if a.IsString {
			return Value{}, basic.New(basic.ErrTypeMismatch, "")
		}
		return StringValue(FormatNumber(a.Num)), nil
	case token.CHRDOLLAR:
		b, err := toByte(a)
		if err != nil {
			return Value{}, err
		}
		return StringValue(string([]byte{b})), nil
	}
	return Value{}, basic.New(basic.ErrSyntax, "")
}

func numericFn(a Value, f func(float64) (float64, error)) (Value, error) {
	if a.IsString {
		return Value{}, basic.New(basic.ErrTypeMismatch, "")
	}
	r, err := f(a.Num)
	if err != nil {
		return Value{}, err
	}
	if err := checkFinite(r); err != nil {
		return Value{}, err
	}
	return NumberValue(r), nil
}

func (p *Parser) callLeftRight(left bool) (Value, error) {
	args, err := p.parseArgList()
	if err != nil {
		return Value{}, err
	}
	if len(args) != 2 || !args[0].IsString {
		return Value{}, basic.New(basic.ErrTypeMismatch, "")
	}
	n, err := toSubscript(args[1])
	if err != nil {
		return Value{}, err
	}
	s := args[0].Str
	if n >= len(s) {
		return StringValue(s), nil
	}
	if left {
		return StringValue(s[:n]), nil
	}
	return StringValue(s[len(s)-n:]), nil
}

func (p *Parser) callMid() (Value, error) {
	args, err := p.parseArgList()
	if err != nil {
		return Value{}, err
	}
	if len(args) < 2 || len(args) > 3 || !args[0].IsString {
		return Value{}, basic.New(basic.ErrTypeMismatch, "")
	}
	s := args[0].Str
	start, err := toSubscript(args[1])
	if err != nil {
		return Value{}, err
	}
	if start < 1 {
		return Value{}, basic.New(basic.ErrIllegalQuantity, "")
	}
	if start > len(s) {
		return StringValue(""), nil
	}
	length := len(s) - (start - 1)
	if len(args) == 3 {
		n, err := toSubscript(args[2])
		if err != nil {
			return Value{}, err
		}
		if n < length {
			length = n
		}
	}
	return StringValue(s[start-1 : start-1+length]), nil
}

// parseArgList parses a parenthesised, comma-separated argument list.
func (p *Parser) parseArgList() ([]Value, error) {
	if p.cur().Kind != TKLParen {
		return nil, basic.New(basic.ErrSyntax, "")
	}
	p.advance()
	var args []Value
	for {
		v, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		if p.cur().Kind == TKComma {
			p.advance()
			continue
		}
		break
	}
	if p.cur().Kind != TKRParen {
		return nil, basic.New(basic.ErrSyntax, "")
	}
	p.advance()
	return args, nil
}

// parseLeadingNumber implements VAL's tolerant parse: skip leading spaces,
// read the longest valid numeric prefix, default to 0 if none exists.
func parseLeadingNumber(s string) float64 {
	s = strings.TrimLeft(s, " ")
	end := 0
	seenDigit := false
	seenDot := false
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' && !seenDot:
			seenDot = true
		case (c == '+' || c == '-') && end == 0:
		case (c == 'E' || c == 'e') && seenDigit:
		case (c == '+' || c == '-') && end > 0 && (s[end-1] == 'E' || s[end-1] == 'e'):
		default:
			goto done
		}
		end++
	}
done:
	if !seenDigit {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

// FormatNumber renders a numeric Value the way PRINT and STR$ do: a
// leading space in place of a sign for non-negative values (FOUT's
// sign-space convention), integers without a trailing ".0", and
// otherwise Go's shortest round-tripping decimal form.
func FormatNumber(f float64) string {
	var sign string
	if f < 0 {
		sign = "-"
		f = -f
	} else {
		sign = " "
	}
	var body string
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		body = strconv.FormatFloat(f, 'f', -1, 64)
	} else {
		body = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return sign + body
}
