package token

import "strings"

// Detokenize expands a crunched byte sequence (as stored in a program
// line, without the link/line-number header and without the trailing End
// byte) back to displayable source text, per spec §4.1: literal bytes pass
// through, keyword tokens expand to their canonical upper-case spelling.
func Detokenize(tokens []byte) string {
	var sb strings.Builder
	inQuote := false
	for _, b := range tokens {
		if b == End {
			break
		}
		if b == '"' {
			inQuote = !inQuote
			sb.WriteByte(b)
			continue
		}
		if inQuote || b < 0x80 {
			sb.WriteByte(b)
			continue
		}
		if s, ok := Spelling(b); ok {
			sb.WriteString(s)
			continue
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

// RoundTrip tokenizes then detokenizes then re-tokenizes src, returning the
// second tokenization. Spec §8 requires this to equal the first
// tokenization modulo whitespace canonicalisation; this helper is used by
// the tokenizer's own tests.
func RoundTrip(src string) ([]byte, error) {
	first, err := Crunch(src)
	if err != nil {
		return nil, err
	}
	return Crunch(Detokenize(first))
}
