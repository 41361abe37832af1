// Package eval implements the expression evaluator ("FRMEVL"): a
// tokenize-then-precedence-climb engine over BASIC's typed Number|String
// value, resolved against live variable/array/memory state through the
// Machine interface. It mirrors the shape of the teacher's own
// watch-expression evaluator — a small lexer feeding a recursive-descent,
// precedence-climbing parser that evaluates as it goes rather than
// building a separate AST — substituting BASIC's grammar and typed
// arithmetic for the teacher's register/memory expression language.
package eval

import (
	"strconv"
	"strings"

	"github.com/lookbusy1344/basic6502/token"
)

// TokKind classifies one lexical token drawn from a crunched token stream.
type TokKind int

const (
	TKEnd TokKind = iota
	TKNumber
	TKString
	TKIdent
	TKLParen
	TKRParen
	TKComma
	TKColon
	TKSemicolon
	TKOp      // + - * / ^ AND OR NOT, by token.Byte
	TKRel     // composed relational operator: = <> < <= > >=
	TKFunc    // a builtin numeric/string function token
	TKFn      // the FN keyword, introducing a user-defined function call
	TKTab     // TAB(
	TKSpc     // SPC(
	TKKeyword // any other reserved word (THEN, TO, STEP, GOTO, ...): not
	// part of the expression grammar, signals where Eval should stop
)

// RelOp identifies which relational comparison a TKRel token spells.
type RelOp int

const (
	RelEQ RelOp = iota
	RelNE
	RelLT
	RelLE
	RelGT
	RelGE
)

// Tok is one lexical token, together with the byte offset in the source
// slice where it began — the dispatcher resumes scanning from the offset
// of the first token Eval did not consume.
type Tok struct {
	Kind TokKind
	Num  float64
	Str  string
	Name string // TKIdent: variable/array name, including trailing '$' if string-typed
	Op   token.Byte
	Rel  RelOp
	Pos  int
}

var funcTokens = map[token.Byte]bool{
	token.SGN: true, token.INT: true, token.ABS: true, token.USR: true,
	token.FRE: true, token.POS: true, token.SQR: true, token.RND: true,
	token.LOG: true, token.EXP: true, token.COS: true, token.SIN: true,
	token.TAN: true, token.ATN: true, token.PEEK: true, token.LEN: true,
	token.VAL: true, token.ASC: true, token.STRDOLLAR: true,
	token.CHRDOLLAR: true, token.LEFTDOLLAR: true, token.RIGHTDOLLAR: true,
	token.MIDDOLLAR: true,
}

var opTokens = map[token.Byte]bool{
	token.OpPlus: true, token.OpMinus: true, token.OpStar: true,
	token.OpSlash: true, token.OpCaret: true, token.AND: true,
	token.OR: true, token.NOT: true,
}

// Lex scans src (a statement's remaining token bytes, as returned by
// program.Store.Tokens or token.Crunch) into a flat token list terminated
// by a TKEnd.
func Lex(src []byte) []Tok {
	var out []Tok
	i := 0
	n := len(src)

	for i < n {
		c := src[i]
		switch {
		case c == ' ':
			i++
		case c == token.End:
			out = append(out, Tok{Kind: TKEnd, Pos: i})
			return out
		case c == '"':
			start := i
			i++
			var sb strings.Builder
			for i < n && src[i] != '"' && src[i] != token.End {
				sb.WriteByte(src[i])
				i++
			}
			if i < n && src[i] == '"' {
				i++
			}
			out = append(out, Tok{Kind: TKString, Str: sb.String(), Pos: start})
		case c == '(':
			out = append(out, Tok{Kind: TKLParen, Pos: i})
			i++
		case c == ')':
			out = append(out, Tok{Kind: TKRParen, Pos: i})
			i++
		case c == ',':
			out = append(out, Tok{Kind: TKComma, Pos: i})
			i++
		case c == ':':
			out = append(out, Tok{Kind: TKColon, Pos: i})
			i++
		case c == ';':
			out = append(out, Tok{Kind: TKSemicolon, Pos: i})
			i++
		case isDigit(c) || c == '.':
			tok, next := lexNumber(src, i)
			out = append(out, tok)
			i = next
		case isLetter(c):
			tok, next := lexIdent(src, i)
			out = append(out, tok)
			i = next
		case c >= 0x80:
			tok, next := lexReserved(src, i)
			out = append(out, tok)
			i = next
		default:
			// Stray punctuation CRUNCH let through unrecognised; the
			// parser will surface it as a syntax error.
			out = append(out, Tok{Kind: TKKeyword, Op: c, Pos: i})
			i++
		}
	}
	out = append(out, Tok{Kind: TKEnd, Pos: n})
	return out
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// lexNumber scans a numeric literal, including an 'E'/'e' exponent whose
// sign, if present, was already folded into an OpPlus/OpMinus token by
// CRUNCH's keyword pass — so the scan must look one reserved token ahead
// rather than at a raw byte.
func lexNumber(src []byte, i int) (Tok, int) {
	start := i
	n := len(src)
	for i < n && isDigit(src[i]) {
		i++
	}
	if i < n && src[i] == '.' {
		i++
		for i < n && isDigit(src[i]) {
			i++
		}
	}
	text := string(src[start:i])
	if i < n && (src[i] == 'E' || src[i] == 'e') {
		save := i
		j := i + 1
		expText := "E"
		if j < n && (src[j] == token.OpPlus || src[j] == token.OpMinus) {
			if src[j] == token.OpMinus {
				expText += "-"
			} else {
				expText += "+"
			}
			j++
		}
		digitsStart := j
		for j < n && isDigit(src[j]) {
			j++
		}
		if j > digitsStart {
			text += expText + string(src[digitsStart:j])
			i = j
		} else {
			i = save
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		f = 0
	}
	return Tok{Kind: TKNumber, Num: f, Pos: start}, i
}

func lexIdent(src []byte, i int) (Tok, int) {
	start := i
	n := len(src)
	for i < n && (isLetter(src[i]) || isDigit(src[i])) {
		i++
	}
	if i < n && src[i] == '$' {
		i++
	}
	return Tok{Kind: TKIdent, Name: strings.ToUpper(string(src[start:i])), Pos: start}, i
}

// lexReserved classifies one reserved-word token byte, folding adjacent
// '<','>','=' tokens into a single composed relational operator per spec
// §4.4's table (CRUNCH tokenizes each comparison character separately;
// the grammar treats <=, >=, =<, =>, <> as one operator).
func lexReserved(src []byte, i int) (Tok, int) {
	b := src[i]
	pos := i
	i++

	if b == token.OpEQ || b == token.OpLT || b == token.OpGT {
		rel, consumed := composeRelational(b, src, i)
		return Tok{Kind: TKRel, Rel: rel, Pos: pos}, i + consumed
	}
	switch {
	case opTokens[b]:
		return Tok{Kind: TKOp, Op: b, Pos: pos}, i
	case funcTokens[b]:
		return Tok{Kind: TKFunc, Op: b, Pos: pos}, i
	case b == token.FN:
		return Tok{Kind: TKFn, Pos: pos}, i
	case b == token.TABPAREN:
		return Tok{Kind: TKTab, Pos: pos}, i
	case b == token.SPCPAREN:
		return Tok{Kind: TKSpc, Pos: pos}, i
	default:
		return Tok{Kind: TKKeyword, Op: b, Pos: pos}, i
	}
}

func composeRelational(first token.Byte, src []byte, i int) (RelOp, int) {
	j := i
	for j < len(src) && src[j] == ' ' {
		j++
	}
	var second token.Byte
	if j < len(src) {
		second = src[j]
	}
	consumed := j - i
	switch first {
	case token.OpEQ:
		switch second {
		case token.OpLT:
			return RelLE, consumed + 1
		case token.OpGT:
			return RelGE, consumed + 1
		default:
			return RelEQ, 0
		}
	case token.OpLT:
		switch second {
		case token.OpEQ:
			return RelLE, consumed + 1
		case token.OpGT:
			return RelNE, consumed + 1
		default:
			return RelLT, 0
		}
	case token.OpGT:
		switch second {
		case token.OpEQ:
			return RelGE, consumed + 1
		default:
			return RelGT, 0
		}
	}
	return RelEQ, 0
}
