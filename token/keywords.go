// Package token implements the tokenizer ("CRUNCH") and its inverse, the
// detokenizer, per spec §4.1. The reserved-word table is grounded on the
// canonical Microsoft/Commodore token assignment (see
// other_examples/…c64basic.go.go in the retrieval pack) rather than
// invented: historical BASIC assigns every statement keyword, built-in
// function, and even the arithmetic/relational/logical operators their
// own single-byte token, distinct from the operator's ASCII spelling.
package token

import "sort"

// Byte is a single token-stream byte. Values 0x00-0x7F are literal ASCII;
// values 0x80-0xFF are reserved-word tokens.
type Byte = byte

// End marks end-of-line in the token stream and in program storage.
const End Byte = 0x00

// Statement and function tokens, in the historical assignment order.
const (
	END Byte = 0x80 + iota
	FOR
	NEXT
	DATA
	INPUTHASH // INPUT# — retained for fidelity though file devices are out of scope
	INPUT
	DIM
	READ
	LET
	GOTO
	RUN
	IF
	RESTORE
	GOSUB
	RETURN
	REM
	STOP
	ON
	WAIT
	LOAD
	SAVE
	VERIFY
	DEF
	POKE
	PRINTHASH
	PRINT
	CONT
	LIST
	CLEAR
	CMD
	SYS
	OPEN
	CLOSE
	GET
	NEW
	TABPAREN // TAB(
	TO
	FN
	SPCPAREN // SPC(
	THEN
	NOT
	STEP
	OpPlus
	OpMinus
	OpStar
	OpSlash
	OpCaret
	AND
	OR
	OpGT
	OpEQ
	OpLT
	SGN
	INT
	ABS
	USR
	FRE
	POS
	SQR
	RND
	LOG
	EXP
	COS
	SIN
	TAN
	ATN
	PEEK
	LEN
	STRDOLLAR  // STR$
	VAL
	ASC
	CHRDOLLAR  // CHR$
	LEFTDOLLAR // LEFT$
	RIGHTDOLLAR
	MIDDOLLAR
	GO
	// Supplemented beyond the historical table: present in various
	// Microsoft BASIC dialects but dropped by the distillation's statement
	// list; wired back in per SPEC_FULL.md §4.3.
	TRON
	TROFF
)

// keyword pairs a canonical upper-case spelling with its token byte. The
// slice is ordered longest-spelling-first so Crunch's greedy prefix match
// never picks a short keyword when a longer one also matches (e.g. GOSUB
// before GO).
type keyword struct {
	text  string
	token Byte
}

// Note: "GO" (historically token 0xCB) is deliberately absent from this
// table. Per spec §4.1 rule 6, the two-word GOTO form is recognised by a
// dedicated pre-pass in Crunch, not by matching "GO" as an ordinary
// keyword — matching it here would tokenize every bare "GO" even when not
// followed by "TO", which rule 6 says must pass through as literal bytes.
var keywords = []keyword{
	{"RESTORE", RESTORE}, {"RETURN", RETURN}, {"GOSUB", GOSUB},
	{"INPUT#", INPUTHASH}, {"PRINT#", PRINTHASH}, {"VERIFY", VERIFY},
	{"CLOSE", CLOSE}, {"INPUT", INPUT}, {"GOTO", GOTO}, {"DATA", DATA},
	{"POKE", POKE}, {"LIST", LIST}, {"CLEAR", CLEAR}, {"SPC(", SPCPAREN},
	{"THEN", THEN}, {"STEP", STEP}, {"TAB(", TABPAREN}, {"WAIT", WAIT},
	{"LOAD", LOAD}, {"SAVE", SAVE}, {"CONT", CONT}, {"OPEN", OPEN},
	{"NEXT", NEXT}, {"READ", READ}, {"STOP", STOP}, {"TRON", TRON},
	{"TROFF", TROFF}, {"PRINT", PRINT}, {"PEEK", PEEK},
	{"LEFT$", LEFTDOLLAR}, {"RIGHT$", RIGHTDOLLAR}, {"MID$", MIDDOLLAR},
	{"CHR$", CHRDOLLAR}, {"STR$", STRDOLLAR},
	{"FOR", FOR}, {"DIM", DIM}, {"LET", LET}, {"RUN", RUN}, {"DEF", DEF},
	{"NEW", NEW}, {"AND", AND}, {"NOT", NOT}, {"SGN", SGN}, {"INT", INT},
	{"ABS", ABS}, {"USR", USR}, {"FRE", FRE}, {"POS", POS}, {"SQR", SQR},
	{"RND", RND}, {"LOG", LOG}, {"EXP", EXP}, {"COS", COS}, {"SIN", SIN},
	{"TAN", TAN}, {"ATN", ATN}, {"LEN", LEN}, {"VAL", VAL}, {"ASC", ASC},
	{"REM", REM}, {"GET", GET}, {"CMD", CMD}, {"SYS", SYS},
	{"IF", IF}, {"ON", ON}, {"TO", TO}, {"FN", FN}, {"OR", OR},
	{"+", OpPlus}, {"-", OpMinus}, {"*", OpStar}, {"/", OpSlash},
	{"^", OpCaret}, {">", OpGT}, {"=", OpEQ}, {"<", OpLT},
	{"?", PRINT},
}

func init() {
	// Guarantee longest-prefix-first regardless of table order above, so a
	// future edit to the table can never silently break the matching
	// priority (e.g. GO vs GOTO vs GOSUB).
	sort.SliceStable(keywords, func(i, j int) bool {
		return len(keywords[i].text) > len(keywords[j].text)
	})
}

// statementTokens is the set of tokens that begin a statement (as opposed
// to an operator or a function used only inside expressions). The
// dispatcher consults this to decide whether a byte at the start of a
// logical line is a handled statement or an implicit LET.
var statementTokens = map[Byte]bool{
	END: true, FOR: true, NEXT: true, DATA: true, INPUT: true, DIM: true,
	READ: true, LET: true, GOTO: true, RUN: true, IF: true, RESTORE: true,
	GOSUB: true, RETURN: true, REM: true, STOP: true, ON: true,
	DEF: true, POKE: true, PRINT: true, LIST: true, CLEAR: true, NEW: true,
	GET: true, TRON: true, TROFF: true, SYS: true, LOAD: true, SAVE: true,
	CONT: true,
}

// IsStatement reports whether tok begins a statement.
func IsStatement(tok Byte) bool { return statementTokens[tok] }

// spelling maps every reserved token back to its canonical upper-case
// source spelling, used by Detokenize.
var spelling = func() map[Byte]string {
	m := make(map[Byte]string, len(keywords))
	for _, kw := range keywords {
		if _, exists := m[kw.token]; !exists {
			m[kw.token] = kw.text
		}
	}
	return m
}()

// Spelling returns the canonical source spelling for a reserved token, or
// ("", false) if tok is not a reserved word (i.e. it is literal ASCII).
func Spelling(tok Byte) (string, bool) {
	s, ok := spelling[tok]
	return s, ok
}
