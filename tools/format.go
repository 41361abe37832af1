// Package tools holds the supplemented program-analysis surface built on
// top of the program store and tokenizer: a LIST pretty-printer and a
// GOTO/GOSUB cross-reference checker, grounded on the teacher's assembly
// formatter and cross-reference generator respectively.
package tools

import (
	"fmt"
	"strings"

	"github.com/lookbusy1344/basic6502/program"
	"github.com/lookbusy1344/basic6502/token"
)

// FormatStyle selects how Format renders a stored line's source text.
// FormatDefault reproduces the historical LIST command byte for byte;
// FormatExpanded and FormatCompact adjust incidental whitespace only —
// neither can change a line's tokenization, since both still round-trip
// through Detokenize.
type FormatStyle int

const (
	FormatDefault FormatStyle = iota
	FormatCompact
	FormatExpanded
)

// FormatOptions controls Formatter output. Grounded on the teacher's own
// FormatOptions (column positions for label/instruction/operand/comment),
// narrowed from assembly's four-column layout to what a line-number-led
// BASIC listing needs: a padded line-number column and optional spacing
// around statement separators.
type FormatOptions struct {
	Style FormatStyle

	// LineNumberWidth right-aligns every printed line number to this many
	// columns; 0 leaves line numbers unpadded, matching historical LIST.
	LineNumberWidth int

	// SpaceAfterColon inserts a space after every ':' statement separator,
	// readable multi-statement lines at the cost of no longer matching
	// LIST's traditionally cramped output.
	SpaceAfterColon bool
}

// DefaultFormatOptions reproduces historical LIST exactly.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatDefault}
}

// CompactFormatOptions strips the space Detokenize leaves after a colon,
// for the densest possible listing.
func CompactFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatCompact}
}

// ExpandedFormatOptions pads line numbers to a fixed column and opens up
// statement separators, the readable end of the spectrum.
func ExpandedFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatExpanded, LineNumberWidth: 5, SpaceAfterColon: true}
}

// Formatter renders a program.Store's lines as LIST-style source text.
type Formatter struct {
	opts *FormatOptions
}

// NewFormatter builds a Formatter; a nil opts defaults to DefaultFormatOptions.
func NewFormatter(opts *FormatOptions) *Formatter {
	if opts == nil {
		opts = DefaultFormatOptions()
	}
	return &Formatter{opts: opts}
}

// Format renders every stored line whose number falls within [first, last]
// inclusive, one line of output per stored program line. first == 0 means
// "from the beginning"; last == 0 means "to the end" — together (0, 0)
// lists the whole program, matching bare LIST with no arguments.
func (f *Formatter) Format(store *program.Store, first, last int) string {
	var sb strings.Builder
	for _, ref := range store.Walk() {
		if first != 0 && ref.Number < first {
			continue
		}
		if last != 0 && ref.Number > last {
			continue
		}
		f.formatLine(&sb, ref.Number, store.Tokens(ref.Addr))
	}
	return sb.String()
}

func (f *Formatter) formatLine(sb *strings.Builder, lineNo int, toks []byte) {
	numStr := fmt.Sprintf("%d", lineNo)
	if f.opts.LineNumberWidth > len(numStr) {
		sb.WriteString(strings.Repeat(" ", f.opts.LineNumberWidth-len(numStr)))
	}
	sb.WriteString(numStr)
	sb.WriteByte(' ')
	sb.WriteString(f.formatSource(token.Detokenize(toks)))
	sb.WriteByte('\n')
}

// formatSource adjusts the whitespace Detokenize leaves around ':'
// statement separators according to Style; it never touches anything
// inside a quoted string literal.
func (f *Formatter) formatSource(src string) string {
	if f.opts.Style == FormatDefault && !f.opts.SpaceAfterColon {
		return src
	}
	var sb strings.Builder
	inQuote := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '"' {
			inQuote = !inQuote
			sb.WriteByte(c)
			continue
		}
		if c == ':' && !inQuote {
			sb.WriteByte(':')
			if f.opts.Style == FormatExpanded || f.opts.SpaceAfterColon {
				sb.WriteByte(' ')
			}
			for i+1 < len(src) && src[i+1] == ' ' {
				i++
			}
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// List is the convenience entry point LIST itself calls: the whole
// program, or the [first, last] sub-range LIST's own argument parsing
// resolved, rendered with the default (historical) style.
func List(store *program.Store, first, last int) string {
	return NewFormatter(DefaultFormatOptions()).Format(store, first, last)
}
