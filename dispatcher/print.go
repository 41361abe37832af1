package dispatcher

import (
	"math"
	"strconv"
	"strings"

	"github.com/lookbusy1344/basic6502/eval"
)

// formatNumber renders a numeric value the way FOUT does: a leading
// sign-space (a space for a non-negative value, a minus for a negative
// one) and a trailing space, per spec §4.3's FOR/NEXT scenario ("each
// number preceded by a sign-space per FOUT rules").
func formatNumber(f float64) string {
	sign := " "
	if f < 0 || math.Signbit(f) {
		sign = "-"
		f = -f
	}
	return sign + formatMagnitude(f) + " "
}

// formatMagnitude renders the non-negative digits of a FOUT number:
// plain decimal for anything that fits in 9 significant digits without
// resorting to scientific notation, E notation otherwise.
func formatMagnitude(f float64) string {
	if f == 0 {
		return "0"
	}
	if f == math.Trunc(f) && f < 1e9 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', 9, 64)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa := s[:i]
		exp := s[i+1:]
		sign := "+"
		if exp[0] == '-' || exp[0] == '+' {
			if exp[0] == '-' {
				sign = "-"
			}
			exp = exp[1:]
		}
		if len(exp) < 2 {
			exp = "0" + exp
		}
		s = mantissa + "E" + sign + exp
	}
	return s
}

// renderValue stringifies one PRINT operand: a string value verbatim, a
// number via formatNumber.
func renderValue(v eval.Value) string {
	if v.IsString {
		return v.Str
	}
	return formatNumber(v.Num)
}

// execPrint implements PRINT [expr] [,|; expr]... [,|;], per spec §4.3: a
// comma advances to the next zoneWidth-column zone, a semicolon prints
// contiguously, and a trailing separator suppresses the newline.
func (d *Dispatcher) execPrint() (StepResult, error) {
	suppressNewline := false
	for {
		d.skipSpaces()
		if d.atStatementEnd() {
			break
		}
		switch d.current() {
		case ',':
			d.pos.Offset++
			d.padToNextZone()
			suppressNewline = true
			continue
		case ';':
			d.pos.Offset++
			suppressNewline = true
			continue
		}
		v, err := d.evalExpr()
		if err != nil {
			return Running, err
		}
		d.Console.Write(renderValue(v))
		suppressNewline = false
	}
	if !suppressNewline {
		d.Console.Write("\n")
	}
	return Running, nil
}

// padToNextZone writes spaces until the console's output column reaches
// the next zoneWidth-column boundary, PRINT comma's zone-advance rule.
func (d *Dispatcher) padToNextZone() {
	col := d.Console.Column()
	next := ((col / zoneWidth) + 1) * zoneWidth
	if pad := next - col; pad > 0 {
		d.Console.Write(strings.Repeat(" ", pad))
	}
}

// execInput implements INPUT ["prompt";] v1, v2, ...: it prints the prompt
// (or "? " if none was given) and waits for a line, per spec §4.3. A short
// line reports ?REDO FROM START and reprompts; an overlong one reports
// EXTRA IGNORED and proceeds.
func (d *Dispatcher) execInput() (StepResult, error) {
	prompt := "? "
	d.skipSpaces()
	if d.current() == '"' {
		s, err := d.scanQuotedString()
		if err != nil {
			return Running, err
		}
		d.skipSpaces()
		if d.current() == ';' {
			d.pos.Offset++
		}
		prompt = s + "? "
	}

	var targets []eval.LValue
	for {
		lv, err := d.parseLValue()
		if err != nil {
			return Running, err
		}
		targets = append(targets, lv)
		d.skipSpaces()
		if d.current() == ',' {
			d.pos.Offset++
			continue
		}
		break
	}

	d.pendingLine = d.pos
	d.pendingInput = &pendingInput{prompt: prompt, targets: targets}
	d.Console.Write(prompt)
	return NeedsInput, nil
}

// ProvideInput resolves a pending INPUT raised by Step returning
// NeedsInput.
func (d *Dispatcher) ProvideInput(line string) error {
	if d.pendingInput == nil {
		return nil
	}
	fields := splitInputFields(line)
	targets := d.pendingInput.targets
	if len(fields) < len(targets) {
		d.Console.Write("?REDO FROM START\n")
		d.Console.Write(d.pendingInput.prompt)
		return nil
	}
	if len(fields) > len(targets) {
		d.Console.Write("EXTRA IGNORED\n")
	}
	for i, lv := range targets {
		v, err := coerceDataItem(fields[i], lv.IsString)
		if err != nil {
			d.Console.Write("?REDO FROM START\n")
			d.Console.Write(d.pendingInput.prompt)
			return nil
		}
		if err := d.assign(lv, v); err != nil {
			d.pendingInput = nil
			return err
		}
	}
	resume := d.pendingLine
	d.pendingInput = nil
	d.jumpTo(resume)
	return nil
}

func splitInputFields(line string) []string {
	parts := strings.Split(line, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
