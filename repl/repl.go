// Package repl implements the interactive front end around the
// dispatcher: a plain scan-loop CLI shell, grounded on the teacher's
// debugger.RunCLI (read a line, dispatch, print output, loop), plus an
// optional full-screen terminal UI (package tui.go) built the same way the
// teacher's own debugger TUI is, on tcell/tview.
//
// The shell owns exactly one decision the dispatcher does not make for
// itself: whether an entered line is a program edit (it begins with a
// decimal line number) or an immediate-mode command to run straight away.
// Everything else — RUN, LIST, NEW, CLEAR, syntax errors — is already a
// dispatcher statement and is simply handed to RunDirect.
package repl

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/dispatcher"
	"github.com/lookbusy1344/basic6502/token"
)

// Shell drives one interactive session: a dispatcher, the console it
// shares with that dispatcher for program I/O, and the line history a
// terminal front end can use for up/down recall.
type Shell struct {
	D       *dispatcher.Dispatcher
	History *CommandHistory

	console dispatcher.Console
}

// NewShell builds a Shell whose dispatcher and top-level line reader share
// one console over in/out, so INPUT/GET prompts and the REPL's own prompt
// interleave correctly on the same stream.
func NewShell(out io.Writer, in io.Reader) *Shell {
	return NewShellWithConsole(dispatcher.NewStreamConsole(out, in))
}

// NewShellWithConsole builds a Shell over an already-constructed console,
// the entry point package repl's TUI uses to drive the dispatcher through
// a tview widget instead of a plain stream.
func NewShellWithConsole(console dispatcher.Console) *Shell {
	return &Shell{
		D:       dispatcher.New(console),
		History: NewCommandHistory(),
		console: console,
	}
}

// quitWords are the shell-level meta-commands that leave the REPL rather
// than being passed to the dispatcher; none of them is a BASIC keyword.
var quitWords = map[string]bool{"QUIT": true, "EXIT": true, "BYE": true}

// Run executes the scan-loop: print the READY prompt, read a line, treat a
// leading decimal integer as a program edit, otherwise run the line as an
// immediate-mode command, and repeat until EOF or a quit word. It returns
// nil on a clean EOF, matching spec §6's "exit code 0 on clean EOF" rule.
func (s *Shell) Run() error {
	s.console.Write("READY.\n")
	for {
		line, err := s.console.ReadLine("")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		s.History.Add(trimmed)

		if quitWords[strings.ToUpper(trimmed)] {
			return nil
		}

		if strings.ToUpper(trimmed) == "STAT" {
			s.console.Write(s.D.Machine().Stats.String() + "\n")
			continue
		}

		if num, rest, ok := leadingLineNumber(trimmed); ok {
			if err := s.editLine(num, rest); err != nil {
				s.console.Write(err.Error() + "\n")
			}
			continue
		}

		toks, err := token.Crunch(trimmed)
		if err != nil {
			s.console.Write(basic.New(basic.ErrSyntax, "").Error() + "\n")
			continue
		}
		// RunDirect only returns an error for a console I/O failure (e.g. a
		// broken stdin); every statement-level error is already printed and
		// swallowed internally. The dispatcher itself never writes
		// "READY." (see advanceLine) — that prompt is this loop's job, the
		// same way the teacher's RunCLI prints its own "(arm-dbg) " prompt
		// rather than leaving it to the debugger core.
		if err := s.D.RunDirect(toks[:len(toks)-1]); err != nil {
			return err
		}
		s.console.Write("READY.\n")
	}
}

// leadingLineNumber reports whether line begins with a run of decimal
// digits (BASIC's program-edit marker) and splits it into the parsed
// number and the remaining source text.
func leadingLineNumber(line string) (int, string, bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, "", false
	}
	num, err := strconv.Atoi(line[:i])
	if err != nil {
		return 0, "", false
	}
	return num, strings.TrimSpace(line[i:]), true
}

// editLine crunches rest and stores (or, if rest is empty, deletes) it as
// program line num. Per spec §4.2, any insert, replace, or delete
// invalidates every FOR/GOSUB frame on the control stack, so a successful
// edit implicitly runs CLEAR — the same full variable/array/string/control
// reset the CLEAR statement performs, minus the program store itself.
func (s *Shell) editLine(num int, rest string) error {
	if rest == "" {
		s.D.Machine().Program.Delete(num)
		s.D.Clear()
		return nil
	}
	toks, err := token.Crunch(rest)
	if err != nil {
		return basic.New(basic.ErrSyntax, "")
	}
	if err := s.D.Machine().Program.Insert(num, toks[:len(toks)-1]); err != nil {
		return err
	}
	s.D.Clear()
	return nil
}
