package repl

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/basic6502/dispatcher"
	"github.com/lookbusy1344/basic6502/token"
	"github.com/lookbusy1344/basic6502/vm"
)

// tuiConsole implements dispatcher.Console by appending to a tview.TextView
// instead of a stream, and by handing a blocked ReadLine/PollChar call off
// to the tview event goroutine via a channel — the shell's own goroutine
// runs the dispatcher and blocks there, while tview's Application.Run owns
// the main goroutine and the terminal, the same split the teacher's TUI
// keeps between its event loop and the VM's own step loop.
type tuiConsole struct {
	app    *tview.Application
	view   *tview.TextView
	column int
	lines  chan string
	chars  chan byte
}

var _ dispatcher.Console = (*tuiConsole)(nil)

func newTUIConsole(app *tview.Application, view *tview.TextView) *tuiConsole {
	return &tuiConsole{
		app:   app,
		view:  view,
		lines: make(chan string),
		chars: make(chan byte, 1),
	}
}

func (c *tuiConsole) Write(s string) {
	c.app.QueueUpdateDraw(func() {
		fmt.Fprint(c.view, tview.Escape(s))
	})
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		c.column = len(s) - i - 1
		return
	}
	c.column += len(s)
}

func (c *tuiConsole) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		c.Write(prompt)
	}
	line := <-c.lines
	c.column = 0
	return line, nil
}

func (c *tuiConsole) PollChar() (byte, bool) {
	select {
	case b := <-c.chars:
		return b, true
	default:
		return 0, false
	}
}

func (c *tuiConsole) Column() int { return c.column }

// submitLine delivers one command-field Enter press to whichever of
// ReadLine (top-level prompt) or an in-flight INPUT statement is waiting.
func (c *tuiConsole) submitLine(line string) { c.lines <- line }

// TUI is the full-screen terminal front end: a program listing, a console
// transcript, and a variable watch, driven by the same Shell the
// plain CLI uses. Grounded on the teacher's debugger.TUI — one
// tview.Application, a Flex layout of bordered TextViews, a command
// InputField wired to Enter, and global function-key shortcuts — with the
// register/memory/disassembly panels replaced by BASIC's own program
// listing and variable table.
type TUI struct {
	App   *tview.Application
	Shell *Shell

	MainLayout    *tview.Flex
	ProgramView   *tview.TextView
	ConsoleView   *tview.TextView
	VariablesView *tview.TextView
	CommandInput  *tview.InputField

	console *tuiConsole
}

// NewTUI builds a TUI with its own dispatcher, wired to a console that
// writes into ConsoleView and reads from CommandInput.
func NewTUI() *TUI {
	t := &TUI{App: tview.NewApplication()}
	t.initializeViews()
	t.console = newTUIConsole(t.App, t.ConsoleView)
	t.Shell = NewShellWithConsole(t.console)
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.ProgramView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.ProgramView.SetBorder(true).SetTitle(" Program ")

	t.ConsoleView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.ConsoleView.SetBorder(true).SetTitle(" Console ")

	t.VariablesView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.VariablesView.SetBorder(true).SetTitle(" Variables ")

	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.ProgramView, 0, 2, false).
		AddItem(t.VariablesView, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.ConsoleView, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			t.submit("RUN")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshPanels()
			return nil
		}
		return event
	})
}

// handleCommand delivers an Enter press in CommandInput to whichever
// consumer is waiting: a blocked top-level ReadLine (run via t.submit in
// its own goroutine from Run) or, transparently, an in-flight INPUT
// statement, since both read from the same tuiConsole.lines channel.
func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	line := t.CommandInput.GetText()
	t.CommandInput.SetText("")
	t.submitLine(line)
}

func (t *TUI) submitLine(line string) {
	go t.console.submitLine(line)
}

// submit feeds text into the command channel as if the user had typed and
// entered it, used by the F5 "RUN" shortcut.
func (t *TUI) submit(text string) { t.submitLine(text) }

// RefreshPanels redraws the program listing and variable watch from
// current machine state.
func (t *TUI) RefreshPanels() {
	t.updateProgramView()
	t.updateVariablesView()
	t.App.Draw()
}

func (t *TUI) updateProgramView() {
	t.ProgramView.Clear()
	var lines []string
	for _, ref := range t.Shell.D.Machine().Program.Walk() {
		src := token.Detokenize(t.Shell.D.Machine().Program.Tokens(ref.Addr))
		lines = append(lines, fmt.Sprintf("%d %s", ref.Number, src))
	}
	if len(lines) == 0 {
		t.ProgramView.SetText("[yellow]No program loaded[white]")
		return
	}
	t.ProgramView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) updateVariablesView() {
	t.VariablesView.Clear()
	entries := t.Shell.D.Machine().Vars.All()
	if len(entries) == 0 {
		t.VariablesView.SetText("[yellow]No variables[white]")
		return
	}
	var lines []string
	for _, e := range entries {
		if e.Value.Kind == vm.KindNumber {
			lines = append(lines, fmt.Sprintf("%s = %g", e.Name, e.Value.Num))
		} else {
			lines = append(lines, fmt.Sprintf("%s = %q", e.Name, e.Value.Str))
		}
	}
	t.VariablesView.SetText(strings.Join(lines, "\n"))
}

// Run starts the TUI: the dispatcher's scan-loop in its own goroutine and
// the tview application on the calling goroutine, matching the teacher's
// Run/Stop split. The side panels are redrawn only by RefreshPanels
// (Ctrl+L), not on a timer.
func (t *TUI) Run() error {
	t.ConsoleView.SetText("")
	fmt.Fprintln(t.ConsoleView, "[green]BASIC[white] — F5 to RUN, Ctrl+L to refresh, Ctrl+C to quit")
	go func() {
		_ = t.Shell.Run()
		t.App.QueueUpdateDraw(func() {
			fmt.Fprintln(t.ConsoleView, "[yellow]Session ended.[white]")
		})
	}()
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}

// Stop tears down the TUI application.
func (t *TUI) Stop() { t.App.Stop() }
