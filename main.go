package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/lookbusy1344/basic6502/config"
	"github.com/lookbusy1344/basic6502/dispatcher"
	"github.com/lookbusy1344/basic6502/loader"
	"github.com/lookbusy1344/basic6502/netrepl"
	"github.com/lookbusy1344/basic6502/program"
	"github.com/lookbusy1344/basic6502/repl"
	"github.com/lookbusy1344/basic6502/token"
	"github.com/lookbusy1344/basic6502/tools"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		tuiMode     = flag.Bool("tui", false, "Use TUI (Text User Interface) front end")
		apiServer   = flag.Bool("api-server", false, "Start HTTP/WebSocket API server mode")
		apiPort     = flag.Int("port", 8080, "API server port (used with -api-server)")
		configPath  = flag.String("config", "", "Config file path (default: platform config directory)")
		maxStmts    = flag.Uint64("max-statements", 0, "Maximum statements per RUN before a forced BREAK (0 = unbounded; default: config value)")
		fsRoot      = flag.String("fsroot", "", "Restrict LOAD/SAVE to this directory (default: current directory)")
		verboseMode = flag.Bool("verbose", false, "Verbose output")

		enableTrace    = flag.Bool("trace", false, "Enable TRON-style line trace from startup")
		enableVarTrace = flag.Bool("var-trace", false, "Enable variable read/write trace from startup")
		enableStats    = flag.Bool("stats", false, "Export run statistics on exit")
		statsFile      = flag.String("stats-file", "", "Statistics output file (default: stats.<format> in log dir)")
		statsFormat    = flag.String("stats-format", "json", "Statistics format (json, csv, html)")

		showXref     = flag.Bool("xref", false, "Print a GOTO/GOSUB/THEN cross-reference for the given program and exit")
		showLint     = flag.Bool("lint", false, "Lint the given program for undefined line references and exit")
		showCoverage = flag.Bool("coverage", false, "Print a dead-line report after the session ends")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("BASIC 1.1 %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	effectiveMaxStmts := cfg.Execution.MaxStatements
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "max-statements" {
			effectiveMaxStmts = *maxStmts
		}
	})

	if *apiServer {
		runAPIServer(*apiPort, effectiveMaxStmts)
		return
	}

	root, err := resolveFSRoot(*fsRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving filesystem root: %v\n", err)
		os.Exit(1)
	}
	if *verboseMode {
		fmt.Printf("Filesystem root: %s\n", root)
	}

	programFile := flag.Arg(0)
	if programFile == "" {
		programFile = cfg.Execution.DefaultProgram
	}

	// Cross-reference and lint are one-shot static tools: load the program,
	// report, exit, never starting a REPL at all.
	if *showXref || *showLint {
		if programFile == "" {
			fmt.Fprintln(os.Stderr, "Error: -xref/-lint require a program file")
			os.Exit(1)
		}
		runStaticTools(programFile, *showXref, *showLint)
		return
	}

	var sh *repl.Shell
	var tui *repl.TUI
	if *tuiMode {
		tui = repl.NewTUI()
		sh = tui.Shell
	} else {
		sh = repl.NewShell(os.Stdout, os.Stdin)
	}

	d := sh.D
	d.MaxStatements = effectiveMaxStmts
	wireFileHooks(d, root)

	if *enableTrace || cfg.Execution.EnableLineTrace {
		d.Machine().LineTrace.Enabled = true
		d.Machine().LineTrace.Start()
	}
	if *enableVarTrace || cfg.Execution.EnableVarTrace {
		d.Machine().VarTrace.Enabled = true
		d.Machine().VarTrace.Start()
	}

	if programFile != "" {
		if *verboseMode {
			fmt.Printf("Loading program: %s\n", programFile)
		}
		if err := loadProgramSource(d, programFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", programFile, err)
			os.Exit(1)
		}
	}

	var runErr error
	if *tuiMode {
		runErr = tui.Run()
	} else {
		runErr = sh.Run()
	}

	wantStats := *enableStats || cfg.Execution.EnableStats
	if wantStats {
		if err := exportStats(d, *statsFile, *statsFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting statistics: %v\n", err)
		}
	}

	if *showCoverage {
		fmt.Print(buildCoverageReport(d))
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

// loadConfig loads the TOML config from path, or the platform default
// location when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// resolveFSRoot turns the -fsroot flag (or, if empty, the current working
// directory) into an absolute path, the same default-to-cwd rule the
// teacher applies to its own -fsroot flag.
func resolveFSRoot(fsRoot string) (string, error) {
	if fsRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		fsRoot = cwd
	}
	return filepath.Abs(fsRoot)
}

// wireFileHooks installs LOAD/SAVE hooks backed by package loader's
// record format, sandboxed under root via loader.ValidatePath. With no
// hooks wired at all, LOAD/SAVE raise DEVICE NOT PRESENT (see
// dispatcher.execLoadStmt/execSaveStmt) — this is what turns that
// error into an actual storage device.
func wireFileHooks(d *dispatcher.Dispatcher, root string) {
	d.LoadHook = func(name string) ([]dispatcher.LoadedLine, error) {
		path, err := loader.ValidatePath(root, name)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path) // #nosec G304 -- path validated against fsroot by loader.ValidatePath
		if err != nil {
			return nil, err
		}
		defer f.Close()

		lines, err := loader.Load(f)
		if err != nil {
			return nil, err
		}
		out := make([]dispatcher.LoadedLine, len(lines))
		for i, l := range lines {
			out[i] = dispatcher.LoadedLine{Number: l.Number, Tokens: l.Tokens}
		}
		return out, nil
	}

	d.SaveHook = func(name string, _ []program.LineRef, store *program.Store) error {
		path, err := loader.ValidatePath(root, name)
		if err != nil {
			return err
		}
		f, err := os.Create(path) // #nosec G304 -- path validated against fsroot by loader.ValidatePath
		if err != nil {
			return err
		}
		defer f.Close()
		return loader.Save(f, store)
	}
}

// buildCoverageReport turns the line coverage a completed session
// recorded into a tools.Coverage dead-line report against the program
// store that session actually ran.
func buildCoverageReport(d *dispatcher.Dispatcher) string {
	lc := d.Machine().LineCoverage
	executed := make([]tools.CoverageEntry, 0, len(lc.ExecutedLines()))
	for _, ln := range lc.ExecutedLines() {
		entry := lc.Entry(ln)
		if entry == nil {
			continue
		}
		executed = append(executed, tools.CoverageEntry{Line: ln, ExecutionCount: entry.ExecutionCount})
	}
	return tools.NewCoverage(d.Machine().Program, executed).String()
}

// loadProgramSource reads a plain-text BASIC listing and feeds it into d
// one line at a time, the same program-edit/immediate-mode split
// package repl's Shell applies to typed input, so a file full of
// numbered lines (and, typically, a trailing RUN) behaves exactly as if
// it had been typed at the prompt.
func loadProgramSource(d *dispatcher.Dispatcher, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified program file on the command line
	if err != nil {
		return err
	}
	for lineno, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if line == "" {
			continue
		}
		if num, rest, ok := leadingLineNumber(line); ok {
			if rest == "" {
				d.Machine().Program.Delete(num)
				d.Clear()
				continue
			}
			toks, err := token.Crunch(rest)
			if err != nil {
				return fmt.Errorf("line %d: %s: %w", num, line, err)
			}
			if err := d.Machine().Program.Insert(num, toks[:len(toks)-1]); err != nil {
				return err
			}
			d.Clear()
			continue
		}
		toks, err := token.Crunch(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineno+1, err)
		}
		if err := d.RunDirect(toks[:len(toks)-1]); err != nil {
			return err
		}
	}
	return nil
}

// leadingLineNumber reports whether line begins with a run of decimal
// digits, splitting it into the parsed number and the remaining text,
// mirroring package repl's own program-edit detection.
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

// runStaticTools loads programFile's listing into a scratch dispatcher
// (no console interaction, no RUN) and prints a cross-reference and/or
// lint report, the CLI surface for package tools.
func runStaticTools(programFile string, showXref, showLint bool) {
	d := dispatcher.New(dispatcher.NewStreamConsole(os.Stdout, strings.NewReader("")))
	if err := loadProgramSource(d, programFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", programFile, err)
		os.Exit(1)
	}
	store := d.Machine().Program
	if showXref {
		fmt.Print(tools.GenerateXRef(store))
	}
	if showLint {
		issues := tools.NewLinter(tools.DefaultLintOptions()).Lint(store)
		if len(issues) == 0 {
			fmt.Println("no issues found")
		}
		for _, issue := range issues {
			fmt.Println(issue.String())
		}
	}
}

// exportStats writes d's run statistics to file in format, defaulting the
// file name/extension the way the teacher's own -stats-file does.
func exportStats(d *dispatcher.Dispatcher, file, format string) error {
	if file == "" {
		ext := "json"
		switch format {
		case "csv":
			ext = "csv"
		case "html":
			ext = "html"
		}
		file = filepath.Join(config.GetLogPath(), "stats."+ext)
	}
	f, err := os.Create(file) // #nosec G304 -- user-specified statistics output path
	if err != nil {
		return err
	}
	defer f.Close()

	stats := d.Machine().Stats
	switch format {
	case "csv":
		return stats.ExportCSV(f)
	case "html":
		return stats.ExportHTML(f)
	default:
		return stats.ExportJSON(f)
	}
}

// runAPIServer starts the HTTP/WebSocket remote REPL server and blocks
// until it receives a shutdown signal, mirroring the teacher's own
// -api-server graceful-shutdown sequence.
func runAPIServer(port int, maxStatements uint64) {
	server := netrepl.NewServer(port)
	server.SetMaxStatements(maxStatements)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Server stopped")
			os.Exit(0)
		})
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

func printHelp() {
	fmt.Printf(`BASIC 1.1 %s

Usage: basic6502 [options] [program-file]
       basic6502 -tui [options] [program-file]
       basic6502 -api-server [-port N]
       basic6502 -xref|-lint program-file

Options:
  -help                Show this help message
  -version             Show version information
  -tui                 Use the full-screen terminal front end
  -api-server          Start HTTP/WebSocket API server mode (no program file)
  -port N              API server port (default: 8080, used with -api-server)
  -config FILE         Config file path (default: platform config directory)
  -max-statements N    Statement budget per RUN before a forced BREAK (0 = unbounded)
  -fsroot DIR          Restrict LOAD/SAVE to this directory (default: current directory)
  -verbose             Enable verbose output

Tracing & Statistics:
  -trace               Enable line trace (TRON) from startup
  -var-trace           Enable variable read/write trace from startup
  -stats               Export run statistics on exit
  -stats-file FILE     Statistics output file (default: stats.<format> in log dir)
  -stats-format FMT    Statistics format: json, csv, html (default: json)
  -coverage            Print a dead-line report after the session ends

Static Analysis:
  -xref                Print a GOTO/GOSUB/THEN cross-reference and exit
  -lint                Check for undefined line references and exit

Examples:
  # Start an interactive session
  basic6502

  # Load and run a program, then drop to an interactive prompt
  basic6502 examples/hello.bas

  # Use the full-screen terminal front end
  basic6502 -tui examples/bubble_sort.bas

  # Start the remote API server for a browser client
  basic6502 -api-server -port 3000

  # Restrict LOAD/SAVE to a sandboxed directory
  basic6502 -fsroot ./programs examples/hello.bas

  # Check a program for GOTO targets that don't exist
  basic6502 -lint examples/hello.bas

  # Cap runaway programs at 100,000 statements per RUN
  basic6502 -max-statements 100000 examples/hello.bas

Immediate-mode commands (once running):
  RUN, LIST, NEW, CLEAR   standard BASIC commands
  STAT                    print run statistics
  QUIT, EXIT, BYE          leave the session

For more information, see the DESIGN.md file.
`, Version)
}
