package netrepl

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/dispatcher"
	"github.com/lookbusy1344/basic6502/token"
)

// ErrSessionNotFound is returned when a session ID does not name a live
// session.
var ErrSessionNotFound = errors.New("session not found")

// Session is one remote BASIC interpreter: a dispatcher, the console it
// broadcasts through, and the mutex that keeps a session's dispatcher
// single-threaded even though HTTP and WebSocket handlers reach it from
// different goroutines — the same per-session lock the teacher's
// SessionManager holds around its service.DebuggerService calls.
//
// waiting records what the last Step call returned, so a status query never
// has to call Step itself to find out — Step is only safe to call again
// without side effects while the dispatcher is already paused on
// NeedsInput/NeedsChar; calling it in the "ready" state would execute the
// next statement instead of just reporting state.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	D       *dispatcher.Dispatcher
	console *eventConsole
	waiting dispatcher.StepResult // zero value (Running) reads as "ready"
}

// state reports, in the vocabulary of SessionStatusResponse, what the
// dispatcher is currently waiting on.
func (s *Session) state() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() string {
	switch s.waiting {
	case dispatcher.NeedsInput:
		return "needs_input"
	case dispatcher.NeedsChar:
		return "needs_char"
	default:
		return "ready"
	}
}

// submitLine resolves whatever the dispatcher is waiting on with one
// WebSocket-submitted line, then drives Step until it needs something else
// (another NeedsInput/NeedsChar) or reaches Done — mirroring Dispatcher.Run,
// but stopping instead of blocking on console I/O, per spec §4.11.
func (s *Session) submitLine(line string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.waiting {
	case dispatcher.NeedsInput:
		if err := s.D.ProvideInput(line); err != nil {
			s.D.ReportError(err)
			s.waiting = dispatcher.Done
			return s.stateLocked(), nil
		}
	case dispatcher.NeedsChar:
		var c byte
		var ok bool
		if len(line) > 0 {
			c, ok = line[0], true
		}
		s.D.ProvideChar(c, ok)
	default:
		// Not currently waiting on the client: classify the line as a
		// program edit or an immediate-mode command, the same split
		// package repl's Shell makes at its own prompt.
		s.runLine(line)
		return s.stateLocked(), nil
	}

	s.drive()
	return s.stateLocked(), nil
}

// drive steps the dispatcher until it pauses on NeedsInput/NeedsChar or
// reaches Done, recording the result so state() can report it without
// calling Step again.
func (s *Session) drive() {
	for {
		res, err := s.D.Step()
		if err != nil {
			s.D.ReportError(err)
			s.waiting = dispatcher.Done
			return
		}
		if res != dispatcher.Running {
			s.waiting = res
			return
		}
	}
}

// runLine implements the same leading-integer-means-program-edit rule
// package repl's Shell applies at its own prompt, adapted to load the
// command and drive it through Session.drive instead of Dispatcher.Run,
// which would block trying to read the next console line itself.
func (s *Session) runLine(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	if num, rest, ok := leadingLineNumber(trimmed); ok {
		s.editLine(num, rest)
		return
	}

	toks, err := token.Crunch(trimmed)
	if err != nil {
		s.console.Write(basic.New(basic.ErrSyntax, "").Error() + "\n")
		return
	}
	s.D.LoadDirect(toks[:len(toks)-1])
	s.drive()
}

// editLine crunches rest and stores (or, if rest is empty, deletes) it as
// program line num, implicitly running CLEAR afterward per spec §4.2 — see
// repl.Shell.editLine, which applies the identical rule for the CLI.
func (s *Session) editLine(num int, rest string) {
	if rest == "" {
		s.D.Machine().Program.Delete(num)
		s.D.Clear()
		return
	}
	toks, err := token.Crunch(rest)
	if err != nil {
		s.console.Write(basic.New(basic.ErrSyntax, "").Error() + "\n")
		return
	}
	if err := s.D.Machine().Program.Insert(num, toks[:len(toks)-1]); err != nil {
		s.console.Write(err.Error() + "\n")
		return
	}
	s.D.Clear()
}

// leadingLineNumber reports whether line begins with a run of decimal
// digits and splits it into the parsed number and the remaining text, the
// same rule repl.leadingLineNumber applies.
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

// SessionManager owns the set of live sessions, keyed by a random ID, and
// the single broadcaster every session's console writes through.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	broadcaster *Broadcaster

	// MaxStatements is copied onto every session's dispatcher as it is
	// created, the same per-run safety valve package dispatcher itself
	// enforces for a local CLI session (config's `[execution]
	// max_statements`); 0 means unbounded.
	MaxStatements uint64
}

// NewSessionManager creates an empty manager over broadcaster.
func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
	}
}

// CreateSession allocates a new session with a fresh dispatcher.
func (sm *SessionManager) CreateSession() (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	console := newEventConsole(id, sm.broadcaster)
	d := dispatcher.New(console)
	d.MaxStatements = sm.MaxStatements
	session := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		D:         d,
		console:   console,
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[id] = session
	return session, nil
}

// GetSession looks up a session by ID.
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DestroySession removes a session by ID.
func (sm *SessionManager) DestroySession(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(sm.sessions, id)
	return nil
}

// ListSessions returns every live session ID.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count reports how many sessions are live.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
