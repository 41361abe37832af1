package netrepl

import "github.com/lookbusy1344/basic6502/dispatcher"

// eventConsole implements dispatcher.Console by broadcasting every write as
// an output event instead of writing to a stream. ReadLine and PollChar are
// never actually called: a session drives the dispatcher with Step directly
// (see Session.drive) and only ever calls ProvideInput/ProvideChar once a
// WebSocket frame arrives, exactly as spec §4.11's design note describes —
// so these two methods exist only to satisfy the interface and panic if
// ever reached, the same defensive stance the teacher takes for branches
// its own control flow guarantees are unreachable.
type eventConsole struct {
	sessionID   string
	broadcaster *Broadcaster
	column      int
}

var _ dispatcher.Console = (*eventConsole)(nil)

func newEventConsole(sessionID string, b *Broadcaster) *eventConsole {
	return &eventConsole{sessionID: sessionID, broadcaster: b}
}

func (c *eventConsole) Write(s string) {
	c.broadcaster.Broadcast(ServerEvent{
		Type:      EventOutput,
		SessionID: c.sessionID,
		Content:   s,
	})
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			c.column = len(s) - i - 1
			return
		}
	}
	c.column += len(s)
}

func (c *eventConsole) ReadLine(prompt string) (string, error) {
	panic("netrepl: ReadLine called on eventConsole; Session.submitLine must resolve NeedsInput itself")
}

func (c *eventConsole) PollChar() (byte, bool) {
	panic("netrepl: PollChar called on eventConsole; Session.submitLine must resolve NeedsChar itself")
}

func (c *eventConsole) Column() int { return c.column }
