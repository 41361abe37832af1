package netrepl

import "time"

// SessionCreateResponse is the body of a successful POST /api/v1/session.
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStatusResponse reports what a session is currently waiting on, the
// WebSocket analogue of the dispatcher's own StepResult.
type SessionStatusResponse struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"` // "ready", "needs_input", "needs_char"
}

// ClientMessage is one inbound WebSocket frame: a line of text submitted at
// the REPL prompt, at an INPUT prompt, or (as its first character) a GET
// keypress.
type ClientMessage struct {
	Type string `json:"type"` // "line"
	Text string `json:"text"`
}

// EventType distinguishes the three kinds of frame a session pushes to its
// WebSocket client.
type EventType string

const (
	// EventOutput carries console text the dispatcher has written.
	EventOutput EventType = "output"
	// EventState carries a change in what the session is waiting on next.
	EventState EventType = "state"
	// EventError carries an error unrelated to a BASIC program error
	// (already reported as ordinary output) — a malformed client frame or
	// one of an unknown type. The connection stays open afterwards.
	EventError EventType = "error"
)

// ServerEvent is one outbound WebSocket frame.
type ServerEvent struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Content   string    `json:"content,omitempty"`
	State     string    `json:"state,omitempty"`
}

// ErrorResponse is the JSON body of a non-2xx HTTP response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
