package netrepl

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return isAllowedOrigin(r.Header.Get("Origin"))
	},
}

// wsClient is one connected browser, pumping ServerEvents out and
// ClientMessages in, grounded on the teacher's WebSocketClient.
type wsClient struct {
	conn    *websocket.Conn
	session *Session
	sub     *Subscription
	send    chan ServerEvent
}

// handleWebSocket upgrades the connection and attaches it to sessionID's
// broadcast feed. The number of clients per session is not limited: a
// reconnect simply attaches a fresh subscription alongside any
// still-draining old one, which the broadcaster's slow-client drop handles
// harmlessly.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("netrepl: websocket upgrade error: %v", err)
		return
	}

	client := &wsClient{
		conn:    conn,
		session: session,
		sub:     s.broadcaster.Subscribe(sessionID),
		send:    make(chan ServerEvent, 256),
	}

	go client.writePump()
	go client.forwardFromBroadcaster()
	client.readPump()
}

// readPump is the blocking loop that reads ClientMessages and drives the
// session; it runs on the goroutine handleWebSocket was called from, so
// the HTTP handler returns only once the connection closes — matching the
// teacher's own per-connection goroutine shape (there, readPump/writePump
// both run in detached goroutines; here readPump keeps the request
// goroutine rather than spawning a third, since nothing else needs it).
func (c *wsClient) readPump() {
	defer c.cleanup()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("netrepl: websocket error: %v", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.send <- ServerEvent{Type: EventError, SessionID: c.session.ID, Content: "malformed message"}
			continue
		}
		if msg.Type != "line" {
			c.send <- ServerEvent{Type: EventError, SessionID: c.session.ID, Content: "unknown message type: " + msg.Type}
			continue
		}

		state, err := c.session.submitLine(msg.Text)
		if err != nil {
			c.send <- ServerEvent{Type: EventError, SessionID: c.session.ID, Content: err.Error()}
			continue
		}
		c.send <- ServerEvent{Type: EventState, SessionID: c.session.ID, State: state}
	}
}

// writePump drains c.send to the socket, pinging on idle, the same
// keepalive shape as the teacher's WebSocketClient.writePump.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// forwardFromBroadcaster relays the session's console output (and any other
// broadcast events) into this client's own send channel.
func (c *wsClient) forwardFromBroadcaster() {
	for event := range c.sub.Channel {
		select {
		case c.send <- event:
		default:
			// Client too slow; drop this event rather than block the
			// broadcaster's fan-out loop.
		}
	}
}

func (c *wsClient) cleanup() {
	c.session.console.broadcaster.Unsubscribe(c.sub)
	_ = c.conn.Close()
}
