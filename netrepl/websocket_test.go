package netrepl

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestWebSocketRoundTrip(t *testing.T) {
	s := NewServer(0)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/session", "application/json", nil)
	require.NoError(t, err)
	var created SessionCreateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/session/" + created.SessionID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "line", Text: "PRINT 1+2"}))

	var gotOutput, gotState bool
	deadline := time.Now().Add(5 * time.Second)
	for !(gotOutput && gotState) && time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		var ev ServerEvent
		if err := conn.ReadJSON(&ev); err != nil {
			continue
		}
		switch ev.Type {
		case EventOutput:
			require.Equal(t, " 3 \n", ev.Content)
			gotOutput = true
		case EventState:
			require.Equal(t, "ready", ev.State)
			gotState = true
		}
	}
	require.True(t, gotOutput, "expected an output event")
	require.True(t, gotState, "expected a state event")
}

func TestWebSocketUnknownSessionReturns404(t *testing.T) {
	s := NewServer(0)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/session/does-not-exist/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
