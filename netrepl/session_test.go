package netrepl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*Session, *Broadcaster, *Subscription) {
	t.Helper()
	b := NewBroadcaster()
	sm := NewSessionManager(b)
	session, err := sm.CreateSession()
	require.NoError(t, err)
	sub := b.Subscribe(session.ID)
	return session, b, sub
}

func drainOutput(sub *Subscription) string {
	out := ""
	for {
		select {
		case ev := <-sub.Channel:
			if ev.Type == EventOutput {
				out += ev.Content
			}
		default:
			return out
		}
	}
}

func TestSessionImmediateModePrint(t *testing.T) {
	session, _, sub := newTestSession(t)
	state, err := session.submitLine("PRINT 1+2")
	require.NoError(t, err)
	require.Equal(t, "ready", state)
	require.Equal(t, " 3 \n", drainOutput(sub))
}

func TestSessionProgramEditAndRun(t *testing.T) {
	session, _, sub := newTestSession(t)
	_, err := session.submitLine(`10 PRINT "HI"`)
	require.NoError(t, err)
	drainOutput(sub) // program edits produce no output

	state, err := session.submitLine("RUN")
	require.NoError(t, err)
	require.Equal(t, "ready", state)
	require.Equal(t, "HI\n", drainOutput(sub))
}

func TestSessionInputRoundTrip(t *testing.T) {
	session, _, sub := newTestSession(t)
	_, err := session.submitLine(`10 INPUT "N"; N`)
	require.NoError(t, err)
	drainOutput(sub)

	state, err := session.submitLine("RUN")
	require.NoError(t, err)
	require.Equal(t, "needs_input", state)
	require.Equal(t, "N? ", drainOutput(sub))

	state, err = session.submitLine("5")
	require.NoError(t, err)
	require.Equal(t, "ready", state)
}

func TestSessionGetRoundTrip(t *testing.T) {
	session, _, sub := newTestSession(t)
	_, err := session.submitLine(`10 GET A$`)
	require.NoError(t, err)
	_, err = session.submitLine(`20 PRINT A$`)
	require.NoError(t, err)
	drainOutput(sub)

	state, err := session.submitLine("RUN")
	require.NoError(t, err)
	require.Equal(t, "needs_char", state)

	state, err = session.submitLine("Q")
	require.NoError(t, err)
	require.Equal(t, "ready", state)
	require.Equal(t, "Q\n", drainOutput(sub))
}

func TestSessionLineDeletion(t *testing.T) {
	session, _, sub := newTestSession(t)
	_, err := session.submitLine(`10 PRINT "A"`)
	require.NoError(t, err)
	_, err = session.submitLine(`20 PRINT "B"`)
	require.NoError(t, err)
	_, err = session.submitLine("20")
	require.NoError(t, err)
	drainOutput(sub)

	_, err = session.submitLine("RUN")
	require.NoError(t, err)
	require.Equal(t, "A\n", drainOutput(sub))
}

func TestSessionProgramEditClearsVariables(t *testing.T) {
	session, _, sub := newTestSession(t)
	_, err := session.submitLine("10 X=5")
	require.NoError(t, err)
	_, err = session.submitLine("RUN")
	require.NoError(t, err)
	drainOutput(sub)

	_, err = session.submitLine(`20 PRINT "Z"`)
	require.NoError(t, err)

	_, err = session.submitLine("PRINT X")
	require.NoError(t, err)
	require.Equal(t, " 0 \n", drainOutput(sub))
}

func TestSessionRuntimeErrorReportsAndContinues(t *testing.T) {
	session, _, sub := newTestSession(t)
	_, err := session.submitLine("PRINT 1")
	require.NoError(t, err)
	drainOutput(sub)

	state, err := session.submitLine("RETURN")
	require.NoError(t, err)
	require.Equal(t, "ready", state)
	require.Contains(t, drainOutput(sub), "?RETURN WITHOUT GOSUB ERROR")

	_, err = session.submitLine("PRINT 2")
	require.NoError(t, err)
	require.Equal(t, " 2 \n", drainOutput(sub))
}

func TestSessionManagerLifecycle(t *testing.T) {
	b := NewBroadcaster()
	sm := NewSessionManager(b)
	require.Equal(t, 0, sm.Count())

	session, err := sm.CreateSession()
	require.NoError(t, err)
	require.Equal(t, 1, sm.Count())

	got, err := sm.GetSession(session.ID)
	require.NoError(t, err)
	require.Same(t, session, got)

	require.NoError(t, sm.DestroySession(session.ID))
	require.Equal(t, 0, sm.Count())

	_, err = sm.GetSession(session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
