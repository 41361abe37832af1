package repl

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandHistoryAdd(t *testing.T) {
	h := NewCommandHistory()
	h.Add(`10 PRINT "HI"`)
	h.Add("RUN")
	h.Add("LIST")

	require.Equal(t, 3, h.Size())
	require.Equal(t, []string{`10 PRINT "HI"`, "RUN", "LIST"}, h.All())
}

func TestCommandHistoryIgnoresBlankAndRepeat(t *testing.T) {
	h := NewCommandHistory()
	h.Add("RUN")
	h.Add("")
	h.Add("RUN")
	h.Add("LIST")

	require.Equal(t, 2, h.Size())
	require.Equal(t, []string{"RUN", "LIST"}, h.All())
}

func TestCommandHistoryPreviousAndNext(t *testing.T) {
	h := NewCommandHistory()
	h.Add("10 A=1")
	h.Add("20 A=2")
	h.Add("30 A=3")

	require.Equal(t, "30 A=3", h.Previous())
	require.Equal(t, "20 A=2", h.Previous())
	require.Equal(t, "10 A=1", h.Previous())
	require.Equal(t, "", h.Previous())

	require.Equal(t, "20 A=2", h.Next())
	require.Equal(t, "30 A=3", h.Next())
	require.Equal(t, "", h.Next())
}

func TestCommandHistoryLast(t *testing.T) {
	h := NewCommandHistory()
	require.Equal(t, "", h.Last())
	h.Add("RUN")
	h.Add("LIST")
	require.Equal(t, "LIST", h.Last())
	require.Equal(t, "LIST", h.Last(), "Last must not move the navigation cursor")
}

func TestCommandHistoryClear(t *testing.T) {
	h := NewCommandHistory()
	h.Add("RUN")
	h.Add("LIST")
	h.Clear()

	require.Equal(t, 0, h.Size())
	require.Equal(t, "", h.Last())
}

func TestCommandHistoryMaxSize(t *testing.T) {
	h := NewCommandHistory()
	for i := 0; i < 1100; i++ {
		h.Add(strconv.Itoa(i) + " PRINT I")
	}
	require.Equal(t, 1000, h.Size())
	require.Equal(t, "1099 PRINT I", h.Last())
}

func TestCommandHistoryEmpty(t *testing.T) {
	h := NewCommandHistory()
	require.Equal(t, 0, h.Size())
	require.Equal(t, "", h.Last())
	require.Equal(t, "", h.Previous())
	require.Equal(t, "", h.Next())
}
