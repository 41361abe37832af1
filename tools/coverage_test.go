package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverageReportsDeadLines(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `PRINT "HI"`,
		20: `GOTO 40`,
		30: `PRINT "DEAD"`,
		40: `END`,
	})

	cov := NewCoverage(s, []CoverageEntry{
		{Line: 10, ExecutionCount: 1},
		{Line: 20, ExecutionCount: 1},
		{Line: 40, ExecutionCount: 1},
	})

	require.Equal(t, []int{30}, cov.DeadLines())
	assert.InDelta(t, 75.0, cov.Percent(), 0.01)
}

func TestCoverageAllLinesExecuted(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `PRINT "HI"`,
		20: `END`,
	})

	cov := NewCoverage(s, []CoverageEntry{
		{Line: 10, ExecutionCount: 1},
		{Line: 20, ExecutionCount: 1},
	})

	assert.Empty(t, cov.DeadLines())
	assert.InDelta(t, 100.0, cov.Percent(), 0.01)
	assert.Contains(t, cov.String(), "no dead lines")
}

func TestCoverageEmptyProgram(t *testing.T) {
	s := newTestStore(t, map[int]string{})

	cov := NewCoverage(s, nil)

	assert.Empty(t, cov.DeadLines())
	assert.InDelta(t, 100.0, cov.Percent(), 0.01)
}

func TestCoverageStringListsDeadLineNumbers(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `PRINT "HI"`,
		20: `PRINT "NEVER"`,
	})

	cov := NewCoverage(s, []CoverageEntry{{Line: 10, ExecutionCount: 3}})

	out := cov.String()
	assert.Contains(t, out, "#20")
	assert.Contains(t, out, "Coverage: 50.00%")
}
