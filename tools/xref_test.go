package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXRefFindsUndefinedGotoTarget(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `GOTO 999`,
	})

	gen := NewXRefGenerator()
	gen.Generate(s)

	undefined := gen.GetUndefined()
	require.Len(t, undefined, 1)
	require.Equal(t, 999, undefined[0].LineNumber)
	require.Len(t, undefined[0].References, 1)
	require.Equal(t, RefGoto, undefined[0].References[0].Type)
	require.Equal(t, 10, undefined[0].References[0].FromLine)
}

func TestXRefGosubAndReturnBothDefined(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `GOSUB 100`,
		20: `END`,
		100: `RETURN`,
	})

	gen := NewXRefGenerator()
	gen.Generate(s)

	require.Empty(t, gen.GetUndefined())

	sym, ok := gen.GetSymbols()[100]
	require.True(t, ok)
	require.True(t, sym.Defined)
	require.Len(t, sym.References, 1)
	require.Equal(t, RefGosub, sym.References[0].Type)
}

func TestXRefIfThenLiteralTarget(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `IF 1 THEN 50`,
		50: `PRINT "OK"`,
	})

	gen := NewXRefGenerator()
	gen.Generate(s)

	require.Empty(t, gen.GetUndefined())
	sym := gen.GetSymbols()[50]
	require.Len(t, sym.References, 1)
	require.Equal(t, RefThen, sym.References[0].Type)
}

func TestXRefIfThenStatementIsNotATarget(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `IF 1 THEN PRINT "HI"`,
	})

	gen := NewXRefGenerator()
	gen.Generate(s)

	// No line number follows THEN, so no reference should be recorded at all.
	for _, sym := range gen.GetSymbols() {
		for _, ref := range sym.References {
			require.NotEqual(t, RefThen, ref.Type)
		}
	}
}

func TestXRefOnGotoListRecordsEveryTarget(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10:  `ON 1 GOTO 100, 200, 300`,
		100: `PRINT "A"`,
		200: `PRINT "B"`,
	})

	gen := NewXRefGenerator()
	gen.Generate(s)

	undefined := gen.GetUndefined()
	require.Len(t, undefined, 1)
	require.Equal(t, 300, undefined[0].LineNumber)
	require.Equal(t, RefOnGoto, undefined[0].References[0].Type)

	sym100 := gen.GetSymbols()[100]
	require.Equal(t, RefOnGoto, sym100.References[0].Type)
}

func TestXRefOnGosubUsesOnGosubType(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10:  `ON 1 GOSUB 100`,
		100: `RETURN`,
	})

	gen := NewXRefGenerator()
	gen.Generate(s)

	sym := gen.GetSymbols()[100]
	require.Equal(t, RefOnGosub, sym.References[0].Type)
}

func TestXRefGetUnreferenced(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `GOTO 30`,
		20: `PRINT "DEAD"`,
		30: `END`,
	})

	gen := NewXRefGenerator()
	gen.Generate(s)

	unreferenced := gen.GetUnreferenced()
	require.Len(t, unreferenced, 2) // line 10 (nothing jumps to it) and line 20
	var nums []int
	for _, sym := range unreferenced {
		nums = append(nums, sym.LineNumber)
	}
	require.Contains(t, nums, 10)
	require.Contains(t, nums, 20)
	require.NotContains(t, nums, 30)
}

func TestXRefReportString(t *testing.T) {
	s := newTestStore(t, map[int]string{
		10: `GOTO 999`,
	})

	report := GenerateXRef(s)
	require.Contains(t, report, "999")
	require.Contains(t, report, "[undefined]")
	require.Contains(t, report, "GOTO")
}
