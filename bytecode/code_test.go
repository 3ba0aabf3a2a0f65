package bytecode

import (
	"testing"

	"github.com/risor-io/quarry/op"
	"github.com/stretchr/testify/require"
)

func TestNewCodeImmutability(t *testing.T) {
	instructions := []op.Code{op.LoadFast, 0, op.ReturnValue}
	constants := []any{42, "hello"}
	varNames := []string{"a", "b"}
	cellVars := []string{"c"}
	locations := []SourceLocation{{Line: 1, Column: 1}, {Line: 1, Column: 5}}

	code := NewCode(CodeParams{
		Name:         "test_code",
		ArgCount:     1,
		Instructions: instructions,
		Constants:    constants,
		VarNames:     varNames,
		CellVars:     cellVars,
		Locations:    locations,
	})

	instructions[0] = op.LoadConst
	constants[0] = 99
	varNames[0] = "modified"
	cellVars[0] = "modified"
	locations[0] = SourceLocation{Line: 999, Column: 999}

	require.Equal(t, op.LoadFast, code.InstructionAt(0))
	require.Equal(t, 42, code.ConstantAt(0))
	require.Equal(t, "a", code.VarName(0))
	require.Equal(t, "c", code.CellVar(0))
	require.Equal(t, 1, code.LocationAt(0).Line)

	names := code.VarNames()
	names[1] = "changed"
	require.Equal(t, "b", code.VarName(1))
}

func TestSlotLayout(t *testing.T) {
	code := NewCode(CodeParams{
		VarNames: []string{"x", "y"},
		CellVars: []string{"z"},
		FreeVars: []string{"outer1", "outer2"},
	})
	require.Equal(t, 2, code.VarCount())
	require.Equal(t, 1, code.CellCount())
	require.Equal(t, 2, code.FreeCount())
	require.Equal(t, 5, code.SlotCount())
	require.False(t, code.Flags().Has(FlagNoFree))
}

func TestNoFreeDerived(t *testing.T) {
	code := NewCode(CodeParams{VarNames: []string{"x"}})
	require.True(t, code.Flags().Has(FlagNoFree))

	code = NewCode(CodeParams{FreeVars: []string{"x"}, Flags: FlagNoFree})
	require.False(t, code.Flags().Has(FlagNoFree))
}

func TestFlags(t *testing.T) {
	code := NewCode(CodeParams{
		Flags:    FlagPredicate | FlagOptimized | FlagNewLocals,
		FreeVars: []string{"x"},
	})
	require.True(t, code.IsPredicate())
	require.False(t, code.IsConjunction())
	require.False(t, code.IsGenerator())
	require.Equal(t, "OPTIMIZED|NEWLOCALS|PREDICATE", code.Flags().String())
	require.Equal(t, "0", Flags(0).String())
}

func TestLocationFallsBackToFirstLine(t *testing.T) {
	code := NewCode(CodeParams{FirstLine: 7})
	require.Equal(t, 7, code.LocationAt(3).Line)
	require.Equal(t, 7, code.LocationAt(-1).Line)
}

func TestStats(t *testing.T) {
	code := NewCode(CodeParams{
		Instructions: []op.Code{op.LoadConst, 0, op.ReturnValue},
		Constants:    []any{1},
		VarNames:     []string{"a"},
		StackSize:    4,
	})
	stats := code.Stats()
	require.Equal(t, 3, stats.InstructionCount)
	require.Equal(t, 1, stats.ConstantCount)
	require.Equal(t, 1, stats.SlotCount)
	require.Equal(t, 4, stats.StackSize)
}

func TestNames(t *testing.T) {
	names := []string{"is_even", "solve"}
	code := NewCode(CodeParams{Names: names})
	names[0] = "changed"
	require.Equal(t, 2, code.NameCount())
	require.Equal(t, "is_even", code.NameAt(0))
	require.Equal(t, "solve", code.NameAt(1))
}
