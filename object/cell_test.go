package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellBasics(t *testing.T) {
	v := NewInt(42)
	c := NewCell(v)
	require.Equal(t, CELL, c.Type())
	require.Equal(t, v, c.Get())
	require.Equal(t, int64(2), RefCount(v))
	require.True(t, IsTracked(c))
	require.False(t, c.IsEmpty())
}

func TestCellSetReleasesPrevious(t *testing.T) {
	first := NewInt(1)
	second := NewInt(2)
	c := NewCell(first)
	c.Set(second)
	require.Equal(t, int64(1), RefCount(first))
	require.Equal(t, int64(2), RefCount(second))
	require.Equal(t, second, c.Get())

	c.Set(nil)
	require.True(t, c.IsEmpty())
	require.Nil(t, c.Get())
	require.Equal(t, int64(1), RefCount(second))
}

func TestCellEmpty(t *testing.T) {
	c := NewCell(nil)
	require.Nil(t, c.Get())
	require.Equal(t, "cell()", c.String())
}

func TestCellEquals(t *testing.T) {
	c1 := NewCell(NewInt(1))
	c2 := NewCell(NewInt(1))
	require.True(t, c1.Equals(c1))
	require.False(t, c1.Equals(c2))
	require.False(t, c1.Equals(NewInt(1)))
}

func TestCellDestroyReleasesContents(t *testing.T) {
	v := NewStr("v")
	c := NewCell(v)
	Unref(c)
	require.True(t, IsDead(c))
	require.Equal(t, int64(1), RefCount(v))
}

func TestCellCycleIsCollected(t *testing.T) {
	gc := NewCollector()
	c := NewCell(nil)
	l := NewList()
	isolate(gc, c, l)
	l.Append(c)
	c.Set(l)
	Unref(c)
	Unref(l)
	require.Equal(t, 2, gc.Collect())
	require.True(t, IsDead(c))
	require.True(t, IsDead(l))
}
