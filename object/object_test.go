package object

import (
	"errors"
	"testing"

	"github.com/risor-io/quarry/errz"
	"github.com/stretchr/testify/require"
)

func TestNewObjectHasOneReference(t *testing.T) {
	i := NewInt(3)
	require.Equal(t, int64(1), RefCount(i))
	Ref(i)
	require.Equal(t, int64(2), RefCount(i))
	Unref(i)
	require.Equal(t, int64(1), RefCount(i))
	require.False(t, IsDead(i))
	Unref(i)
	require.True(t, IsDead(i))
}

func TestUnrefBelowZeroIsFatal(t *testing.T) {
	s := NewStr("x")
	Unref(s)
	require.PanicsWithError(t, "invariant violated: negative reference count on str", func() {
		Unref(s)
	})
}

func TestRefOnDestroyedIsFatal(t *testing.T) {
	s := NewStr("x")
	Unref(s)
	require.Panics(t, func() { Ref(s) })
}

func TestImmortals(t *testing.T) {
	for _, o := range []Object{None, True, False} {
		before := RefCount(o)
		for i := 0; i < 10; i++ {
			Unref(o)
		}
		Ref(o)
		require.Equal(t, before, RefCount(o))
		require.False(t, IsDead(o))
	}
}

func TestXRefXUnrefNil(t *testing.T) {
	var d *Dict
	require.Nil(t, XRef(d))
	XUnref(d)

	var o Object
	require.Nil(t, XRef(o))
	XUnref(o)
}

func TestReplace(t *testing.T) {
	a := NewStr("a")
	b := NewStr("b")
	var slot Object
	Replace(&slot, Object(a))
	require.Equal(t, int64(2), RefCount(a))
	Replace(&slot, Object(b))
	require.Equal(t, int64(1), RefCount(a))
	require.Equal(t, int64(2), RefCount(b))
	Replace(&slot, nil)
	require.Nil(t, slot)
	require.Equal(t, int64(1), RefCount(b))
}

func TestDestroyReleasesChildren(t *testing.T) {
	item := NewStr("item")
	l := NewList(item)
	require.Equal(t, int64(2), RefCount(item))
	Unref(l)
	require.True(t, IsDead(l))
	require.False(t, IsTracked(l))
	require.Equal(t, int64(1), RefCount(item))
	Unref(item)
}

func TestFinalizerRunsOnce(t *testing.T) {
	count := 0
	n := newNode("n", &count)
	Unref(n)
	require.Equal(t, 1, count)
	require.True(t, IsDead(n))
}

func TestTruthy(t *testing.T) {
	require.False(t, Truthy(nil))
	require.False(t, Truthy(None))
	require.False(t, Truthy(False))
	require.True(t, Truthy(True))
	require.False(t, Truthy(NewInt(0)))
	require.True(t, Truthy(NewInt(2)))
	require.False(t, Truthy(NewStr("")))
	require.True(t, Truthy(NewList(NewInt(1))))
	require.False(t, Truthy(NewDict(nil)))
}

func TestInspect(t *testing.T) {
	tests := []struct {
		input    Object
		expected string
	}{
		{None, "None"},
		{True, "True"},
		{NewInt(-3), "-3"},
		{NewStr("foo"), `"foo"`},
		{NewList(NewInt(1), NewInt(2)), "[1, 2]"},
		{NewTuple(NewInt(1)), "(1,)"},
		{NewTuple(NewInt(1), NewInt(2)), "(1, 2)"},
		{NewDict(map[string]Object{"b": NewInt(2), "a": NewInt(1)}), "{a: 1, b: 2}"},
		{NewCell(nil), "cell()"},
		{NewCell(NewInt(4)), "cell(4)"},
		{NewModule("m"), "module(m)"},
		{NewError(errors.New("kaboom")), `error("kaboom")`},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, tt.input.Inspect())
	}
}

func TestEquals(t *testing.T) {
	require.True(t, NewInt(1).Equals(NewInt(1)))
	require.False(t, NewInt(1).Equals(NewStr("1")))
	require.True(t, NewList(NewInt(1)).Equals(NewList(NewInt(1))))
	require.False(t, NewList(NewInt(1)).Equals(NewList(NewInt(2))))
	require.True(t, NewTuple(NewStr("a")).Equals(NewTuple(NewStr("a"))))
	a := NewDict(map[string]Object{"x": NewInt(1)})
	b := NewDict(map[string]Object{"x": NewInt(1)})
	require.True(t, a.Equals(b))
	b.SetItem("y", None)
	require.False(t, a.Equals(b))
	m := NewModule("m")
	require.True(t, m.Equals(m))
	require.False(t, m.Equals(NewModule("m")))
}

func TestErrorKind(t *testing.T) {
	e := NewError(errz.Errorf(errz.ErrClone, "cannot clone frame"))
	require.Equal(t, errz.ErrClone, e.Kind())
	require.Equal(t, errz.ErrRuntime, NewError(errors.New("plain")).Kind())
}
