package vm

import (
	"testing"

	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
	"github.com/stretchr/testify/require"
)

func newLocalsFrame(t *testing.T, ts *ThreadState) *Frame {
	t.Helper()
	code := newTestCode("fn", functionFlags, []string{"v0", "v1"}, withCells("y"), withFree("z"))
	globals := object.NewDict(nil)
	f, err := NewFrame(ts, code, globals, nil)
	object.Unref(globals)
	require.NoError(t, err)
	t.Cleanup(func() { object.Unref(f) })
	return f
}

func TestFastToLocals(t *testing.T) {
	ts := newTestThread(t, nil)
	f := newLocalsFrame(t, ts)
	setLocal(f, 0, object.NewInt(10))
	setDeref(f, 0, object.NewInt(20))
	setLocal(f, 3, object.NewCell(nil))

	require.Nil(t, f.Locals())
	f.FastToLocals()
	locals := f.Locals()
	require.NotNil(t, locals)
	require.Equal(t, []string{"v0", "y"}, locals.Keys())
	v0, _ := locals.GetItem("v0")
	require.Equal(t, int64(10), intValue(t, v0))
	y, _ := locals.GetItem("y")
	require.Equal(t, int64(20), intValue(t, y))

	// Deleting a name and syncing back with clear empties the slot.
	require.NoError(t, locals.DelItem("v0"))
	f.LocalsToFast(true)
	require.Nil(t, f.Local(0))
	require.Equal(t, int64(20), intValue(t, f.Deref(0)))

	// Emptied slots are removed on the next flush.
	setItem(locals, "v1", object.NewInt(1))
	f.SetLocal(1, nil)
	f.FastToLocals()
	_, found := locals.GetItem("v1")
	require.False(t, found)
}

func TestLocalsToFastWithoutClear(t *testing.T) {
	ts := newTestThread(t, nil)
	f := newLocalsFrame(t, ts)
	setLocal(f, 0, object.NewInt(1))
	setLocal(f, 1, object.NewInt(2))
	f.FastToLocals()

	require.NoError(t, f.Locals().DelItem("v0"))
	replacement := object.NewInt(5)
	defer object.Unref(replacement)
	f.Locals().SetItem("v1", replacement)
	f.LocalsToFast(false)
	require.Equal(t, int64(1), intValue(t, f.Local(0)))
	require.Same(t, replacement, f.Local(1))
}

func TestFastLocalsRoundTripPreservesIdentity(t *testing.T) {
	ts := newTestThread(t, nil)
	f := newLocalsFrame(t, ts)
	a := object.NewList()
	defer object.Unref(a)
	a.Append(object.True)
	f.SetLocal(0, a)
	setDeref(f, 0, object.NewStr("cell"))
	freeCell := object.NewCell(object.True)
	setLocal(f, 3, freeCell)

	before := f.Fast()
	cellValue := f.Deref(0)
	f.FastToLocals()
	f.LocalsToFast(false)
	require.Equal(t, before, f.Fast())
	require.Same(t, a, f.Local(0))
	require.Same(t, cellValue, f.Deref(0))
	require.Same(t, freeCell, f.Cell(1))
	// Held by the test, the slot and the locals dict.
	require.Equal(t, int64(3), object.RefCount(a))
}

func TestLocalsToFastWithoutLocalsIsNoop(t *testing.T) {
	ts := newTestThread(t, nil)
	f := newLocalsFrame(t, ts)
	setLocal(f, 0, object.NewInt(1))
	f.LocalsToFast(true)
	require.Equal(t, int64(1), intValue(t, f.Local(0)))
}

func TestFastLocalsPreservePendingError(t *testing.T) {
	ts := newTestThread(t, nil)
	f := newLocalsFrame(t, ts)
	boom := errz.New(errz.ErrValue, "boom")
	ts.Raise(boom)

	setLocal(f, 0, object.NewInt(1))
	f.FastToLocals()
	require.True(t, ts.Occurred())
	require.Same(t, boom, ts.Err())

	f.LocalsToFast(true)
	require.Same(t, boom, ts.Err())
	ts.ClearErr()
}

func TestMapToDictAndBack(t *testing.T) {
	names := []string{"a", "b", "c"}
	one := object.NewInt(1)
	c := object.NewStr("c")
	defer func() {
		object.Unref(one)
		object.Unref(c)
	}()
	values := []object.Object{one, nil, c}
	dict := object.NewDict(map[string]object.Object{"b": object.True})
	defer object.Unref(dict)

	mapToDict(names, values, dict, false)
	require.Equal(t, []string{"a", "c"}, dict.Keys())

	out := make([]object.Object, 3)
	out[1] = object.False
	dictToMap(names, out, dict, false, false)
	require.Same(t, one, out[0])
	require.Same(t, object.False, out[1])

	dictToMap(names, out, dict, false, true)
	require.Nil(t, out[1])
	for _, o := range out {
		object.XUnref(o)
	}
}
