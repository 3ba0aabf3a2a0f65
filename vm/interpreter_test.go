package vm

import (
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
	"github.com/stretchr/testify/require"
)

func TestNewInterpreter(t *testing.T) {
	interp := NewInterpreter(WithBuiltins(map[string]object.Object{"answer": object.NewInt(42)}))
	defer func() { require.NoError(t, interp.Close()) }()

	builtins := interp.Builtins()
	for _, name := range []string{"None", "True", "False", "answer"} {
		_, ok := builtins.GetItem(name)
		require.True(t, ok, name)
	}
	m, ok := interp.Module(BuiltinModuleName)
	require.True(t, ok)
	require.Same(t, builtins, m.Dict())
	require.Equal(t, DefaultRecursionLimit, interp.RecursionLimit())
	require.Equal(t, DefaultFramePoolCapacity, interp.Pool().Capacity())
}

func TestAddModule(t *testing.T) {
	interp := NewInterpreter()
	defer func() { require.NoError(t, interp.Close()) }()

	_, ok := interp.Module("facts")
	require.False(t, ok)
	m := interp.AddModule("facts")
	require.Same(t, m, interp.AddModule("facts"))
	name, _ := m.Dict().GetItem("__name__")
	require.Equal(t, `"facts"`, name.Inspect())
	require.Equal(t, []string{BuiltinModuleName, "facts"}, interp.Modules().Keys())
}

func TestNewGlobals(t *testing.T) {
	interp := NewInterpreter()
	defer func() { require.NoError(t, interp.Close()) }()

	globals := interp.NewGlobals("__main__")
	b, ok := globals.GetItem("__builtins__")
	require.True(t, ok)
	m, _ := interp.Module(BuiltinModuleName)
	require.Same(t, m, b)
	name, _ := globals.GetItem("__name__")
	require.Equal(t, `"__main__"`, name.Inspect())
}

func TestSetRecursionLimit(t *testing.T) {
	interp := NewInterpreter()
	defer func() { require.NoError(t, interp.Close()) }()

	err := interp.SetRecursionLimit(0)
	require.True(t, errz.IsKind(err, errz.ErrValue))
	require.Equal(t, DefaultRecursionLimit, interp.RecursionLimit())
	require.NoError(t, interp.SetRecursionLimit(50))
	require.Equal(t, 50, interp.RecursionLimit())
}

func TestThreadStateRegistration(t *testing.T) {
	interp := NewInterpreter()
	a := NewThreadState(interp)
	b := NewThreadState(interp)
	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, []*ThreadState{a, b}, interp.Threads())
	require.Same(t, interp, a.Interp())

	require.NoError(t, a.Delete())
	require.Equal(t, []*ThreadState{b}, interp.Threads())
	require.EqualError(t, a.Delete(), "system error: "+a.String()+" is not registered")

	require.NoError(t, interp.Close())
	require.Empty(t, interp.Threads())
	require.NoError(t, interp.Close())
}

func TestCloseReportsFailures(t *testing.T) {
	interp := NewInterpreter()
	ts := NewThreadState(interp)
	f, err := NewFrame(ts, newTestCode("main", 0, nil), object.NewDict(nil), nil)
	require.NoError(t, err)
	ts.frame = f
	require.NoError(t, interp.AddPendingCall(func() error { return nil }))

	err = interp.Close()
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	require.Len(t, merr.Errors, 2)
	require.Contains(t, merr.Errors[0].Error(), "still executing")
	require.Contains(t, merr.Errors[1].Error(), "1 pending calls never ran")
	require.Nil(t, ts.Frame())
	object.Unref(f)
}

func TestThreadStateDict(t *testing.T) {
	ts := newTestThread(t, nil)
	d := ts.Dict()
	require.Same(t, d, ts.Dict())
	d.SetItem("k", object.True)
	require.NoError(t, ts.Clear())
	require.NotSame(t, d, ts.Dict())
}

func TestExceptionState(t *testing.T) {
	ts := newTestThread(t, nil)
	require.False(t, ts.Occurred())
	require.Nil(t, ts.Err())

	first := errz.New(errz.ErrKey, "first")
	ts.Raise(first)
	require.True(t, ts.Occurred())
	require.Same(t, first, ts.Err())

	info := ts.Fetch()
	require.False(t, ts.Occurred())
	require.Equal(t, `"key error"`, info.Type.Inspect())
	require.Nil(t, info.Traceback)

	second := errz.New(errz.ErrValue, "second")
	ts.Raise(second)
	ts.Restore(info)
	require.Same(t, first, ts.Err())

	ts.ClearErr()
	require.False(t, ts.Occurred())
	require.True(t, ts.Fetch().IsZero())
}

func TestRaiseRecordsTraceback(t *testing.T) {
	code := newTestCode("main", 0, nil)
	var tb object.Object
	ts := newTestThread(t, EvaluatorFunc(func(ts *ThreadState, f *Frame) (object.Object, error) {
		err := errz.New(errz.ErrName, "x is not defined")
		ts.Raise(err)
		tb = ts.curExc.Traceback
		return nil, err
	}))
	_, err := EvalCode(ts, code, ts.Interp().NewGlobals("m"), nil)
	require.EqualError(t, err, "name error: x is not defined")
	frame, ok := tb.(*Frame)
	require.True(t, ok)
	require.Same(t, code, frame.Code())
	require.Equal(t, FrameRaised, frame.State())
	ts.ClearErr()
	require.Equal(t, FrameDisposed, frame.State())
}

func TestExecutionLock(t *testing.T) {
	interp := NewInterpreter()
	defer func() { require.NoError(t, interp.Close()) }()
	a := NewThreadState(interp)
	b := NewThreadState(interp)

	AcquireThread(a)
	require.Same(t, a, CurrentThreadState())

	var wg sync.WaitGroup
	var seen *ThreadState
	wg.Add(1)
	go func() {
		defer wg.Done()
		AcquireThread(b)
		seen = CurrentThreadState()
		ReleaseThread(b)
	}()

	WithoutLock(func() {
		wg.Wait()
	})
	require.Same(t, b, seen)
	require.Same(t, a, CurrentThreadState())

	saved := SaveThread()
	require.Same(t, a, saved)
	require.Nil(t, CurrentThreadState())
	RestoreThread(saved)
	require.Same(t, a, CurrentThreadState())

	require.Panics(t, func() { ReleaseThread(b) })
	SwapThreadState(nil)
	gil.Unlock()
}

func TestCloseWhileHoldingLock(t *testing.T) {
	interp := NewInterpreter()
	ts := NewThreadState(interp)
	AcquireThread(ts)
	require.NoError(t, interp.Close())
	require.Same(t, ts, CurrentThreadState())
	require.Empty(t, interp.Threads())
	require.NotPanics(t, func() { ReleaseThread(ts) })
	require.Nil(t, CurrentThreadState())
}

func TestCloseTakesLock(t *testing.T) {
	interp := NewInterpreter()
	NewThreadState(interp)

	other := NewInterpreter()
	ts := NewThreadState(other)
	AcquireThread(ts)
	done := make(chan error, 1)
	go func() { done <- interp.Close() }()
	WithoutLock(func() {
		require.NoError(t, <-done)
	})
	require.Empty(t, interp.Threads())
	ReleaseThread(ts)
	require.NoError(t, other.Close())

	require.True(t, gil.TryLock())
	gil.Unlock()
}
