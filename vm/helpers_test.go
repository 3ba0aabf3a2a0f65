package vm

import (
	"testing"

	"github.com/risor-io/quarry/bytecode"
	"github.com/risor-io/quarry/object"
	"github.com/stretchr/testify/require"
)

// dispatch routes each frame to the evaluator registered for its code.
type dispatch map[*bytecode.Code]EvaluatorFunc

func (d dispatch) EvalFrame(ts *ThreadState, f *Frame) (object.Object, error) {
	if fn, ok := d[f.Code()]; ok {
		return fn(ts, f)
	}
	return object.None, nil
}

func returnNone(ts *ThreadState, f *Frame) (object.Object, error) {
	return object.None, nil
}

// newTestThread returns a thread state holding the execution lock on a
// fresh interpreter. Both are torn down when the test ends.
func newTestThread(t *testing.T, evaluator Evaluator, opts ...Option) *ThreadState {
	t.Helper()
	if evaluator == nil {
		evaluator = EvaluatorFunc(returnNone)
	}
	opts = append([]Option{WithEvaluator(evaluator)}, opts...)
	interp := NewInterpreter(opts...)
	ts := NewThreadState(interp)
	AcquireThread(ts)
	t.Cleanup(func() {
		defer ReleaseThread(ts)
		require.NoError(t, interp.Close())
	})
	return ts
}

func newTestCode(name string, flags bytecode.Flags, varNames []string, opts ...func(*bytecode.CodeParams)) *bytecode.Code {
	params := bytecode.CodeParams{
		Name:      name,
		Filename:  "test.q",
		FirstLine: 1,
		StackSize: 4,
		Flags:     flags,
		VarNames:  varNames,
	}
	for _, opt := range opts {
		opt(&params)
	}
	return bytecode.NewCode(params)
}

func withArgs(n int) func(*bytecode.CodeParams) {
	return func(p *bytecode.CodeParams) { p.ArgCount = n }
}

func withCells(names ...string) func(*bytecode.CodeParams) {
	return func(p *bytecode.CodeParams) { p.CellVars = names }
}

func withFree(names ...string) func(*bytecode.CodeParams) {
	return func(p *bytecode.CodeParams) { p.FreeVars = names }
}

func withStackSize(n int) func(*bytecode.CodeParams) {
	return func(p *bytecode.CodeParams) { p.StackSize = n }
}

const functionFlags = bytecode.FlagOptimized | bytecode.FlagNewLocals

func intValue(t *testing.T, o object.Object) int64 {
	t.Helper()
	i, ok := o.(*object.Int)
	require.True(t, ok, "expected int, got %v", o)
	return i.Value()
}

// setLocal stores value in fast slot i and drops the caller's reference.
func setLocal(f *Frame, i int, value object.Object) {
	f.SetLocal(i, value)
	object.XUnref(value)
}

// setDeref stores value in the cell for deref index i and drops the caller's
// reference.
func setDeref(f *Frame, i int, value object.Object) {
	f.SetDeref(i, value)
	object.XUnref(value)
}

// setItem binds value under key in d and drops the caller's reference.
func setItem(d *object.Dict, key string, value object.Object) {
	d.SetItem(key, value)
	object.Unref(value)
}

// addSolution appends value to f's accumulator and drops the caller's
// reference.
func addSolution(f *Frame, value object.Object) error {
	defer object.Unref(value)
	return f.AddSolution(value)
}
