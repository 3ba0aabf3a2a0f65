package vm

import (
	"errors"

	"github.com/risor-io/quarry/bytecode"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
)

// Evaluator runs the bytecode of a frame. It returns a new reference to the
// frame's value. A generator evaluator calls Frame.Suspend before returning a
// yielded value.
type Evaluator interface {
	EvalFrame(ts *ThreadState, f *Frame) (object.Object, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ts *ThreadState, f *Frame) (object.Object, error)

func (fn EvaluatorFunc) EvalFrame(ts *ThreadState, f *Frame) (object.Object, error) {
	return fn(ts, f)
}

type missingEvaluator struct{}

func (missingEvaluator) EvalFrame(ts *ThreadState, f *Frame) (object.Object, error) {
	return nil, errz.Errorf(errz.ErrSystem, "no evaluator configured to run %s", f.Code().Name())
}

// EvalCode evaluates code with no arguments. See EvalCodeEx.
func EvalCode(ts *ThreadState, code *bytecode.Code, globals, locals *object.Dict) (object.Object, error) {
	return EvalCodeEx(ts, code, globals, locals, nil, nil, nil, nil)
}

// EvalCodeEx creates a frame for code, binds the arguments and runs it.
//
// Predicate code returns its solution list. Generator code is not run; a
// *Generator wrapping the frame is returned instead. Conjunction code runs
// on a clone of the calling frame's namespaces and ignores closure, since
// its free variables are part of that clone.
//
// The returned value is a new reference. Failures are also recorded as the
// error being propagated on ts.
func EvalCodeEx(
	ts *ThreadState,
	code *bytecode.Code,
	globals, locals *object.Dict,
	args []object.Object,
	kwargs []Keyword,
	defaults []object.Object,
	closure *object.Tuple,
) (object.Object, error) {
	ts.interp.maybeCollect()

	f, err := NewFrame(ts, code, globals, locals)
	if err != nil {
		return nil, err
	}
	if err := f.bindArguments(args, kwargs, defaults); err != nil {
		object.Unref(f)
		return nil, ts.fail(err)
	}
	if !code.IsConjunction() {
		if err := f.installClosure(closure); err != nil {
			object.Unref(f)
			return nil, ts.fail(err)
		}
	}
	if code.IsGenerator() {
		// The frame is resumed later from whatever frame calls Next.
		object.Replace(&f.back, nil)
		g := newGenerator(f)
		object.Unref(f)
		return g, nil
	}
	result, err := ts.runFrame(f)
	object.Unref(f)
	return result, err
}

// CallFunction evaluates fn with the given arguments, using its globals,
// defaults and closure.
func CallFunction(ts *ThreadState, fn *object.Function, args []object.Object, kwargs []Keyword) (object.Object, error) {
	var defaults []object.Object
	if d := fn.Defaults(); d != nil {
		defaults = d.Items()
	}
	return EvalCodeEx(ts, fn.Code(), fn.Globals(), nil, args, kwargs, defaults, fn.Closure())
}

// runFrame pushes f on ts and hands it to the evaluator. f.back must already
// be ts.frame.
func (ts *ThreadState) runFrame(f *Frame) (object.Object, error) {
	if err := ts.EnterRecursiveCall(""); err != nil {
		return nil, err
	}
	defer ts.LeaveRecursiveCall()
	if err := ts.Checkpoint(); err != nil {
		return nil, err
	}

	ts.frame = f
	defer func() { ts.frame = f.back }()
	f.state = FrameExecuting

	if f.code.IsGenerator() {
		f.exc, ts.excInfo = ts.excInfo, f.exc
		defer func() { f.exc, ts.excInfo = ts.excInfo, f.exc }()
	}

	if err := ts.callTrace(f, TraceCall, nil); err != nil {
		f.state = FrameRaised
		return nil, err
	}

	value, err := ts.interp.evaluator.EvalFrame(ts, f)
	if err != nil {
		object.XUnref(value)
		f.state = FrameRaised
		err = ts.fail(attachTraceback(err, f))
		exc := ts.curExc.Value
		if traceErr := ts.callTrace(f, TraceException, exc); traceErr != nil {
			err = traceErr
		}
		_ = ts.callTrace(f, TraceReturn, nil)
		return nil, err
	}
	if f.state == FrameExecuting {
		f.state = FrameReturned
	}
	if f.code.IsPredicate() && f.result != nil && f.state == FrameReturned {
		object.XUnref(value)
		value = object.Ref[object.Object](f.result)
	}
	if err := ts.callTrace(f, TraceReturn, value); err != nil {
		object.XUnref(value)
		f.state = FrameRaised
		return nil, err
	}
	return value, nil
}

func attachTraceback(err error, f *Frame) error {
	var e *errz.Error
	if errors.As(err, &e) && len(e.Stack) == 0 {
		e.Stack = f.Traceback()
	}
	return err
}
