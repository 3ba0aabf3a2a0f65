package vm

import (
	"github.com/risor-io/quarry/object"
)

// TraceEvent identifies why a trace or profile hook is called.
type TraceEvent uint8

const (
	TraceCall TraceEvent = iota
	TraceException
	TraceLine
	TraceReturn
)

func (e TraceEvent) String() string {
	switch e {
	case TraceCall:
		return "call"
	case TraceException:
		return "exception"
	case TraceLine:
		return "line"
	case TraceReturn:
		return "return"
	default:
		return "unknown"
	}
}

// TraceFunc is a trace or profile hook. obj is the value registered with
// the hook and arg depends on the event: the return value for TraceReturn,
// the error value for TraceException and nil otherwise. A hook that returns
// an error is removed and the error propagates from the evaluation.
type TraceFunc func(obj object.Object, f *Frame, event TraceEvent, arg object.Object) error

// SetTrace installs the trace hook, which sees every event. A nil fn
// removes it.
func (ts *ThreadState) SetTrace(fn TraceFunc, obj object.Object) {
	ts.traceFunc = fn
	object.Replace(&ts.traceObj, obj)
}

// SetProfile installs the profile hook, which sees every event except
// TraceLine. A nil fn removes it.
func (ts *ThreadState) SetProfile(fn TraceFunc, obj object.Object) {
	ts.profileFunc = fn
	object.Replace(&ts.profileObj, obj)
}

// IsTracing reports whether any hook is installed.
func (ts *ThreadState) IsTracing() bool {
	return ts.traceFunc != nil || ts.profileFunc != nil
}

// TraceLine reports a line event for f. Evaluators call it when the source
// line changes.
func (ts *ThreadState) TraceLine(f *Frame) error {
	return ts.callTrace(f, TraceLine, nil)
}

// callTrace invokes the installed hooks. Hooks are not re-entered while one
// of them is running.
func (ts *ThreadState) callTrace(f *Frame, event TraceEvent, arg object.Object) error {
	if ts.tracing > 0 || !ts.IsTracing() {
		return nil
	}
	ts.tracing++
	defer func() { ts.tracing-- }()

	if fn := ts.profileFunc; fn != nil && event != TraceLine {
		if err := fn(ts.profileObj, f, event, arg); err != nil {
			ts.SetProfile(nil, nil)
			return ts.fail(err)
		}
	}
	if fn := ts.traceFunc; fn != nil {
		if err := fn(ts.traceObj, f, event, arg); err != nil {
			ts.SetTrace(nil, nil)
			return ts.fail(err)
		}
	}
	return nil
}
