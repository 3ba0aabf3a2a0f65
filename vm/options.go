package vm

import (
	"github.com/risor-io/quarry/object"
	"github.com/rs/zerolog"
)

// Option is a configuration function for an InterpreterState.
type Option func(*InterpreterState)

// WithRecursionLimit sets the maximum depth of nested evaluations. Values
// <= 0 are ignored. The default is DefaultRecursionLimit.
func WithRecursionLimit(limit int) Option {
	return func(interp *InterpreterState) {
		if limit > 0 {
			interp.recursionLimit.Store(int64(limit))
		}
	}
}

// WithFramePoolCapacity sets how many disposed frames are kept for reuse.
// Zero disables pooling. The default is DefaultFramePoolCapacity.
func WithFramePoolCapacity(capacity int) Option {
	return func(interp *InterpreterState) {
		if capacity >= 0 {
			interp.pool = NewFramePool(capacity)
		}
	}
}

// WithPendingCallCapacity sets the size of the pending-call queue.
func WithPendingCallCapacity(capacity int) Option {
	return func(interp *InterpreterState) {
		if capacity > 0 {
			interp.pending.capacity = capacity
		}
	}
}

// WithEvaluator sets the bytecode loop used to run frames.
func WithEvaluator(evaluator Evaluator) Option {
	return func(interp *InterpreterState) {
		interp.evaluator = evaluator
	}
}

// WithLogger sets the logger used by the interpreter.
func WithLogger(logger zerolog.Logger) Option {
	return func(interp *InterpreterState) {
		interp.logger = logger
	}
}

// WithCollectorThreshold sets how many container allocations since the last
// collection make an evaluation of this interpreter run the cycle collector.
// Zero disables automatic collection. The setting belongs to the
// interpreter; the shared collector's own threshold is not changed. The
// default is object.DefaultThreshold.
func WithCollectorThreshold(threshold int) Option {
	return func(interp *InterpreterState) {
		if threshold >= 0 {
			interp.gcThreshold = threshold
		}
	}
}

// WithObserver installs an observer as the trace hook of every thread
// state created by the interpreter.
//
// Observer methods are called synchronously during evaluation, so
// implementations should be fast. Returning false from any observer method
// interrupts evaluation.
func WithObserver(observer Observer) Option {
	return func(interp *InterpreterState) {
		interp.observer = observer
	}
}

// WithBuiltins binds additional values in the shared builtins namespace.
func WithBuiltins(builtins map[string]object.Object) Option {
	return func(interp *InterpreterState) {
		for name, value := range builtins {
			interp.builtins.SetItem(name, value)
		}
	}
}
