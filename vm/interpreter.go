// Package vm implements the execution substrate of the predicate engine:
// interpreter and thread state, frames with their block stack and fast
// slots, conjunction forking, the frame pool and the evaluation entry points.
//
// The bytecode loop itself is supplied by the caller as an Evaluator. All
// engine-visible mutation is serialized by the global execution lock; see
// AcquireThread and SaveThread.
package vm

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
	"github.com/rs/zerolog"
)

const (
	// DefaultRecursionLimit is the default maximum evaluation depth.
	DefaultRecursionLimit = 1000

	// BuiltinModuleName is the registry name of the builtins module.
	BuiltinModuleName = "__builtin__"
)

// InterpreterState is the process-wide engine state shared by every thread
// state: the registered threads, the module registry, the builtins
// namespace, the frame pool and the pending-call queue.
type InterpreterState struct {
	headMu  sync.Mutex
	threads []*ThreadState

	modules  *object.Dict
	builtins *object.Dict

	pool           *FramePool
	evaluator      Evaluator
	observer       Observer
	collector      *object.Collector
	gcThreshold    int
	collections    uint64
	recursionLimit atomic.Int64
	pending        pendingCalls
	logger         zerolog.Logger
	closed         bool
}

// NewInterpreter creates an interpreter with an initialized builtins module.
func NewInterpreter(options ...Option) *InterpreterState {
	interp := &InterpreterState{
		modules:     object.NewDict(nil),
		pool:        NewFramePool(DefaultFramePoolCapacity),
		evaluator:   missingEvaluator{},
		collector:   object.DefaultCollector(),
		gcThreshold: object.DefaultThreshold,
		logger:      zerolog.Nop(),
	}
	interp.recursionLimit.Store(DefaultRecursionLimit)
	interp.pending.capacity = DefaultPendingCallCapacity

	builtinModule := interp.AddModule(BuiltinModuleName)
	interp.builtins = object.Ref(builtinModule.Dict())
	interp.builtins.SetItem("None", object.None)
	interp.builtins.SetItem("True", object.True)
	interp.builtins.SetItem("False", object.False)

	for _, opt := range options {
		opt(interp)
	}
	interp.logger.Debug().
		Int64("recursion_limit", interp.recursionLimit.Load()).
		Int("frame_pool_capacity", interp.pool.Capacity()).
		Int("gc_threshold", interp.gcThreshold).
		Msg("interpreter initialized")
	return interp
}

// Builtins returns the borrowed shared builtins namespace.
func (interp *InterpreterState) Builtins() *object.Dict {
	return interp.builtins
}

// Modules returns the borrowed module registry.
func (interp *InterpreterState) Modules() *object.Dict {
	return interp.modules
}

// Module returns the borrowed registered module with the given name.
func (interp *InterpreterState) Module(name string) (*object.Module, bool) {
	if interp.modules == nil {
		return nil, false
	}
	o, ok := interp.modules.GetItem(name)
	if !ok {
		return nil, false
	}
	m, ok := o.(*object.Module)
	return m, ok
}

// AddModule returns the borrowed module registered under name, creating and
// registering an empty one first if needed.
func (interp *InterpreterState) AddModule(name string) *object.Module {
	if m, ok := interp.Module(name); ok {
		return m
	}
	m := object.NewModule(name)
	interp.modules.SetItem(name, m)
	object.Unref(m)
	return m
}

// NewGlobals returns a new globals namespace for a module named name whose
// __builtins__ is the builtins module.
func (interp *InterpreterState) NewGlobals(name string) *object.Dict {
	globals := object.NewDict(nil)
	if m, ok := interp.Module(BuiltinModuleName); ok {
		globals.SetItem("__builtins__", m)
	}
	nameStr := object.NewStr(name)
	globals.SetItem("__name__", nameStr)
	object.Unref(nameStr)
	return globals
}

// Pool returns the frame pool.
func (interp *InterpreterState) Pool() *FramePool {
	return interp.pool
}

// Collector returns the cycle collector containers are tracked by.
func (interp *InterpreterState) Collector() *object.Collector {
	return interp.collector
}

// CollectorThreshold returns the allocation count that triggers a cycle
// collection at the start of an evaluation. Zero means never.
func (interp *InterpreterState) CollectorThreshold() int {
	return interp.gcThreshold
}

// Collections returns the number of cycle collections this interpreter ran.
func (interp *InterpreterState) Collections() uint64 {
	return interp.collections
}

// maybeCollect runs a collection when the interpreter's threshold is
// enabled and reached. It must only be called where no borrowed
// references are in flight.
func (interp *InterpreterState) maybeCollect() int {
	if interp.gcThreshold <= 0 || interp.collector.Pending() < interp.gcThreshold {
		return 0
	}
	return interp.collect()
}

func (interp *InterpreterState) collect() int {
	collected := interp.collector.Collect()
	interp.collections++
	stats := interp.collector.Stats()
	if collected > 0 {
		interp.logger.Debug().
			Int("tracked", stats.Tracked).
			Int("collected", collected).
			Dur("duration", stats.Duration).
			Msg("cycle collection")
	}
	return collected
}

// Logger returns the interpreter logger.
func (interp *InterpreterState) Logger() zerolog.Logger {
	return interp.logger
}

// RecursionLimit returns the maximum evaluation depth.
func (interp *InterpreterState) RecursionLimit() int {
	return int(interp.recursionLimit.Load())
}

// SetRecursionLimit changes the maximum evaluation depth.
func (interp *InterpreterState) SetRecursionLimit(limit int) error {
	if limit <= 0 {
		return errz.Errorf(errz.ErrValue, "recursion limit must be greater than zero (got %d)", limit)
	}
	interp.recursionLimit.Store(int64(limit))
	return nil
}

// Threads returns a snapshot of the registered thread states.
func (interp *InterpreterState) Threads() []*ThreadState {
	interp.headMu.Lock()
	defer interp.headMu.Unlock()
	threads := make([]*ThreadState, len(interp.threads))
	copy(threads, interp.threads)
	return threads
}

func (interp *InterpreterState) register(ts *ThreadState) {
	interp.headMu.Lock()
	defer interp.headMu.Unlock()
	interp.threads = append(interp.threads, ts)
}

func (interp *InterpreterState) unregister(ts *ThreadState) bool {
	interp.headMu.Lock()
	defer interp.headMu.Unlock()
	for i, t := range interp.threads {
		if t == ts {
			interp.threads = append(interp.threads[:i], interp.threads[i+1:]...)
			return true
		}
	}
	return false
}

// Close tears the interpreter down: every thread state is cleared and
// unregistered, the registries are released, a final collection runs and
// the frame pool is drained. All teardown failures are returned together.
//
// Teardown runs under the execution lock. A caller that holds it with one of
// the interpreter's thread states keeps it; otherwise Close takes the lock
// itself and releases it before returning.
func (interp *InterpreterState) Close() error {
	if ts := CurrentThreadState(); ts == nil || ts.interp != interp {
		gil.Lock()
		defer gil.Unlock()
	}
	if interp.closed {
		return nil
	}
	interp.closed = true

	var result *multierror.Error
	for _, ts := range interp.Threads() {
		if err := ts.Delete(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if interp.modules != nil {
		for _, name := range interp.modules.Keys() {
			if m, ok := interp.Module(name); ok {
				m.Clear()
			}
		}
	}
	object.Replace(&interp.builtins, nil)
	object.Replace(&interp.modules, nil)

	collected := interp.collect()
	drained := interp.pool.Drain()
	interp.logger.Debug().
		Int("collected", collected).
		Int("frames_drained", drained).
		Msg("interpreter closed")

	if interp.pending.len() > 0 {
		result = multierror.Append(result,
			errz.Errorf(errz.ErrSystem, "%d pending calls never ran", interp.pending.len()))
	}
	return result.ErrorOrNil()
}
