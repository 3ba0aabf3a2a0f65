package vm

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
	"github.com/rs/zerolog"
)

// ExcInfo is an exception triple: the error kind, the error value and the
// frame that was executing when it was raised. Any member may be nil.
type ExcInfo struct {
	Type      object.Object
	Value     object.Object
	Traceback object.Object
}

// IsZero reports whether no exception is held.
func (e ExcInfo) IsZero() bool {
	return e.Type == nil && e.Value == nil && e.Traceback == nil
}

// Err returns the Go error carried by the value, if any.
func (e ExcInfo) Err() error {
	if v, ok := e.Value.(*object.Error); ok {
		return v.Value()
	}
	return nil
}

// Release drops the references held by the triple.
func (e ExcInfo) Release() {
	object.XUnref(e.Type)
	object.XUnref(e.Value)
	object.XUnref(e.Traceback)
}

func (e ExcInfo) traverse(visit object.Visitor) bool {
	for _, o := range []object.Object{e.Type, e.Value, e.Traceback} {
		if o != nil && !visit(o) {
			return false
		}
	}
	return true
}

// ThreadState is the per-thread execution context: the current frame, the
// recursion depth, trace and profile hooks, the error being propagated, the
// exception being handled and the conjunction clone cache.
type ThreadState struct {
	id     uuid.UUID
	interp *InterpreterState
	frame  *Frame

	recursionDepth int
	tracing        int
	traceFunc      TraceFunc
	traceObj       object.Object
	profileFunc    TraceFunc
	profileObj     object.Object

	curExc  ExcInfo
	excInfo ExcInfo

	dict       *object.Dict
	cloneCache *object.CloneCache
	logger     zerolog.Logger
}

// NewThreadState creates a thread state and registers it with interp.
func NewThreadState(interp *InterpreterState) *ThreadState {
	id := uuid.Must(uuid.NewV4())
	ts := &ThreadState{
		id:         id,
		interp:     interp,
		cloneCache: object.NewCloneCache(),
		logger:     interp.logger.With().Str("thread", id.String()).Logger(),
	}
	if interp.observer != nil {
		ts.SetTrace(ObserverHook(interp.observer), nil)
	}
	interp.register(ts)
	ts.logger.Debug().Msg("thread state created")
	return ts
}

// ID returns the unique identifier of the thread state.
func (ts *ThreadState) ID() uuid.UUID {
	return ts.id
}

// Interp returns the owning interpreter.
func (ts *ThreadState) Interp() *InterpreterState {
	return ts.interp
}

// Frame returns the borrowed innermost executing frame, or nil.
func (ts *ThreadState) Frame() *Frame {
	return ts.frame
}

// RecursionDepth returns the current evaluation depth.
func (ts *ThreadState) RecursionDepth() int {
	return ts.recursionDepth
}

// CloneCache returns the cache used while forking conjunction frames.
func (ts *ThreadState) CloneCache() *object.CloneCache {
	return ts.cloneCache
}

// Dict returns the borrowed per-thread dictionary, creating it on first use.
func (ts *ThreadState) Dict() *object.Dict {
	if ts.dict == nil {
		ts.dict = object.NewDict(nil)
	}
	return ts.dict
}

func (ts *ThreadState) String() string {
	return fmt.Sprintf("thread(%s)", ts.id)
}

// EnterRecursiveCall increments the evaluation depth, failing with an
// ErrRecursion error when the interpreter limit would be exceeded. where is
// appended to the error message.
func (ts *ThreadState) EnterRecursiveCall(where string) error {
	ts.recursionDepth++
	if ts.recursionDepth > ts.interp.RecursionLimit() {
		ts.recursionDepth--
		return ts.fail(errz.Errorf(errz.ErrRecursion, "maximum recursion depth exceeded%s", where))
	}
	return nil
}

// LeaveRecursiveCall undoes one EnterRecursiveCall.
func (ts *ThreadState) LeaveRecursiveCall() {
	ts.recursionDepth--
}

// Raise sets err as the error being propagated, replacing any previous one.
func (ts *ThreadState) Raise(err error) {
	info := ExcInfo{
		Type:  object.NewStr(errz.KindOf(err).String()),
		Value: object.NewError(err),
	}
	if ts.frame != nil {
		info.Traceback = object.Ref(ts.frame)
	}
	ts.Restore(info)
}

// fail records err unless an error is already being propagated, and
// returns it.
func (ts *ThreadState) fail(err error) error {
	if err != nil && !ts.Occurred() {
		ts.Raise(err)
	}
	return err
}

// Occurred reports whether an error is being propagated.
func (ts *ThreadState) Occurred() bool {
	return ts.curExc.Type != nil
}

// Err returns the Go error being propagated, or nil.
func (ts *ThreadState) Err() error {
	return ts.curExc.Err()
}

// Fetch removes and returns the error being propagated. The caller owns the
// returned references.
func (ts *ThreadState) Fetch() ExcInfo {
	info := ts.curExc
	ts.curExc = ExcInfo{}
	return info
}

// Restore installs info as the error being propagated, taking ownership of
// its references and releasing the previous triple.
func (ts *ThreadState) Restore(info ExcInfo) {
	old := ts.curExc
	ts.curExc = info
	old.Release()
}

// ClearErr discards the error being propagated.
func (ts *ThreadState) ClearErr() {
	ts.Restore(ExcInfo{})
}

// ExcInfo returns the borrowed triple of the exception being handled.
func (ts *ThreadState) ExcInfo() ExcInfo {
	return ts.excInfo
}

// SetExcInfo installs info as the exception being handled, taking ownership
// of its references.
func (ts *ThreadState) SetExcInfo(info ExcInfo) {
	old := ts.excInfo
	ts.excInfo = info
	old.Release()
}

// Clear releases everything the thread state holds. It reports an error if
// a frame is still executing, in which case the frame is detached anyway.
func (ts *ThreadState) Clear() error {
	var err error
	if ts.frame != nil {
		err = errz.Errorf(errz.ErrSystem, "%s cleared while %s is still executing", ts, ts.frame.Inspect())
		ts.frame = nil
	}
	ts.ClearErr()
	ts.SetExcInfo(ExcInfo{})
	object.Replace(&ts.dict, nil)
	ts.SetTrace(nil, nil)
	ts.SetProfile(nil, nil)
	ts.cloneCache.Reset()
	return err
}

// Delete clears the thread state and unregisters it from its interpreter.
func (ts *ThreadState) Delete() error {
	err := ts.Clear()
	if !ts.interp.unregister(ts) {
		err = errz.Errorf(errz.ErrSystem, "%s is not registered", ts)
	}
	ts.logger.Debug().Err(err).Msg("thread state deleted")
	return err
}
