package vm

import (
	"fmt"

	"github.com/risor-io/quarry/bytecode"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
)

// FRAME is the type of Frame objects.
const FRAME object.Type = "frame"

// FrameState is the lifecycle stage of a frame.
type FrameState uint8

const (
	FrameCreated FrameState = iota
	FrameExecuting
	FrameSuspended
	FrameReturned
	FrameRaised
	FrameDisposed
)

func (s FrameState) String() string {
	switch s {
	case FrameCreated:
		return "created"
	case FrameExecuting:
		return "executing"
	case FrameSuspended:
		return "suspended"
	case FrameReturned:
		return "returned"
	case FrameRaised:
		return "raised"
	case FrameDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Frame is the activation record of one code object.
//
// A single backing buffer holds the fast slots followed by the value stack.
// The fast slots are laid out as the code's local variables, then its cell
// variables, then its free variables; the cell and free slots always hold
// *object.Cell values.
type Frame struct {
	object.Header

	back     *Frame
	code     *bytecode.Code
	builtins *object.Dict
	globals  *object.Dict
	locals   *object.Dict

	buf   []object.Object
	fast  []object.Object
	stack []object.Object
	sp    int

	blocks [MaxBlocks]TryBlock
	iblock int

	// The exception a generator frame was handling when it was suspended.
	exc ExcInfo

	// Solutions accumulated by a predicate; shared with conjunction frames.
	result *object.List

	ts     *ThreadState
	pool   *FramePool
	lasti  int
	lineno int
	state  FrameState
}

// NewFrame creates a frame for code bound to ts, with ts's current frame as
// its back frame.
//
// Builtins are inherited from the back frame when it runs in the same
// globals; otherwise they come from globals["__builtins__"] (a module's
// namespace or a dict), falling back to a minimal namespace binding only
// None.
//
// For conjunction code the frame runs on a clone of the back frame's
// globals and locals, so bindings made by the clause are invisible to the
// caller, while the solution accumulator is shared. Otherwise the locals
// are chosen from the code flags: none for optimized new-locals code, a
// fresh dict for new-locals code, and locals (or globals if locals is nil)
// for everything else.
func NewFrame(ts *ThreadState, code *bytecode.Code, globals, locals *object.Dict) (*Frame, error) {
	if code == nil || globals == nil {
		return nil, ts.fail(errz.New(errz.ErrSystem, "frame requires code and a globals namespace"))
	}
	back := ts.frame

	f := ts.interp.pool.get(code)
	object.Track(f)
	f.ts = ts
	f.code = code
	f.lineno = code.FirstLine()
	f.back = object.XRef(back)
	if back != nil && back.globals == globals {
		f.builtins = object.Ref(back.builtins)
	} else {
		f.builtins = resolveBuiltins(globals)
	}

	nvars := code.VarCount()
	for i := nvars; i < nvars+code.CellCount(); i++ {
		f.fast[i] = object.NewCell(nil)
	}

	if code.IsConjunction() {
		if back == nil {
			object.Unref(f)
			return nil, ts.fail(errz.Errorf(errz.ErrRuntime,
				"conjunction %s evaluated without an enclosing frame", code.Name()))
		}
		if back.result != nil {
			f.result = object.Ref(back.result)
		} else if code.IsPredicate() {
			f.result = object.NewList()
		}
		if err := f.forkFrom(back); err != nil {
			object.Unref(f)
			return nil, ts.fail(err)
		}
		return f, nil
	}

	if code.IsPredicate() {
		f.result = object.NewList()
	}
	f.globals = object.Ref(globals)
	flags := code.Flags()
	switch {
	case flags.Has(bytecode.FlagNewLocals | bytecode.FlagOptimized):
	case flags.Has(bytecode.FlagNewLocals):
		f.locals = object.NewDict(nil)
	case locals != nil:
		f.locals = object.Ref(locals)
	default:
		f.locals = object.Ref(globals)
	}
	return f, nil
}

func resolveBuiltins(globals *object.Dict) *object.Dict {
	if b, ok := globals.GetItem("__builtins__"); ok {
		switch b := b.(type) {
		case *object.Module:
			if d := b.Dict(); d != nil {
				return object.Ref(d)
			}
		case *object.Dict:
			return object.Ref(b)
		}
	}
	d := object.NewDict(nil)
	d.SetItem("None", object.None)
	return d
}

func (f *Frame) Type() object.Type {
	return FRAME
}

func (f *Frame) Inspect() string {
	if f.code == nil {
		return "frame()"
	}
	return fmt.Sprintf("frame(%s, line %d)", f.code.Name(), f.lineno)
}

// Frames are equal only by identity.
func (f *Frame) Equals(other object.Object) bool {
	otherFrame, ok := other.(*Frame)
	return ok && f == otherFrame
}

// Back returns the borrowed calling frame, or nil.
func (f *Frame) Back() *Frame { return f.back }

// Code returns the code the frame executes.
func (f *Frame) Code() *bytecode.Code { return f.code }

// Builtins returns the borrowed builtins namespace.
func (f *Frame) Builtins() *object.Dict { return f.builtins }

// Globals returns the borrowed globals namespace.
func (f *Frame) Globals() *object.Dict { return f.globals }

// Locals returns the borrowed locals namespace, which is nil for optimized
// frames until FastToLocals materializes it.
func (f *Frame) Locals() *object.Dict { return f.locals }

// Result returns the borrowed solution accumulator of a predicate frame.
func (f *Frame) Result() *object.List { return f.result }

// ThreadState returns the thread state the frame was created on.
func (f *Frame) ThreadState() *ThreadState { return f.ts }

// State returns the lifecycle stage of the frame.
func (f *Frame) State() FrameState { return f.state }

// Lasti returns the index of the last attempted instruction, or -1.
func (f *Frame) Lasti() int { return f.lasti }

// Lineno returns the current source line.
func (f *Frame) Lineno() int { return f.lineno }

// SetLasti records the instruction being executed and updates the line.
func (f *Frame) SetLasti(ip int) {
	f.lasti = ip
	if line := f.code.LocationAt(ip).Line; line > 0 {
		f.lineno = line
	}
}

// Suspend marks an executing generator frame as suspended. Evaluators call
// it before returning a yielded value.
func (f *Frame) Suspend() {
	if f.state == FrameExecuting {
		f.state = FrameSuspended
	}
}

// Local returns the borrowed value in fast slot i, or nil when empty.
func (f *Frame) Local(i int) object.Object {
	return f.fast[i]
}

// SetLocal stores value in fast slot i. A nil value empties the slot.
func (f *Frame) SetLocal(i int, value object.Object) {
	object.Replace(&f.fast[i], value)
}

// Cell returns the cell for deref index i, which counts cell variables
// first and free variables after them.
func (f *Frame) Cell(i int) *object.Cell {
	cell, _ := f.fast[f.code.VarCount()+i].(*object.Cell)
	return cell
}

// Deref returns the borrowed contents of the cell for deref index i.
func (f *Frame) Deref(i int) object.Object {
	if cell := f.Cell(i); cell != nil {
		return cell.Get()
	}
	return nil
}

// SetDeref stores value in the cell for deref index i.
func (f *Frame) SetDeref(i int, value object.Object) {
	if cell := f.Cell(i); cell != nil {
		cell.Set(value)
	}
}

// Fast returns a snapshot of the borrowed fast slots.
func (f *Frame) Fast() []object.Object {
	fast := make([]object.Object, len(f.fast))
	copy(fast, f.fast)
	return fast
}

// Push pushes a new reference to value onto the value stack.
func (f *Frame) Push(value object.Object) {
	if f.sp >= len(f.stack) {
		errz.Fatalf("value stack overflow in %s", f.code.Name())
	}
	f.stack[f.sp] = object.XRef(value)
	f.sp++
}

// Pop removes the top of the value stack. The caller owns the result.
func (f *Frame) Pop() object.Object {
	if f.sp <= 0 {
		errz.Fatalf("value stack underflow in %s", f.code.Name())
	}
	f.sp--
	value := f.stack[f.sp]
	f.stack[f.sp] = nil
	return value
}

// Top returns the borrowed top of the value stack.
func (f *Frame) Top() object.Object {
	if f.sp <= 0 {
		return nil
	}
	return f.stack[f.sp-1]
}

// StackLevel returns the number of values on the stack.
func (f *Frame) StackLevel() int {
	return f.sp
}

// UnwindStack pops and releases values until level remain.
func (f *Frame) UnwindStack(level int) {
	for f.sp > level {
		object.XUnref(f.Pop())
	}
}

// AddSolution appends value to the predicate's solution accumulator.
func (f *Frame) AddSolution(value object.Object) error {
	if f.result == nil {
		return errz.Errorf(errz.ErrType, "%s is not evaluating a predicate", f.code.Name())
	}
	f.result.Append(value)
	return nil
}

// Depth returns the number of frames on the back chain, including f.
func (f *Frame) Depth() int {
	n := 0
	for fr := f; fr != nil; fr = fr.back {
		n++
	}
	return n
}

// Traceback returns the back chain as stack frames, innermost first.
func (f *Frame) Traceback() []errz.StackFrame {
	var stack []errz.StackFrame
	for fr := f; fr != nil; fr = fr.back {
		if fr.code == nil {
			continue
		}
		stack = append(stack, errz.StackFrame{
			Function: fr.code.Name(),
			Location: errz.SourceLocation{
				Filename: fr.code.Filename(),
				Line:     fr.lineno,
			},
		})
	}
	return stack
}

func (f *Frame) Traverse(visit object.Visitor) bool {
	for _, o := range []object.Object{f.back, f.builtins, f.globals, f.locals, f.result} {
		if !isNil(o) && !visit(o) {
			return false
		}
	}
	for _, o := range f.fast {
		if o != nil && !visit(o) {
			return false
		}
	}
	for _, o := range f.stack[:f.sp] {
		if o != nil && !visit(o) {
			return false
		}
	}
	return f.exc.traverse(visit)
}

func (f *Frame) Clear() {
	exc := f.exc
	f.exc = ExcInfo{}
	exc.Release()
	f.UnwindStack(0)
	for i := range f.fast {
		object.Replace(&f.fast[i], nil)
	}
	f.iblock = 0
	object.Replace(&f.result, nil)
	object.Replace(&f.locals, nil)
	object.Replace(&f.globals, nil)
	object.Replace(&f.builtins, nil)
	object.Replace(&f.back, nil)
}

// Finalize releases everything the frame holds and returns it to its pool.
func (f *Frame) Finalize() {
	f.Clear()
	f.state = FrameDisposed
	f.ts = nil
	f.code = nil
	if f.pool != nil {
		f.pool.put(f)
	}
}

// isNil reports whether o is nil, including typed nil pointers of the
// frame's own fields.
func isNil(o object.Object) bool {
	switch v := o.(type) {
	case nil:
		return true
	case *Frame:
		return v == nil
	case *object.Dict:
		return v == nil
	case *object.List:
		return v == nil
	}
	return false
}
