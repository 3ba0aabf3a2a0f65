package main

import (
	"fmt"

	"github.com/risor-io/quarry/bytecode"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
	"github.com/risor-io/quarry/op"
	"github.com/risor-io/quarry/vm"
	"github.com/rs/zerolog"
)

// workload is a synthetic predicate program, equivalent to
//
//	def is_even(n): return n % 2 == 0
//	pred solve():
//	    for x in range(fanout):
//	        clause: if is_even(x): yield x
//
// The predicate forks one conjunction clause per candidate; each clause
// calls is_even through the argument binding path and records even
// candidates as solutions. A run's globals and is_even refer to each other,
// as do the clones every clause makes of them, so each run leaves cycles
// behind for the collector.
type workload struct {
	fanout    int
	predicate *bytecode.Code
	clause    *bytecode.Code
	isEven    *bytecode.Code
}

func newWorkload(fanout int) *workload {
	w := &workload{fanout: fanout}

	var a assembler
	a.emit(op.LoadFast, 0)
	a.emit(op.LoadConst, 0)
	a.emit(op.BinaryMod)
	a.emit(op.LoadConst, 1)
	a.emit(op.CompareEq)
	a.emit(op.ReturnValue)
	w.isEven = bytecode.NewCode(bytecode.CodeParams{
		Name:         "is_even",
		Filename:     "bench.q",
		FirstLine:    1,
		ArgCount:     1,
		StackSize:    2,
		Flags:        bytecode.FlagOptimized | bytecode.FlagNewLocals,
		VarNames:     []string{"n"},
		Instructions: a.code(),
		Constants:    []any{2, 0},
	})

	a = assembler{}
	a.emit(op.LoadGlobal, 0)
	a.emit(op.LoadFast, 0)
	a.emit(op.CallFunction, 1)
	skip := a.emit(op.PopJumpIfFalse, 0)
	a.emit(op.LoadFast, 0)
	a.emit(op.AddSolution)
	a.patch(skip, a.here())
	a.emit(op.LoadConst, 0)
	a.emit(op.ReturnValue)
	w.clause = bytecode.NewCode(bytecode.CodeParams{
		Name:         "solve.clause",
		Filename:     "bench.q",
		FirstLine:    5,
		StackSize:    2,
		Flags:        bytecode.FlagOptimized | bytecode.FlagNewLocals | bytecode.FlagConjunction,
		VarNames:     []string{"x"},
		Instructions: a.code(),
		Constants:    []any{nil},
		Names:        []string{"is_even"},
	})

	a = assembler{}
	loop := a.emit(op.SetupLoop, 0)
	a.emit(op.LoadConst, 0)
	a.emit(op.StoreFast, 0)
	top := a.here()
	a.emit(op.LoadFast, 0)
	a.emit(op.LoadConst, 2)
	a.emit(op.CompareLt)
	exit := a.emit(op.PopJumpIfFalse, 0)
	a.emit(op.EvalClause, 3)
	a.emit(op.LoadFast, 0)
	a.emit(op.LoadConst, 1)
	a.emit(op.BinaryAdd)
	a.emit(op.StoreFast, 0)
	a.emit(op.JumpAbsolute, top)
	a.patch(exit, a.here())
	a.emit(op.PopBlock)
	a.patch(loop, a.here())
	a.emit(op.LoadConst, 4)
	a.emit(op.ReturnValue)
	w.predicate = bytecode.NewCode(bytecode.CodeParams{
		Name:         "solve",
		Filename:     "bench.q",
		FirstLine:    3,
		StackSize:    2,
		Flags:        bytecode.FlagOptimized | bytecode.FlagNewLocals | bytecode.FlagPredicate,
		VarNames:     []string{"x"},
		Instructions: a.code(),
		Constants:    []any{0, 1, fanout, w.clause, nil},
	})
	return w
}

// expected returns the number of solutions one run produces.
func (w *workload) expected() int {
	return (w.fanout + 1) / 2
}

// logShape reports the size of each compiled code object.
func (w *workload) logShape(logger zerolog.Logger) {
	for _, code := range []*bytecode.Code{w.predicate, w.clause, w.isEven} {
		stats := code.Stats()
		logger.Debug().
			Str("code", code.Name()).
			Int("instructions", stats.InstructionCount).
			Int("constants", stats.ConstantCount).
			Int("slots", stats.SlotCount).
			Int("stack_size", stats.StackSize).
			Stringer("flags", stats.Flags).
			Msg("workload code")
	}
}

// globals returns a new module namespace binding is_even. The function and
// the namespace reference each other.
func (w *workload) globals(interp *vm.InterpreterState) *object.Dict {
	globals := interp.NewGlobals("bench")
	fn := object.NewFunction(w.isEven, globals, nil, nil)
	globals.SetItem("is_even", fn)
	object.Unref(fn)
	return globals
}

// run evaluates the predicate once and returns the number of solutions.
func (w *workload) run(ts *vm.ThreadState) (int, error) {
	globals := w.globals(ts.Interp())
	defer object.Unref(globals)

	result, err := vm.EvalCode(ts, w.predicate, globals, nil)
	if err != nil {
		ts.ClearErr()
		return 0, err
	}
	defer object.Unref(result)
	solutions, ok := result.(*object.List)
	if !ok {
		return 0, errz.Errorf(errz.ErrType, "predicate returned %s", result.Type())
	}
	return solutions.Len(), nil
}

// assembler lays out instructions, checking operand counts against the
// opcode table.
type assembler struct {
	instructions []op.Code
}

// emit appends an instruction and returns its index.
func (a *assembler) emit(code op.Code, operands ...int) int {
	info := op.GetInfo(code)
	if info.Name == "" || len(operands) != info.OperandCount {
		panic(fmt.Sprintf("%s takes %d operands, got %d", code, info.OperandCount, len(operands)))
	}
	pos := len(a.instructions)
	a.instructions = append(a.instructions, code)
	for _, operand := range operands {
		a.instructions = append(a.instructions, op.Code(operand))
	}
	return pos
}

// patch sets the operand of the jump or block at pos to target.
func (a *assembler) patch(pos, target int) {
	a.instructions[pos+1] = op.Code(target)
}

func (a *assembler) here() int {
	return len(a.instructions)
}

func (a *assembler) code() []op.Code {
	return a.instructions
}

// frameCounter counts evaluated frames.
type frameCounter struct {
	vm.NoOpObserver
	frames int
}

func (c *frameCounter) Config() vm.ObserverConfig {
	return vm.ObserverConfig{ObserveCalls: true}
}

func (c *frameCounter) OnCall(vm.CallEvent) bool {
	c.frames++
	return true
}
