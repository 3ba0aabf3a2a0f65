package main

import (
	"github.com/risor-io/quarry/bytecode"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
	"github.com/risor-io/quarry/op"
	"github.com/risor-io/quarry/vm"
)

// machine is a minimal bytecode loop for predicate programs. It covers the
// instruction set in package op and leaves every frame, namespace and
// forking concern to the vm package.
type machine struct{}

func (machine) EvalFrame(ts *vm.ThreadState, f *vm.Frame) (object.Object, error) {
	code := f.Code()
	ip := 0
	operand := func() int {
		ip++
		return int(code.InstructionAt(ip))
	}
	for ip < code.InstructionCount() {
		if err := ts.Checkpoint(); err != nil {
			return nil, err
		}
		f.SetLasti(ip)
		instr := code.InstructionAt(ip)
		switch instr {
		case op.LoadConst:
			value, err := constant(code.ConstantAt(operand()))
			if err != nil {
				return nil, err
			}
			push(f, value)
		case op.ReturnValue:
			return f.Pop(), nil
		case op.CallFunction:
			if err := callFunction(ts, f, operand()); err != nil {
				return nil, err
			}
		case op.JumpAbsolute:
			ip = operand()
			continue
		case op.PopJumpIfFalse:
			target := operand()
			value := f.Pop()
			truthy := object.Truthy(value)
			object.Unref(value)
			if !truthy {
				ip = target
				continue
			}
		case op.BinaryAdd, op.BinaryMod, op.CompareEq, op.CompareLt:
			if err := binaryOp(f, instr); err != nil {
				return nil, err
			}
		case op.LoadFast:
			i := operand()
			value := f.Local(i)
			if value == nil {
				return nil, errz.Errorf(errz.ErrName, "local variable %q referenced before assignment", code.VarName(i))
			}
			f.Push(value)
		case op.StoreFast:
			i := operand()
			value := f.Pop()
			f.SetLocal(i, value)
			object.Unref(value)
		case op.LoadGlobal:
			i := operand()
			if i >= code.NameCount() {
				return nil, errz.Errorf(errz.ErrSystem, "name index %d out of range in %s", i, code.Name())
			}
			value, err := loadGlobal(f, code.NameAt(i))
			if err != nil {
				return nil, err
			}
			f.Push(value)
		case op.AddSolution:
			value := f.Pop()
			err := f.AddSolution(value)
			object.Unref(value)
			if err != nil {
				return nil, err
			}
		case op.EvalClause:
			clause, ok := code.ConstantAt(operand()).(*bytecode.Code)
			if !ok || !clause.IsConjunction() {
				return nil, errz.Errorf(errz.ErrType, "EVAL_CLAUSE operand in %s is not a clause", code.Name())
			}
			value, err := vm.EvalCode(ts, clause, f.Globals(), nil)
			if err != nil {
				return nil, err
			}
			object.Unref(value)
		case op.SetupLoop:
			f.BlockSetup(instr, operand(), f.StackLevel())
		case op.PopBlock:
			block := f.BlockPop()
			f.UnwindStack(block.Level)
		default:
			return nil, errz.Errorf(errz.ErrSystem, "unknown opcode %s at %d in %s", instr, ip, code.Name())
		}
		ip++
	}
	return object.None, nil
}

// push moves a new reference onto f's value stack.
func push(f *vm.Frame, value object.Object) {
	f.Push(value)
	object.Unref(value)
}

func constant(v any) (object.Object, error) {
	switch v := v.(type) {
	case nil:
		return object.None, nil
	case bool:
		return object.NewBool(v), nil
	case int:
		return object.NewInt(int64(v)), nil
	case int64:
		return object.NewInt(v), nil
	case string:
		return object.NewStr(v), nil
	}
	return nil, errz.Errorf(errz.ErrType, "unsupported constant %T", v)
}

func loadGlobal(f *vm.Frame, name string) (object.Object, error) {
	if value, ok := f.Globals().GetItem(name); ok {
		return value, nil
	}
	if value, ok := f.Builtins().GetItem(name); ok {
		return value, nil
	}
	return nil, errz.Errorf(errz.ErrName, "name %q is not defined", name)
}

func callFunction(ts *vm.ThreadState, f *vm.Frame, argc int) error {
	args := make([]object.Object, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = f.Pop()
	}
	callee := f.Pop()
	defer func() {
		object.Unref(callee)
		for _, arg := range args {
			object.Unref(arg)
		}
	}()
	fn, ok := callee.(*object.Function)
	if !ok {
		return errz.Errorf(errz.ErrType, "%s is not callable", callee.Type())
	}
	result, err := vm.CallFunction(ts, fn, args, nil)
	if err != nil {
		return err
	}
	push(f, result)
	return nil
}

func binaryOp(f *vm.Frame, instr op.Code) error {
	right := f.Pop()
	left := f.Pop()
	defer object.Unref(right)
	defer object.Unref(left)

	if instr == op.CompareEq {
		push(f, object.NewBool(left.Equals(right)))
		return nil
	}
	a, aok := left.(*object.Int)
	b, bok := right.(*object.Int)
	if !aok || !bok {
		return errz.Errorf(errz.ErrType, "unsupported operand types for %s: %s and %s", instr, left.Type(), right.Type())
	}
	switch instr {
	case op.BinaryAdd:
		push(f, object.NewInt(a.Value()+b.Value()))
	case op.BinaryMod:
		if b.Value() == 0 {
			return errz.New(errz.ErrValue, "integer modulo by zero")
		}
		push(f, object.NewInt(a.Value()%b.Value()))
	case op.CompareLt:
		push(f, object.NewBool(a.Value() < b.Value()))
	}
	return nil
}
