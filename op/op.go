// Package op defines the instruction set of predicate bytecode.
//
// An instruction is an opcode followed by GetInfo(op).OperandCount operand
// slots. Jump operands are absolute instruction indexes.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	LoadConst      Code = 1
	ReturnValue    Code = 2
	CallFunction   Code = 3 // Operand is the positional argument count
	JumpAbsolute   Code = 4
	PopJumpIfFalse Code = 5

	// Arithmetic and comparison on the two topmost values
	BinaryAdd Code = 10
	BinaryMod Code = 11
	CompareEq Code = 12
	CompareLt Code = 13

	// Variable access. LoadFast/StoreFast address the local range of the
	// fast slots; LoadGlobal takes an index into the code's names.
	LoadFast   Code = 20
	StoreFast  Code = 21
	LoadGlobal Code = 22

	// Predicates
	AddSolution Code = 40 // Append TOS to the frame's result accumulator
	EvalClause  Code = 41 // Evaluate the conjunction clause code held in a constant

	// Block stack. The opcode that pushed a block is the block's kind.
	SetupLoop    Code = 60
	SetupExcept  Code = 61
	SetupFinally Code = 62
	PopBlock     Code = 63
)

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{LoadConst, "LOAD_CONST", 1},
		{ReturnValue, "RETURN_VALUE", 0},
		{CallFunction, "CALL_FUNCTION", 1},
		{JumpAbsolute, "JUMP_ABSOLUTE", 1},
		{PopJumpIfFalse, "POP_JUMP_IF_FALSE", 1},
		{BinaryAdd, "BINARY_ADD", 0},
		{BinaryMod, "BINARY_MOD", 0},
		{CompareEq, "COMPARE_EQ", 0},
		{CompareLt, "COMPARE_LT", 0},
		{LoadFast, "LOAD_FAST", 1},
		{StoreFast, "STORE_FAST", 1},
		{LoadGlobal, "LOAD_GLOBAL", 1},
		{AddSolution, "ADD_SOLUTION", 0},
		{EvalClause, "EVAL_CLAUSE", 1},
		{SetupLoop, "SETUP_LOOP", 1},
		{SetupExcept, "SETUP_EXCEPT", 1},
		{SetupFinally, "SETUP_FINALLY", 1},
		{PopBlock, "POP_BLOCK", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}

// String returns the opcode name, or "INVALID" for unknown opcodes.
func (c Code) String() string {
	if name := GetInfo(c).Name; name != "" {
		return name
	}
	return "INVALID"
}
