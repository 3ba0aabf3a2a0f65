package bytecode

import (
	"slices"
	"strings"

	"github.com/risor-io/quarry/op"
)

// Flags describe how the engine must set up a frame for a code object.
type Flags uint32

const (
	// FlagOptimized marks code whose locals live only in fast slots.
	FlagOptimized Flags = 1 << iota
	// FlagNewLocals marks code that defines its own locals namespace.
	FlagNewLocals
	// FlagVarArgs marks code accepting variadic positional arguments.
	FlagVarArgs
	// FlagVarKeywords marks code accepting variadic keyword arguments.
	FlagVarKeywords
	// FlagNested marks code defined inside another function.
	FlagNested
	// FlagGenerator marks code whose frames suspend on yield.
	FlagGenerator
	// FlagNoFree marks code that captures no free variables.
	FlagNoFree
	// FlagPredicate marks code that accumulates solutions instead of
	// returning a single value.
	FlagPredicate
	// FlagConjunction marks a conjunction clause of a predicate. Its frame
	// evaluates against a cloned snapshot of the enclosing frame.
	FlagConjunction
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagOptimized, "OPTIMIZED"},
	{FlagNewLocals, "NEWLOCALS"},
	{FlagVarArgs, "VARARGS"},
	{FlagVarKeywords, "VARKEYWORDS"},
	{FlagNested, "NESTED"},
	{FlagGenerator, "GENERATOR"},
	{FlagNoFree, "NOFREE"},
	{FlagPredicate, "PREDICATE"},
	{FlagConjunction, "CONJUNCTION"},
}

// Has reports whether all bits of other are set.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// String returns the flag names joined with "|".
func (f Flags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

// Code represents a compiled code block (module, function body, predicate or
// conjunction clause). It is immutable after creation and safe for
// concurrent use.
type Code struct {
	name      string
	filename  string
	firstLine int

	argCount  int
	stackSize int
	flags     Flags
	varNames  []string
	cellVars  []string
	freeVars  []string

	instructions []op.Code
	constants    []any
	names        []string

	// Source map: one location per instruction for error reporting
	locations []SourceLocation
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	Name         string
	Filename     string
	FirstLine    int
	ArgCount     int
	StackSize    int
	Flags        Flags
	VarNames     []string
	CellVars     []string
	FreeVars     []string
	Instructions []op.Code
	Constants    []any
	Names        []string
	Locations    []SourceLocation
}

// NewCode creates a new immutable Code from the given parameters.
// Input slices are copied to ensure immutability. FlagNoFree is derived from
// the cell and free variable lists and need not be supplied.
func NewCode(params CodeParams) *Code {
	flags := params.Flags
	if len(params.CellVars) == 0 && len(params.FreeVars) == 0 {
		flags |= FlagNoFree
	} else {
		flags &^= FlagNoFree
	}
	return &Code{
		name:         params.Name,
		filename:     params.Filename,
		firstLine:    params.FirstLine,
		argCount:     params.ArgCount,
		stackSize:    params.StackSize,
		flags:        flags,
		varNames:     slices.Clone(params.VarNames),
		cellVars:     slices.Clone(params.CellVars),
		freeVars:     slices.Clone(params.FreeVars),
		instructions: slices.Clone(params.Instructions),
		constants:    slices.Clone(params.Constants),
		names:        slices.Clone(params.Names),
		locations:    slices.Clone(params.Locations),
	}
}

// Name returns the name of this code block.
func (c *Code) Name() string {
	return c.name
}

// Filename returns the source filename.
func (c *Code) Filename() string {
	return c.filename
}

// FirstLine returns the first source line of this code block.
func (c *Code) FirstLine() int {
	return c.firstLine
}

// ArgCount returns the number of required positional parameters.
func (c *Code) ArgCount() int {
	return c.argCount
}

// StackSize returns the maximum value stack depth.
func (c *Code) StackSize() int {
	return c.stackSize
}

// Flags returns the code flags.
func (c *Code) Flags() Flags {
	return c.flags
}

func (c *Code) IsPredicate() bool   { return c.flags.Has(FlagPredicate) }
func (c *Code) IsConjunction() bool { return c.flags.Has(FlagConjunction) }
func (c *Code) IsGenerator() bool   { return c.flags.Has(FlagGenerator) }

// VarCount returns the number of local variable slots, arguments included.
func (c *Code) VarCount() int {
	return len(c.varNames)
}

// CellCount returns the number of cell variables.
func (c *Code) CellCount() int {
	return len(c.cellVars)
}

// FreeCount returns the number of free variables.
func (c *Code) FreeCount() int {
	return len(c.freeVars)
}

// SlotCount returns the total number of fast slots a frame needs.
func (c *Code) SlotCount() int {
	return len(c.varNames) + len(c.cellVars) + len(c.freeVars)
}

// VarName returns the local variable name at the given index.
func (c *Code) VarName(index int) string {
	return c.varNames[index]
}

// CellVar returns the cell variable name at the given index.
func (c *Code) CellVar(index int) string {
	return c.cellVars[index]
}

// FreeVar returns the free variable name at the given index.
func (c *Code) FreeVar(index int) string {
	return c.freeVars[index]
}

// VarNames returns a copy of the local variable names.
func (c *Code) VarNames() []string { return slices.Clone(c.varNames) }

// CellVars returns a copy of the cell variable names.
func (c *Code) CellVars() []string { return slices.Clone(c.cellVars) }

// FreeVars returns a copy of the free variable names.
func (c *Code) FreeVars() []string { return slices.Clone(c.freeVars) }

// InstructionCount returns the number of instructions.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// InstructionAt returns the instruction at the given index.
func (c *Code) InstructionAt(index int) op.Code {
	return c.instructions[index]
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// NameCount returns the number of global and attribute names.
func (c *Code) NameCount() int {
	return len(c.names)
}

// NameAt returns the name at the given index.
func (c *Code) NameAt(index int) string {
	return c.names[index]
}

// LocationAt returns the source location for the instruction at the given index.
func (c *Code) LocationAt(ip int) SourceLocation {
	if ip < 0 || ip >= len(c.locations) {
		return SourceLocation{Line: c.firstLine}
	}
	return c.locations[ip]
}

// Stats returns statistics about this code block.
func (c *Code) Stats() Stats {
	return Stats{
		InstructionCount: c.InstructionCount(),
		ConstantCount:    c.ConstantCount(),
		SlotCount:        c.SlotCount(),
		StackSize:        c.stackSize,
		Flags:            c.flags,
	}
}
