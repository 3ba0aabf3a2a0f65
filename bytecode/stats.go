package bytecode

// Stats summarizes the shape of a code object.
type Stats struct {
	InstructionCount int
	ConstantCount    int
	SlotCount        int
	StackSize        int
	Flags            Flags
}
