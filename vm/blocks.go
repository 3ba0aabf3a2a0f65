package vm

import (
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/op"
)

// MaxBlocks is the maximum nesting of loop and exception blocks in a frame.
const MaxBlocks = 20

// TryBlock records an active loop or exception-handling region.
type TryBlock struct {
	// Kind is the opcode that set the block up.
	Kind op.Code
	// Handler is the instruction index to jump to when the block unwinds.
	Handler int
	// Level is the value stack depth to restore on unwind.
	Level int
}

// BlockSetup pushes a block. Nesting deeper than MaxBlocks is an invariant
// violation; code generators must not emit it.
func (f *Frame) BlockSetup(kind op.Code, handler, level int) {
	if f.iblock >= MaxBlocks {
		errz.Fatalf("block stack overflow in %s", f.code.Name())
	}
	f.blocks[f.iblock] = TryBlock{Kind: kind, Handler: handler, Level: level}
	f.iblock++
}

// BlockPop removes and returns the innermost block.
func (f *Frame) BlockPop() TryBlock {
	if f.iblock <= 0 {
		errz.Fatalf("block stack underflow in %s", f.code.Name())
	}
	f.iblock--
	return f.blocks[f.iblock]
}

// BlockTop returns the innermost block without removing it.
func (f *Frame) BlockTop() (TryBlock, bool) {
	if f.iblock == 0 {
		return TryBlock{}, false
	}
	return f.blocks[f.iblock-1], true
}

// BlockCount returns the number of active blocks.
func (f *Frame) BlockCount() int {
	return f.iblock
}
