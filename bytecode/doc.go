// Package bytecode provides the immutable Code objects the engine evaluates.
//
// Code is produced by the compiler collaborator and never mutated by the
// engine. The frame engine reads the slot layout (argument count, local
// variable names, cell and free variable names), the value stack depth and
// the flag set; the bytecode loop reads instructions, constants and names.
//
// # Immutability Guarantees
//
//   - No mutation methods exist on Code
//   - All fields are unexported
//   - NewCode copies input slices to prevent caller mutation
//   - Accessors return values or copies, never internal slices
//
// # Slot Layout
//
// A frame built from a Code has VarCount()+CellCount()+FreeCount() fast
// slots: local variables first, then one Cell per cell variable, then the
// inherited closure cells for the free variables.
package bytecode
