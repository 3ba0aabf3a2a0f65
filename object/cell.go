package object

import (
	"fmt"
)

// Cell is a single-slot box used for closure variable capture. A frame holds
// one Cell per cell variable and shares the same Cell objects with nested
// closures through their free variables.
type Cell struct {
	Header
	value Object
}

// NewCell returns a new tracked cell holding a reference to value, which may
// be nil for an empty cell.
func NewCell(value Object) *Cell {
	c := &Cell{value: XRef(value)}
	Init(c)
	Track(c)
	return c
}

func (c *Cell) Type() Type {
	return CELL
}

func (c *Cell) Inspect() string {
	return c.String()
}

func (c *Cell) String() string {
	if c.value == nil {
		return "cell()"
	}
	return fmt.Sprintf("cell(%s)", c.value.Inspect())
}

// Get returns the borrowed contents, or nil for an empty cell.
func (c *Cell) Get() Object {
	return c.value
}

// Set replaces the contents, releasing the previous value. A nil value
// empties the cell.
func (c *Cell) Set(value Object) {
	Replace(&c.value, value)
}

// IsEmpty reports whether the cell holds no value.
func (c *Cell) IsEmpty() bool {
	return c.value == nil
}

// Cells are equal only by identity.
func (c *Cell) Equals(other Object) bool {
	otherCell, ok := other.(*Cell)
	return ok && c == otherCell
}

func (c *Cell) Traverse(visit Visitor) bool {
	if c.value != nil {
		return visit(c.value)
	}
	return true
}

func (c *Cell) Clear() {
	Replace(&c.value, nil)
}

// CloneInto creates a new cell holding a clone of the contents.
func (c *Cell) CloneInto(cache *CloneCache) (Object, error) {
	clone := NewCell(nil)
	cache.store(c, clone)
	if c.value != nil {
		v, err := Clone(c.value, cache)
		if err != nil {
			Unref(clone)
			return nil, err
		}
		clone.value = v
	}
	return clone, nil
}
