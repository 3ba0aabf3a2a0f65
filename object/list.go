package object

import (
	"strings"

	"github.com/risor-io/quarry/errz"
)

// List is a mutable sequence. A predicate frame's result accumulator is a
// List shared by every clause frame forked from it.
type List struct {
	Header
	items []Object
}

// NewList returns a new tracked list holding references to items.
func NewList(items ...Object) *List {
	l := &List{items: make([]Object, 0, len(items))}
	for _, item := range items {
		l.items = append(l.items, Ref(item))
	}
	Init(l)
	Track(l)
	return l
}

func (l *List) Type() Type {
	return LIST
}

func (l *List) Inspect() string {
	parts := make([]string, 0, len(l.items))
	for _, item := range l.items {
		parts = append(parts, item.Inspect())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Lists are equal when their items are pairwise equal.
func (l *List) Equals(other Object) bool {
	otherList, ok := other.(*List)
	if !ok || len(l.items) != len(otherList.items) {
		return false
	}
	for i, item := range l.items {
		if !item.Equals(otherList.items[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.items)
}

// Append adds a reference to item at the end of the list.
func (l *List) Append(item Object) {
	l.items = append(l.items, Ref(item))
}

// Get returns the borrowed item at index i.
func (l *List) Get(i int) (Object, error) {
	if i < 0 || i >= len(l.items) {
		return nil, errz.Errorf(errz.ErrValue, "list index %d out of range", i)
	}
	return l.items[i], nil
}

// Set replaces the item at index i.
func (l *List) Set(i int, item Object) error {
	if i < 0 || i >= len(l.items) {
		return errz.Errorf(errz.ErrValue, "list assignment index %d out of range", i)
	}
	Replace(&l.items[i], item)
	return nil
}

// Items returns a copy of the borrowed items.
func (l *List) Items() []Object {
	items := make([]Object, len(l.items))
	copy(items, l.items)
	return items
}

func (l *List) Traverse(visit Visitor) bool {
	for _, item := range l.items {
		if !visit(item) {
			return false
		}
	}
	return true
}

func (l *List) Clear() {
	items := l.items
	l.items = nil
	for _, item := range items {
		Unref(item)
	}
}

func (l *List) CloneInto(cache *CloneCache) (Object, error) {
	clone := NewList()
	cache.store(l, clone)
	clone.items = make([]Object, 0, len(l.items))
	for _, item := range l.items {
		c, err := Clone(item, cache)
		if err != nil {
			Unref(clone)
			return nil, err
		}
		clone.items = append(clone.items, c)
	}
	return clone, nil
}
