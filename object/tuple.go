package object

import (
	"strings"

	"github.com/risor-io/quarry/errz"
)

// Tuple is a fixed-length sequence. It is used for variadic positional
// arguments, function defaults and closure cells.
type Tuple struct {
	Header
	items []Object
}

// NewTuple returns a new tracked tuple holding references to items.
func NewTuple(items ...Object) *Tuple {
	t := &Tuple{items: make([]Object, len(items))}
	for i, item := range items {
		t.items[i] = Ref(item)
	}
	Init(t)
	Track(t)
	return t
}

func (t *Tuple) Type() Type {
	return TUPLE
}

func (t *Tuple) Inspect() string {
	parts := make([]string, 0, len(t.items))
	for _, item := range t.items {
		parts = append(parts, item.Inspect())
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *Tuple) Equals(other Object) bool {
	otherTuple, ok := other.(*Tuple)
	if !ok || len(t.items) != len(otherTuple.items) {
		return false
	}
	for i, item := range t.items {
		if !item.Equals(otherTuple.items[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of items.
func (t *Tuple) Len() int {
	return len(t.items)
}

// Get returns the borrowed item at index i.
func (t *Tuple) Get(i int) (Object, error) {
	if i < 0 || i >= len(t.items) {
		return nil, errz.Errorf(errz.ErrValue, "tuple index %d out of range", i)
	}
	return t.items[i], nil
}

// Items returns a copy of the borrowed items.
func (t *Tuple) Items() []Object {
	items := make([]Object, len(t.items))
	copy(items, t.items)
	return items
}

func (t *Tuple) Traverse(visit Visitor) bool {
	for _, item := range t.items {
		if item != nil && !visit(item) {
			return false
		}
	}
	return true
}

func (t *Tuple) Clear() {
	for i, item := range t.items {
		if item != nil {
			t.items[i] = nil
			Unref(item)
		}
	}
}

// CloneInto clones the items. A tuple whose items all clone to themselves is
// shared instead of copied.
func (t *Tuple) CloneInto(cache *CloneCache) (Object, error) {
	clone := NewTuple()
	cache.store(t, clone)
	clone.items = make([]Object, len(t.items))
	same := true
	for i, item := range t.items {
		if item == nil {
			continue
		}
		c, err := Clone(item, cache)
		if err != nil {
			Unref(clone)
			return nil, err
		}
		clone.items[i] = c
		same = same && c == item
	}
	if same {
		cache.store(t, t)
		Unref(clone)
		return Ref(t), nil
	}
	return clone, nil
}
