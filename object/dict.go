package object

import (
	"sort"
	"strings"

	"github.com/risor-io/quarry/errz"
)

// Dict is a string-keyed namespace. Globals, locals, builtins, the module
// registry and per-thread data are all Dicts.
type Dict struct {
	Header
	items map[string]Object
}

// NewDict returns a new tracked dict holding references to the given items.
func NewDict(items map[string]Object) *Dict {
	d := &Dict{items: make(map[string]Object, len(items))}
	for k, v := range items {
		d.items[k] = Ref(v)
	}
	Init(d)
	Track(d)
	return d
}

func (d *Dict) Type() Type {
	return DICT
}

func (d *Dict) Inspect() string {
	keys := d.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+d.items[k].Inspect())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Dicts are equal when they have the same keys bound to equal values.
func (d *Dict) Equals(other Object) bool {
	otherDict, ok := other.(*Dict)
	if !ok || len(d.items) != len(otherDict.items) {
		return false
	}
	for k, v := range d.items {
		ov, found := otherDict.items[k]
		if !found || !v.Equals(ov) {
			return false
		}
	}
	return true
}

// Len returns the number of keys.
func (d *Dict) Len() int {
	return len(d.items)
}

// Keys returns the keys in sorted order.
func (d *Dict) Keys() []string {
	keys := make([]string, 0, len(d.items))
	for k := range d.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetItem returns the borrowed value bound to key.
func (d *Dict) GetItem(key string) (Object, bool) {
	v, ok := d.items[key]
	return v, ok
}

// SetItem binds key to a new reference to value.
func (d *Dict) SetItem(key string, value Object) {
	if value == nil {
		errz.Fatalf("nil value stored in dict under %q", key)
	}
	old, found := d.items[key]
	d.items[key] = Ref(value)
	if found {
		Unref(old)
	}
}

// DelItem removes key, failing with ErrKey when it is absent.
func (d *Dict) DelItem(key string) error {
	old, found := d.items[key]
	if !found {
		return errz.Errorf(errz.ErrKey, "%q", key)
	}
	delete(d.items, key)
	Unref(old)
	return nil
}

// Update binds every key of other in d.
func (d *Dict) Update(other *Dict) {
	for k, v := range other.items {
		d.SetItem(k, v)
	}
}

func (d *Dict) Traverse(visit Visitor) bool {
	for _, v := range d.items {
		if !visit(v) {
			return false
		}
	}
	return true
}

func (d *Dict) Clear() {
	items := d.items
	d.items = map[string]Object{}
	for _, v := range items {
		Unref(v)
	}
}

func (d *Dict) CloneInto(cache *CloneCache) (Object, error) {
	clone := NewDict(nil)
	cache.store(d, clone)
	for k, v := range d.items {
		c, err := Clone(v, cache)
		if err != nil {
			Unref(clone)
			return nil, err
		}
		clone.items[k] = c
	}
	return clone, nil
}
