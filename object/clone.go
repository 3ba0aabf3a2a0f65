package object

import (
	"github.com/risor-io/quarry/errz"
)

// Cloner is implemented by objects that define their own cloning. The
// implementation must register its (still empty) clone with cache.store
// before cloning any child, so that self-referencing structures terminate
// and shared children are cloned once.
type Cloner interface {
	CloneInto(cache *CloneCache) (Object, error)
}

// CloneCache maps the identity of an original object to its clone for the
// duration of a single clone operation. It holds a reference to every clone
// it records until Reset.
type CloneCache struct {
	clones map[Object]Object
}

// NewCloneCache returns an empty cache.
func NewCloneCache() *CloneCache {
	return &CloneCache{clones: map[Object]Object{}}
}

// Len returns the number of recorded clones.
func (c *CloneCache) Len() int {
	return len(c.clones)
}

// Reset forgets every recorded clone.
func (c *CloneCache) Reset() {
	if len(c.clones) == 0 {
		return
	}
	clones := c.clones
	c.clones = map[Object]Object{}
	for _, clone := range clones {
		Unref(clone)
	}
}

// Bind records clone as the clone of o, so that every later clone through
// the cache that reaches o uses clone instead. The cache takes a reference
// to clone.
func (c *CloneCache) Bind(o, clone Object) {
	c.store(o, clone)
}

func (c *CloneCache) lookup(o Object) (Object, bool) {
	clone, ok := c.clones[o]
	return clone, ok
}

func (c *CloneCache) store(o, clone Object) {
	old, replaced := c.clones[o]
	c.clones[o] = Ref(clone)
	if replaced {
		Unref(old)
	}
}

// Clone returns a new reference to a clone of o. The rule is uniform:
//
//   - values that cannot change (None, Bool, Int, Str, Error) and modules
//     are returned as themselves;
//   - a Function is shared unless it closes over cells or its globals
//     were cloned, in which case it is rebound to the clones;
//   - mutable containers are deep-cloned, and a value reachable more than
//     once from the roots cloned through the same cache is cloned once;
//   - containers that define no cloning (frames, generators) fail with an
//     ErrClone error.
func Clone(o Object, cache *CloneCache) (Object, error) {
	if o == nil {
		return nil, nil
	}
	if clone, ok := cache.lookup(o); ok {
		return Ref(clone), nil
	}
	if c, ok := o.(Cloner); ok {
		return c.CloneInto(cache)
	}
	if _, ok := o.(Container); ok {
		return nil, errz.Errorf(errz.ErrClone, "cannot clone %s", o.Type())
	}
	return Ref(o), nil
}
