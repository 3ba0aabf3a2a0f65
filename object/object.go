// Package object provides the reference-counted object model of the engine.
//
// Every runtime value embeds a Header carrying its reference count. Values
// are created with a count of one; Ref adds a reference and Unref drops one,
// destroying the value when the count reaches zero. Values that hold
// references to other values are Containers: they are tracked by a Collector
// and expose Traverse so that reference cycles, which plain counting can never
// free, are found and reclaimed by Collect.
//
// Ownership conventions:
//
//   - Constructors return a new reference.
//   - Functions and methods that store an argument take their own reference;
//     the caller keeps the one it passed in.
//   - Getters return borrowed references. Ref the result to keep it.
//
// For example:
//
//	list := object.NewList()
//	item := object.NewStr("x")
//	list.Append(item)  // list now holds its own reference
//	object.Unref(item) // drop ours
//	object.Unref(list) // destroys list, which releases item
package object

import (
	"github.com/risor-io/quarry/errz"
)

// Type of an object as a string.
type Type string

// Type constants
const (
	BOOL     Type = "bool"
	CELL     Type = "cell"
	DICT     Type = "dict"
	ERROR    Type = "error"
	FUNCTION Type = "function"
	INT      Type = "int"
	LIST     Type = "list"
	MODULE   Type = "module"
	NONE     Type = "none"
	STR      Type = "str"
	TUPLE    Type = "tuple"
)

// Object is the interface that all engine values implement. Implementations
// embed Header, which supplies the unexported header method.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns a string representation of the given object.
	Inspect() string

	// Equals returns true if the given object is equal to this object.
	Equals(other Object) bool

	header() *Header
}

// Visitor is called by Traverse once per owned reference. Returning false
// stops the walk.
type Visitor func(Object) bool

// Container is an object that may hold references to other objects. Every
// container must be tracked with Track by its constructor.
type Container interface {
	Object

	// Traverse calls visit once for every reference the container owns, and
	// for nothing else. It returns false if visit stopped the walk.
	Traverse(visit Visitor) bool

	// Clear releases every owned reference. It must be idempotent; the
	// collector uses it to break cycles.
	Clear()
}

// Finalizer is implemented by objects with destructor logic beyond
// releasing references. When an object is destroyed, Finalize runs instead
// of Clear.
type Finalizer interface {
	Finalize()
}

// Header holds the reference count and collector bookkeeping of an object.
type Header struct {
	refcnt   int64
	immortal bool
	dead     bool
	gc       gcLink
}

func (h *Header) header() *Header { return h }

// Init prepares a freshly allocated (or recycled) object: the reference
// count is set to one. Constructors outside this package call it before
// returning the object.
func Init(o Object) {
	h := o.header()
	h.refcnt = 1
	h.dead = false
	h.gc = gcLink{}
}

// RefCount returns the current reference count of o.
func RefCount(o Object) int64 {
	return o.header().refcnt
}

// IsDead reports whether o has been destroyed.
func IsDead(o Object) bool {
	return o.header().dead
}

// Ref adds a reference to o and returns it.
func Ref[T Object](o T) T {
	h := o.header()
	if h.immortal {
		return o
	}
	if h.dead {
		errz.Fatalf("reference taken on destroyed %s", o.Type())
	}
	h.refcnt++
	return o
}

// XRef is Ref for possibly nil values.
func XRef[T Object](o T) T {
	var zero T
	if any(o) == any(zero) {
		return o
	}
	return Ref(o)
}

// Unref drops a reference to o, destroying it when none remain.
func Unref(o Object) {
	h := o.header()
	if h.immortal {
		return
	}
	if h.refcnt <= 0 {
		errz.Fatalf("negative reference count on %s", o.Type())
	}
	h.refcnt--
	if h.refcnt == 0 {
		destroy(o)
	}
}

// XUnref is Unref for possibly nil values.
func XUnref[T Object](o T) {
	var zero T
	if any(o) == any(zero) {
		return
	}
	Unref(o)
}

// Replace stores a new reference to value in *slot and releases the previous
// contents. Either may be nil.
func Replace[T Object](slot *T, value T) {
	old := *slot
	*slot = XRef(value)
	XUnref(old)
}

func destroy(o Object) {
	h := o.header()
	if h.dead {
		errz.Fatalf("%s destroyed twice", o.Type())
	}
	h.dead = true
	c, isContainer := o.(Container)
	if isContainer && h.gc.collector != nil {
		h.gc.collector.Untrack(c)
	}
	if f, ok := o.(Finalizer); ok {
		f.Finalize()
	} else if isContainer {
		c.Clear()
	}
}

// Traverse calls visit for each object c owns, returning the visit count.
func Traverse(c Container) int {
	n := 0
	c.Traverse(func(Object) bool {
		n++
		return true
	})
	return n
}

// Truthy reports the truth value of o. Nil counts as false.
func Truthy(o Object) bool {
	switch o := o.(type) {
	case nil:
		return false
	case *NoneType:
		return false
	case *Bool:
		return o.value
	case *Int:
		return o.value != 0
	case *Str:
		return o.value != ""
	case *List:
		return len(o.items) > 0
	case *Tuple:
		return len(o.items) > 0
	case *Dict:
		return len(o.items) > 0
	default:
		return true
	}
}
