package object

import (
	"fmt"

	"github.com/risor-io/quarry/bytecode"
)

// Function binds a code object to the globals it was defined in, its
// default argument values and the closure cells for its free variables.
type Function struct {
	Header
	code     *bytecode.Code
	globals  *Dict
	defaults *Tuple
	closure  *Tuple
}

// NewFunction returns a new tracked function. defaults and closure may be
// nil.
func NewFunction(code *bytecode.Code, globals *Dict, defaults, closure *Tuple) *Function {
	f := &Function{
		code:     code,
		globals:  XRef(globals),
		defaults: XRef(defaults),
		closure:  XRef(closure),
	}
	Init(f)
	Track(f)
	return f
}

func (f *Function) Type() Type {
	return FUNCTION
}

func (f *Function) Name() string {
	return f.code.Name()
}

func (f *Function) Code() *bytecode.Code {
	return f.code
}

// Globals returns the borrowed globals namespace.
func (f *Function) Globals() *Dict {
	return f.globals
}

// Defaults returns the borrowed defaults tuple, or nil.
func (f *Function) Defaults() *Tuple {
	return f.defaults
}

// Closure returns the borrowed tuple of closure cells, or nil.
func (f *Function) Closure() *Tuple {
	return f.closure
}

func (f *Function) Inspect() string {
	return fmt.Sprintf("func %s()", f.code.Name())
}

func (f *Function) Equals(other Object) bool {
	otherFn, ok := other.(*Function)
	return ok && f == otherFn
}

func (f *Function) Traverse(visit Visitor) bool {
	if f.globals != nil && !visit(f.globals) {
		return false
	}
	if f.defaults != nil && !visit(f.defaults) {
		return false
	}
	if f.closure != nil && !visit(f.closure) {
		return false
	}
	return true
}

func (f *Function) Clear() {
	Replace(&f.globals, nil)
	Replace(&f.defaults, nil)
	Replace(&f.closure, nil)
}

// CloneInto shares f unless a clone could observe state that was cloned
// through cache: when f closes over cells, or its globals were already
// cloned. The clone then binds the cloned globals, defaults and closure.
func (f *Function) CloneInto(cache *CloneCache) (Object, error) {
	var globals *Dict
	if f.globals != nil {
		if g, ok := cache.lookup(f.globals); ok {
			globals, _ = g.(*Dict)
		}
	}
	if f.closure == nil && globals == nil {
		return Ref(f), nil
	}
	if globals == nil {
		globals = f.globals
	}

	clone := NewFunction(f.code, globals, nil, nil)
	cache.store(f, clone)
	var err error
	if clone.defaults, err = cloneTuple(f.defaults, cache); err != nil {
		Unref(clone)
		return nil, err
	}
	if clone.closure, err = cloneTuple(f.closure, cache); err != nil {
		Unref(clone)
		return nil, err
	}
	return clone, nil
}

func cloneTuple(t *Tuple, cache *CloneCache) (*Tuple, error) {
	if t == nil {
		return nil, nil
	}
	c, err := Clone(t, cache)
	if err != nil {
		return nil, err
	}
	return c.(*Tuple), nil
}
