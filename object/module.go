package object

import "fmt"

// Module is a named namespace. Modules are shared by identity: cloning a
// namespace that refers to a module refers to the same module.
type Module struct {
	Header
	name string
	dict *Dict
}

// NewModule returns a new tracked module with an empty namespace that binds
// __name__.
func NewModule(name string) *Module {
	m := &Module{name: name, dict: NewDict(nil)}
	nameStr := NewStr(name)
	m.dict.SetItem("__name__", nameStr)
	Unref(nameStr)
	Init(m)
	Track(m)
	return m
}

func (m *Module) Type() Type {
	return MODULE
}

func (m *Module) Name() string {
	return m.name
}

// Dict returns the borrowed module namespace. It is nil once the module has
// been cleared.
func (m *Module) Dict() *Dict {
	return m.dict
}

func (m *Module) Inspect() string {
	return fmt.Sprintf("module(%s)", m.name)
}

func (m *Module) Equals(other Object) bool {
	otherModule, ok := other.(*Module)
	return ok && m == otherModule
}

func (m *Module) Traverse(visit Visitor) bool {
	if m.dict != nil {
		return visit(m.dict)
	}
	return true
}

func (m *Module) Clear() {
	Replace(&m.dict, nil)
}

func (m *Module) CloneInto(cache *CloneCache) (Object, error) {
	return Ref(m), nil
}
