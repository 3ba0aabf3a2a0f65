package object

// NoneType is the type of the None singleton.
type NoneType struct {
	Header
}

// None is the immortal null singleton.
var None = newImmortal(&NoneType{})

func (n *NoneType) Type() Type {
	return NONE
}

func (n *NoneType) Inspect() string {
	return "None"
}

func (n *NoneType) String() string {
	return "None"
}

func (n *NoneType) Equals(other Object) bool {
	_, ok := other.(*NoneType)
	return ok
}

func newImmortal[T Object](o T) T {
	h := o.header()
	h.refcnt = 1
	h.immortal = true
	return o
}
