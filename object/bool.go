package object

// Bool wraps a bool. True and False are immortal singletons.
type Bool struct {
	Header
	value bool
}

var (
	True  = newImmortal(&Bool{value: true})
	False = newImmortal(&Bool{value: false})
)

// NewBool returns True or False.
func NewBool(value bool) *Bool {
	if value {
		return True
	}
	return False
}

func (b *Bool) Type() Type {
	return BOOL
}

func (b *Bool) Value() bool {
	return b.value
}

func (b *Bool) Inspect() string {
	if b.value {
		return "True"
	}
	return "False"
}

func (b *Bool) Equals(other Object) bool {
	otherBool, ok := other.(*Bool)
	return ok && b.value == otherBool.value
}
