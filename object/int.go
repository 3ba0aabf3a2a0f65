package object

import "strconv"

// Int wraps an int64.
type Int struct {
	Header
	value int64
}

// NewInt returns a new reference to an Int.
func NewInt(value int64) *Int {
	i := &Int{value: value}
	Init(i)
	return i
}

func (i *Int) Type() Type {
	return INT
}

func (i *Int) Value() int64 {
	return i.value
}

func (i *Int) Inspect() string {
	return strconv.FormatInt(i.value, 10)
}

func (i *Int) Equals(other Object) bool {
	otherInt, ok := other.(*Int)
	return ok && i.value == otherInt.value
}
