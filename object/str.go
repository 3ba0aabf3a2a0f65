package object

import "strconv"

// Str wraps an immutable string.
type Str struct {
	Header
	value string
}

// NewStr returns a new reference to a Str.
func NewStr(value string) *Str {
	s := &Str{value: value}
	Init(s)
	return s
}

func (s *Str) Type() Type {
	return STR
}

func (s *Str) Value() string {
	return s.value
}

func (s *Str) String() string {
	return s.value
}

func (s *Str) Inspect() string {
	return strconv.Quote(s.value)
}

func (s *Str) Equals(other Object) bool {
	otherStr, ok := other.(*Str)
	return ok && s.value == otherStr.value
}
