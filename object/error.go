package object

import (
	"fmt"

	"github.com/risor-io/quarry/errz"
)

// Error wraps a Go error as an engine value. It is the value stored in a
// thread state's exception slots.
type Error struct {
	Header
	err error
}

// NewError returns a new reference to an Error wrapping err.
func NewError(err error) *Error {
	e := &Error{err: err}
	Init(e)
	return e
}

func (e *Error) Type() Type {
	return ERROR
}

func (e *Error) Value() error {
	return e.err
}

// Kind returns the engine error kind of the wrapped error.
func (e *Error) Kind() errz.ErrorKind {
	return errz.KindOf(e.err)
}

func (e *Error) Inspect() string {
	return fmt.Sprintf("error(%q)", e.err.Error())
}

func (e *Error) Equals(other Object) bool {
	otherErr, ok := other.(*Error)
	return ok && e.err.Error() == otherErr.err.Error()
}
