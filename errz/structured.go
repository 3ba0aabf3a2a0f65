// Package errz defines the error taxonomy of the engine.
//
// Recoverable conditions (recursion limit, namespace failures, clone failures,
// argument binding) are reported as *Error values and flow through the
// thread state's exception slots. Violated core invariants (block stack
// overflow, refcount underflow, double destruction) are *InvariantError
// values raised with panic; callers are not expected to handle them.
package errz

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrRuntime indicates a general runtime error.
	ErrRuntime ErrorKind = iota
	// ErrType indicates a type mismatch or invalid operation on a type.
	ErrType
	// ErrName indicates an undefined variable.
	ErrName
	// ErrKey indicates a missing namespace key.
	ErrKey
	// ErrValue indicates an invalid value for an operation.
	ErrValue
	// ErrArgs indicates an argument binding failure.
	ErrArgs
	// ErrRecursion indicates the recursion limit was exceeded.
	ErrRecursion
	// ErrClone indicates a value could not be cloned for a conjunction clause.
	ErrClone
	// ErrStopIteration indicates an exhausted generator.
	ErrStopIteration
	// ErrInterrupt indicates evaluation was interrupted by a pending call.
	ErrInterrupt
	// ErrSystem indicates an engine-level failure such as a full queue.
	ErrSystem
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrRuntime:
		return "runtime error"
	case ErrType:
		return "type error"
	case ErrName:
		return "name error"
	case ErrKey:
		return "key error"
	case ErrValue:
		return "value error"
	case ErrArgs:
		return "args error"
	case ErrRecursion:
		return "recursion error"
	case ErrClone:
		return "clone error"
	case ErrStopIteration:
		return "stop iteration"
	case ErrInterrupt:
		return "interrupt"
	case ErrSystem:
		return "system error"
	default:
		return "error"
	}
}

// SourceLocation represents a position in source code.
type SourceLocation struct {
	Filename string
	Line     int // 1-based line number
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d", s.Filename, s.Line)
	}
	return fmt.Sprintf("line %d", s.Line)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Filename == "" && s.Line == 0
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string
	Location SourceLocation
}

// String returns a formatted string representation of the stack frame.
func (f StackFrame) String() string {
	if f.Function != "" {
		return fmt.Sprintf("at %s (%s)", f.Function, f.Location.String())
	}
	return fmt.Sprintf("at %s", f.Location.String())
}

// FormatStackTrace formats a slice of stack frames as a human-readable string.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Stack trace:\n")
	for _, frame := range frames {
		b.WriteString("  ")
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Error is a recoverable engine error.
type Error struct {
	Message string
	Kind    ErrorKind
	Stack   []StackFrame
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether the error is unrecoverable. Engine errors never are.
func (e *Error) IsFatal() bool {
	return false
}

// FriendlyError is an error with a human friendly message in addition to the
// lower level default error message.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}

// FriendlyErrorMessage returns the message followed by the stack trace.
func (e *Error) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	msg.WriteString(e.Error())
	msg.WriteString("\n")
	if len(e.Stack) > 0 {
		msg.WriteString("\n")
		msg.WriteString(FormatStackTrace(e.Stack))
	}
	return msg.String()
}

// WithCause wraps the error with a cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithStack attaches a stack trace if the error does not already carry one.
func (e *Error) WithStack(stack []StackFrame) *Error {
	if len(e.Stack) == 0 {
		e.Stack = stack
	}
	return e
}

// New creates an Error of the given kind.
func New(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that are
// not engine errors report ErrRuntime.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrRuntime
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// InvariantError signals a violated core invariant. It is only ever used as a
// panic value.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Message
}

// IsFatal always returns true.
func (e *InvariantError) IsFatal() bool {
	return true
}

// Fatalf panics with an *InvariantError.
func Fatalf(format string, args ...any) {
	panic(&InvariantError{Message: fmt.Sprintf(format, args...)})
}
