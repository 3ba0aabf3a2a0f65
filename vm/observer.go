package vm

import (
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
)

// ObserverConfig specifies what events an observer wants to receive.
// Use NewObserverConfig() to create configs with safe defaults.
type ObserverConfig struct {
	// ObserveCalls enables OnCall callbacks.
	ObserveCalls bool

	// ObserveReturns enables OnReturn callbacks.
	ObserveReturns bool

	// ObserveExceptions enables OnException callbacks.
	ObserveExceptions bool

	// ObserveLines enables OnLine callbacks.
	// Use for: coverage tools, line-level debugging.
	ObserveLines bool
}

// NewObserverConfig creates a config observing calls, returns and
// exceptions but not lines.
func NewObserverConfig() ObserverConfig {
	return ObserverConfig{
		ObserveCalls:      true,
		ObserveReturns:    true,
		ObserveExceptions: true,
	}
}

// Observer is an interface for observing frame evaluation events.
// Implementations can be used for profiling, debugging, or solution
// tracing without writing a raw TraceFunc.
//
// All methods are optional - implementations can embed NoOpObserver
// to provide default no-op implementations for methods they don't need.
type Observer interface {
	// Config returns the observer's configuration.
	Config() ObserverConfig

	// OnCall is called when a frame starts or resumes evaluation.
	// Returns false to interrupt evaluation.
	OnCall(event CallEvent) bool

	// OnReturn is called when a frame returns or suspends.
	// Returns false to interrupt evaluation.
	OnReturn(event ReturnEvent) bool

	// OnException is called when evaluation of a frame fails.
	// Returns false to interrupt evaluation.
	OnException(event ExceptionEvent) bool

	// OnLine is called when the evaluator reports a new source line.
	// Returns false to interrupt evaluation.
	OnLine(event LineEvent) bool
}

// CallEvent contains information about a frame entering evaluation.
type CallEvent struct {
	// FunctionName is the name of the code being evaluated.
	FunctionName string

	// Location is the source location of the frame.
	Location errz.SourceLocation

	// FrameDepth is the call stack depth including the frame.
	FrameDepth int

	// Predicate is true when the frame accumulates solutions.
	Predicate bool

	// Conjunction is true when the frame runs on cloned namespaces.
	Conjunction bool
}

// ReturnEvent contains information about a frame leaving evaluation.
type ReturnEvent struct {
	// FunctionName is the name of the code returning.
	FunctionName string

	// Location is the source location of the return.
	Location errz.SourceLocation

	// FrameDepth is the call stack depth including the frame.
	FrameDepth int

	// Value is the borrowed return value, nil when evaluation failed.
	Value object.Object

	// Solutions is the number of accumulated solutions for predicates.
	Solutions int
}

// ExceptionEvent contains information about a failed evaluation.
type ExceptionEvent struct {
	FunctionName string
	Location     errz.SourceLocation
	FrameDepth   int
	Err          error
}

// LineEvent contains information about a line change.
type LineEvent struct {
	FunctionName string
	Location     errz.SourceLocation
	FrameDepth   int
	StackDepth   int
}

// NoOpObserver is an Observer implementation that does nothing.
// Embed this in your observer to provide default implementations
// for methods you don't need.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig          { return NewObserverConfig() }
func (NoOpObserver) OnCall(CallEvent) bool           { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool       { return true }
func (NoOpObserver) OnException(ExceptionEvent) bool { return true }
func (NoOpObserver) OnLine(LineEvent) bool           { return true }

// Ensure NoOpObserver implements Observer.
var _ Observer = NoOpObserver{}

// ObserverHook adapts an observer to a TraceFunc suitable for SetTrace.
func ObserverHook(observer Observer) TraceFunc {
	cfg := observer.Config()
	return func(_ object.Object, f *Frame, event TraceEvent, arg object.Object) error {
		code := f.Code()
		loc := errz.SourceLocation{Filename: code.Filename(), Line: f.Lineno()}
		depth := f.Depth()
		proceed := true
		switch event {
		case TraceCall:
			if cfg.ObserveCalls {
				proceed = observer.OnCall(CallEvent{
					FunctionName: code.Name(),
					Location:     loc,
					FrameDepth:   depth,
					Predicate:    code.IsPredicate(),
					Conjunction:  code.IsConjunction(),
				})
			}
		case TraceReturn:
			if cfg.ObserveReturns {
				solutions := 0
				if r := f.Result(); r != nil {
					solutions = r.Len()
				}
				proceed = observer.OnReturn(ReturnEvent{
					FunctionName: code.Name(),
					Location:     loc,
					FrameDepth:   depth,
					Value:        arg,
					Solutions:    solutions,
				})
			}
		case TraceException:
			if cfg.ObserveExceptions {
				var err error
				if e, ok := arg.(*object.Error); ok {
					err = e.Value()
				}
				proceed = observer.OnException(ExceptionEvent{
					FunctionName: code.Name(),
					Location:     loc,
					FrameDepth:   depth,
					Err:          err,
				})
			}
		case TraceLine:
			if cfg.ObserveLines {
				proceed = observer.OnLine(LineEvent{
					FunctionName: code.Name(),
					Location:     loc,
					FrameDepth:   depth,
					StackDepth:   f.StackLevel(),
				})
			}
		}
		if !proceed {
			return errz.Errorf(errz.ErrInterrupt, "evaluation of %s halted by observer", code.Name())
		}
		return nil
	}
}
