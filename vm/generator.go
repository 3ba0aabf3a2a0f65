package vm

import (
	"fmt"

	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
)

// GENERATOR is the type of Generator objects.
const GENERATOR object.Type = "generator"

// Generator owns a suspended frame of generator code. Each call to Next
// resumes the frame on top of the caller's frame.
type Generator struct {
	object.Header
	frame   *Frame
	name    string
	running bool
}

func newGenerator(f *Frame) *Generator {
	g := &Generator{frame: object.Ref(f), name: f.code.Name()}
	object.Init(g)
	object.Track(g)
	return g
}

func (g *Generator) Type() object.Type {
	return GENERATOR
}

func (g *Generator) Inspect() string {
	return fmt.Sprintf("generator(%s)", g.name)
}

// Generators are equal only by identity.
func (g *Generator) Equals(other object.Object) bool {
	otherGen, ok := other.(*Generator)
	return ok && g == otherGen
}

// Frame returns the borrowed suspended frame, or nil once exhausted.
func (g *Generator) Frame() *Frame {
	return g.frame
}

// IsRunning reports whether the generator frame is executing.
func (g *Generator) IsRunning() bool {
	return g.running
}

// Next resumes the generator and returns a new reference to the next
// yielded value. An exhausted generator fails with ErrStopIteration.
func (g *Generator) Next(ts *ThreadState) (object.Object, error) {
	if g.running {
		return nil, ts.fail(errz.Errorf(errz.ErrValue, "generator %s already executing", g.name))
	}
	f := g.frame
	if f == nil {
		return nil, ts.fail(errz.Errorf(errz.ErrStopIteration, "generator %s is exhausted", g.name))
	}

	object.Replace(&f.back, ts.frame)
	g.running = true
	value, err := ts.runFrame(f)
	g.running = false
	object.Replace(&f.back, nil)

	if err != nil {
		object.Replace(&g.frame, nil)
		return nil, err
	}
	if f.state != FrameSuspended {
		object.XUnref(value)
		object.Replace(&g.frame, nil)
		return nil, ts.fail(errz.Errorf(errz.ErrStopIteration, "generator %s is exhausted", g.name))
	}
	return value, nil
}

func (g *Generator) Traverse(visit object.Visitor) bool {
	if g.frame != nil {
		return visit(g.frame)
	}
	return true
}

func (g *Generator) Clear() {
	object.Replace(&g.frame, nil)
}
