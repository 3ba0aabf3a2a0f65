package object

import (
	"fmt"
)

// node is a container with explicit outgoing references and a finalize
// counter, used to build arbitrary object graphs in tests.
type node struct {
	Header
	name      string
	refs      []Object
	finalized *int
	dupVisit  bool
}

func newNode(name string, finalized *int) *node {
	n := &node{name: name, finalized: finalized}
	Init(n)
	Track(n)
	return n
}

func (n *node) link(o Object) {
	n.refs = append(n.refs, Ref(o))
}

func (n *node) Type() Type               { return "node" }
func (n *node) Inspect() string          { return fmt.Sprintf("node(%s)", n.name) }
func (n *node) Equals(other Object) bool { return other == Object(n) }

func (n *node) Traverse(visit Visitor) bool {
	for _, o := range n.refs {
		if !visit(o) {
			return false
		}
		if n.dupVisit && !visit(o) {
			return false
		}
	}
	return true
}

func (n *node) Clear() {
	refs := n.refs
	n.refs = nil
	for _, o := range refs {
		Unref(o)
	}
}

func (n *node) Finalize() {
	if n.finalized != nil {
		*n.finalized++
	}
	n.Clear()
}

// isolate moves containers from the process-wide collector into gc so a
// test sees only its own objects.
func isolate(gc *Collector, objs ...Container) {
	for _, o := range objs {
		Untrack(o)
		gc.Track(o)
	}
}
