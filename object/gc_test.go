package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackUntrack(t *testing.T) {
	gc := NewCollector()
	a := newNode("a", nil)
	b := newNode("b", nil)
	isolate(gc, a, b)
	require.Equal(t, 2, gc.Count())
	require.True(t, IsTracked(a))

	gc.Untrack(a)
	require.Equal(t, 1, gc.Count())
	require.False(t, IsTracked(a))
	gc.Untrack(a)
	require.Equal(t, 1, gc.Count())

	Unref(b)
	require.Equal(t, 0, gc.Count())
	Unref(a)
}

func TestTrackTwiceIsFatal(t *testing.T) {
	gc := NewCollector()
	a := newNode("a", nil)
	isolate(gc, a)
	require.Panics(t, func() { gc.Track(a) })
	Unref(a)
}

func TestCollectTwoNodeCycle(t *testing.T) {
	gc := NewCollector()
	count := 0
	a := newNode("a", &count)
	b := newNode("b", &count)
	isolate(gc, a, b)
	a.link(b)
	b.link(a)

	Unref(a)
	Unref(b)
	require.Equal(t, 0, count)
	require.False(t, IsDead(a))
	require.False(t, IsDead(b))

	require.Equal(t, 2, gc.Collect())
	require.Equal(t, 2, count)
	require.True(t, IsDead(a))
	require.True(t, IsDead(b))
	require.Equal(t, 0, gc.Count())

	require.Equal(t, 0, gc.Collect())
	require.Equal(t, 2, count)
}

func TestCollectKeepsExternallyHeldCycle(t *testing.T) {
	gc := NewCollector()
	count := 0
	a := newNode("a", &count)
	b := newNode("b", &count)
	isolate(gc, a, b)
	a.link(b)
	b.link(a)
	Unref(b)

	require.Equal(t, 0, gc.Collect())
	require.Equal(t, 0, count)

	Unref(a)
	require.Equal(t, 2, gc.Collect())
	require.Equal(t, 2, count)
}

func TestCollectReclaimsGarbageHangingOffCycle(t *testing.T) {
	gc := NewCollector()
	count := 0
	a := newNode("a", &count)
	b := newNode("b", &count)
	item := NewStr("payload")
	tail := NewList(item)
	isolate(gc, a, b, tail)
	a.link(b)
	b.link(a)
	b.link(tail)
	Unref(tail)
	Unref(a)
	Unref(b)

	require.Equal(t, 3, gc.Collect())
	require.Equal(t, 2, count)
	require.True(t, IsDead(tail))
	require.Equal(t, int64(1), RefCount(item))
	Unref(item)
}

func TestCollectSelfReference(t *testing.T) {
	gc := NewCollector()
	l := NewList()
	isolate(gc, l)
	l.Append(l)
	Unref(l)
	require.False(t, IsDead(l))
	require.Equal(t, 1, gc.Collect())
	require.True(t, IsDead(l))
}

func TestCollectReachableFromRoot(t *testing.T) {
	gc := NewCollector()
	count := 0
	root := newNode("root", &count)
	a := newNode("a", &count)
	b := newNode("b", &count)
	isolate(gc, root, a, b)
	root.link(a)
	a.link(b)
	b.link(a)
	Unref(a)
	Unref(b)

	require.Equal(t, 0, gc.Collect())
	Unref(root)
	require.Equal(t, 1, count)
	require.Equal(t, 2, gc.Collect())
	require.Equal(t, 3, count)
}

func TestCollectDuplicateVisitIsFatal(t *testing.T) {
	gc := NewCollector()
	a := newNode("a", nil)
	b := newNode("b", nil)
	isolate(gc, a, b)
	a.link(b)
	a.dupVisit = true
	Unref(b)
	require.Panics(t, func() { gc.Collect() })

	a.dupVisit = false
	Unref(a)
	require.True(t, IsDead(b))
}

func TestCollectStats(t *testing.T) {
	gc := NewCollector()
	a := newNode("a", nil)
	isolate(gc, a)
	a.link(a)
	Unref(a)
	gc.Collect()
	stats := gc.Stats()
	require.Equal(t, 1, stats.Tracked)
	require.Equal(t, 1, stats.Collected)
	require.Equal(t, uint64(1), stats.Collections)
	require.False(t, stats.Timestamp.IsZero())
}

func TestMaybeCollectThreshold(t *testing.T) {
	gc := NewCollector()
	gc.SetThreshold(3)
	var nodes []*node
	for i := 0; i < 2; i++ {
		n := newNode("n", nil)
		isolate(gc, n)
		n.link(n)
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		Unref(n)
	}
	require.Equal(t, 0, gc.MaybeCollect())
	require.Equal(t, 2, gc.Pending())

	n := newNode("n", nil)
	isolate(gc, n)
	n.link(n)
	Unref(n)
	require.Equal(t, 3, gc.MaybeCollect())
	require.Equal(t, 0, gc.Pending())

	gc.SetEnabled(false)
	require.False(t, gc.IsEnabled())
	require.Equal(t, 0, gc.MaybeCollect())
}

func TestTraverseVisitsEveryReference(t *testing.T) {
	items := []Object{NewInt(1), NewStr("two"), None, NewList()}
	l := NewList(items...)
	require.Equal(t, len(items), Traverse(l))

	tup := NewTuple(items...)
	require.Equal(t, len(items), Traverse(tup))

	d := NewDict(map[string]Object{"a": items[0], "b": items[1]})
	require.Equal(t, 2, Traverse(d))

	require.Equal(t, 0, Traverse(NewCell(nil)))
	require.Equal(t, 1, Traverse(NewCell(items[0])))

	m := NewModule("m")
	require.Equal(t, 1, Traverse(m))
}

func TestTraverseStopsEarly(t *testing.T) {
	l := NewList(NewInt(1), NewInt(2), NewInt(3))
	visited := 0
	completed := l.Traverse(func(Object) bool {
		visited++
		return visited < 2
	})
	require.False(t, completed)
	require.Equal(t, 2, visited)
}
