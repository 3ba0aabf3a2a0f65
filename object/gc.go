package object

import (
	"time"

	"github.com/risor-io/quarry/errz"
)

// DefaultThreshold is the number of container allocations after which
// MaybeCollect runs a collection.
const DefaultThreshold = 700

type gcMark uint8

const (
	markNone gcMark = iota
	markPending
	markReachable
)

// gcLink is the intrusive node of the collector's doubly linked list.
type gcLink struct {
	prev, next *Header
	owner      Container
	collector  *Collector
	refs       int64
	mark       gcMark
}

// CollectStats holds statistics from the most recent collection.
type CollectStats struct {
	Tracked     int
	Collected   int
	Collections uint64
	Duration    time.Duration
	Timestamp   time.Time
}

// Collector tracks live containers and reclaims reference cycles among them.
// It is not safe for concurrent use; the engine serializes all access with
// its global execution lock.
type Collector struct {
	head        Header
	count       int
	threshold   int
	allocations int
	enabled     bool
	collecting  bool
	collections uint64
	lastStats   CollectStats
}

var defaultCollector = NewCollector()

// NewCollector returns an empty, enabled collector.
func NewCollector() *Collector {
	gc := &Collector{
		threshold: DefaultThreshold,
		enabled:   true,
	}
	gc.head.gc.prev = &gc.head
	gc.head.gc.next = &gc.head
	return gc
}

// DefaultCollector returns the process-wide collector used by Track.
func DefaultCollector() *Collector {
	return defaultCollector
}

// Track registers c with the process-wide collector.
func Track(c Container) {
	defaultCollector.Track(c)
}

// Untrack removes c from whichever collector tracks it.
func Untrack(c Container) {
	if gc := c.header().gc.collector; gc != nil {
		gc.Untrack(c)
	}
}

// IsTracked reports whether c is registered with a collector.
func IsTracked(c Container) bool {
	return c.header().gc.collector != nil
}

// Collect runs a collection on the process-wide collector.
func Collect() int {
	return defaultCollector.Collect()
}

// SetThreshold sets the allocation count that triggers MaybeCollect.
func (gc *Collector) SetThreshold(threshold int) {
	gc.threshold = threshold
}

// Threshold returns the allocation count that triggers MaybeCollect.
func (gc *Collector) Threshold() int {
	return gc.threshold
}

// SetEnabled enables or disables automatic collection. Explicit calls to
// Collect always run.
func (gc *Collector) SetEnabled(enabled bool) {
	gc.enabled = enabled
}

// IsEnabled returns whether automatic collection is enabled.
func (gc *Collector) IsEnabled() bool {
	return gc.enabled
}

// Count returns the number of tracked containers.
func (gc *Collector) Count() int {
	return gc.count
}

// Pending returns the number of containers allocated since the last
// collection.
func (gc *Collector) Pending() int {
	return gc.allocations
}

// Stats returns statistics from the most recent collection.
func (gc *Collector) Stats() CollectStats {
	return gc.lastStats
}

// Track inserts c at the tail of the tracking list.
func (gc *Collector) Track(c Container) {
	h := c.header()
	if h.gc.collector != nil {
		errz.Fatalf("%s tracked twice", c.Type())
	}
	tail := gc.head.gc.prev
	h.gc.prev = tail
	h.gc.next = &gc.head
	h.gc.owner = c
	h.gc.collector = gc
	tail.gc.next = h
	gc.head.gc.prev = h
	gc.count++
	gc.allocations++
}

// Untrack unlinks c from the tracking list. Untracking an object that is
// not tracked by gc is a no-op.
func (gc *Collector) Untrack(c Container) {
	h := c.header()
	if h.gc.collector != gc {
		return
	}
	h.gc.prev.gc.next = h.gc.next
	h.gc.next.gc.prev = h.gc.prev
	h.gc.prev = nil
	h.gc.next = nil
	h.gc.owner = nil
	h.gc.collector = nil
	h.gc.mark = markNone
	gc.count--
	if gc.allocations > 0 {
		gc.allocations--
	}
}

// MaybeCollect runs a collection when automatic collection is enabled and
// enough containers were allocated since the last one. Callers must only
// use it at points where no borrowed references are in flight.
func (gc *Collector) MaybeCollect() int {
	if !gc.enabled || gc.threshold <= 0 || gc.allocations < gc.threshold {
		return 0
	}
	return gc.Collect()
}

// inSet returns the header of o when o is a container taking part in the
// current collection.
func (gc *Collector) inSet(o Object) *Header {
	if o == nil {
		return nil
	}
	if _, ok := o.(Container); !ok {
		return nil
	}
	h := o.header()
	if h.gc.collector != gc || h.gc.mark == markNone {
		return nil
	}
	return h
}

// Collect finds every tracked container that is reachable only through
// references from other tracked containers and destroys it. It returns the
// number of containers reclaimed. A call made while a collection is already
// running returns zero.
func (gc *Collector) Collect() int {
	if gc.collecting {
		return 0
	}
	gc.collecting = true
	defer func() { gc.collecting = false }()

	start := time.Now()
	objs := make([]Container, 0, gc.count)
	for h := gc.head.gc.next; h != &gc.head; h = h.gc.next {
		h.gc.refs = h.refcnt
		h.gc.mark = markPending
		objs = append(objs, h.gc.owner)
	}

	// Subtract references that originate inside the tracked set. What
	// remains in refs is the number of references held from outside.
	for _, c := range objs {
		c.Traverse(func(o Object) bool {
			if h := gc.inSet(o); h != nil {
				h.gc.refs--
			}
			return true
		})
	}

	var stack []Container
	for _, c := range objs {
		h := c.header()
		if h.gc.refs < 0 {
			errz.Fatalf("%s visited more references than it holds", c.Type())
		}
		if h.gc.refs > 0 {
			h.gc.mark = markReachable
			stack = append(stack, c)
		}
	}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c.Traverse(func(o Object) bool {
			if h := gc.inSet(o); h != nil && h.gc.mark == markPending {
				h.gc.mark = markReachable
				stack = append(stack, o.(Container))
			}
			return true
		})
	}

	var unreachable []Container
	for _, c := range objs {
		h := c.header()
		if h.gc.mark != markReachable {
			unreachable = append(unreachable, c)
		}
		h.gc.mark = markNone
	}

	// Hold every member while the cycles are broken so none is destroyed
	// before all of them have been cleared; the final Unref destroys each
	// exactly once.
	for _, c := range unreachable {
		Ref(c)
	}
	for _, c := range unreachable {
		if !c.header().dead {
			c.Clear()
		}
	}
	for _, c := range unreachable {
		Unref(c)
	}

	gc.allocations = 0
	gc.collections++
	gc.lastStats = CollectStats{
		Tracked:     len(objs),
		Collected:   len(unreachable),
		Collections: gc.collections,
		Duration:    time.Since(start),
		Timestamp:   start,
	}
	return len(unreachable)
}
