package vm

import (
	"github.com/risor-io/quarry/bytecode"
	"github.com/risor-io/quarry/object"
)

const (
	// DefaultFramePoolCapacity is the default number of disposed frames kept
	// for reuse.
	DefaultFramePoolCapacity = 200

	// MinBufferCapacity is the minimum capacity allocated for a frame's slot
	// and stack buffer. This provides headroom so a recycled frame can serve
	// code of varying size without reallocating.
	MinBufferCapacity = 32
)

// PoolStats holds frame pool counters.
type PoolStats struct {
	Free     int
	Capacity int
	Hits     uint64
	Misses   uint64
	Grows    uint64
	Discards uint64
}

// FramePool recycles disposed frames together with their buffers. Like the
// rest of the engine state it is guarded by the execution lock.
type FramePool struct {
	free     []*Frame
	capacity int
	hits     uint64
	misses   uint64
	grows    uint64
	discards uint64
}

// NewFramePool returns a pool that keeps at most capacity frames.
func NewFramePool(capacity int) *FramePool {
	return &FramePool{capacity: capacity}
}

// Capacity returns the maximum number of frames kept.
func (p *FramePool) Capacity() int {
	return p.capacity
}

// Stats returns the pool counters.
func (p *FramePool) Stats() PoolStats {
	return PoolStats{
		Free:     len(p.free),
		Capacity: p.capacity,
		Hits:     p.hits,
		Misses:   p.misses,
		Grows:    p.grows,
		Discards: p.discards,
	}
}

// Drain discards every pooled frame and returns how many there were.
func (p *FramePool) Drain() int {
	n := len(p.free)
	clear(p.free)
	p.free = p.free[:0]
	return n
}

// get returns a reset frame whose buffer fits code, reusing a pooled one
// when available.
func (p *FramePool) get(code *bytecode.Code) *Frame {
	var f *Frame
	if n := len(p.free); n > 0 {
		f = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.hits++
	} else {
		f = &Frame{}
		p.misses++
	}

	slots := code.SlotCount()
	size := slots + code.StackSize()
	if cap(f.buf) >= size {
		// Reuse the existing buffer, just resize and clear
		f.buf = f.buf[:size]
		clear(f.buf)
	} else {
		if f.buf != nil {
			p.grows++
		}
		f.buf = make([]object.Object, size, max(size, MinBufferCapacity))
	}
	f.fast = f.buf[:slots:slots]
	f.stack = f.buf[slots:]
	f.sp = 0
	f.iblock = 0
	f.exc = ExcInfo{}
	f.lasti = -1
	f.lineno = 0
	f.state = FrameCreated
	f.pool = p
	object.Init(f)
	return f
}

func (p *FramePool) put(f *Frame) {
	if len(p.free) >= p.capacity {
		p.discards++
		f.pool = nil
		return
	}
	p.free = append(p.free, f)
}
