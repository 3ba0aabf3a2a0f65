package vm

import (
	"sync"
	"sync/atomic"

	"github.com/risor-io/quarry/errz"
)

var (
	// gil serializes all engine-visible mutation: reference counts, the
	// collector list, frames and namespaces.
	gil sync.Mutex

	// current is the thread state that holds the gil.
	current atomic.Pointer[ThreadState]
)

// CurrentThreadState returns the thread state that holds the execution
// lock, or nil.
func CurrentThreadState() *ThreadState {
	return current.Load()
}

// SwapThreadState makes ts the current thread state and returns the
// previous one.
func SwapThreadState(ts *ThreadState) *ThreadState {
	return current.Swap(ts)
}

// AcquireThread takes the execution lock and makes ts current.
func AcquireThread(ts *ThreadState) {
	if ts == nil {
		errz.Fatalf("acquire with nil thread state")
	}
	gil.Lock()
	SwapThreadState(ts)
}

// ReleaseThread makes no thread state current and releases the execution
// lock. ts must be the current thread state.
func ReleaseThread(ts *ThreadState) {
	if prev := SwapThreadState(nil); prev != ts {
		errz.Fatalf("release of %v by %v", prev, ts)
	}
	gil.Unlock()
}

// SaveThread releases the execution lock around a blocking operation and
// returns the thread state to pass to RestoreThread.
func SaveThread() *ThreadState {
	ts := SwapThreadState(nil)
	if ts == nil {
		errz.Fatalf("save with no current thread state")
	}
	gil.Unlock()
	return ts
}

// RestoreThread reacquires the execution lock released by SaveThread.
func RestoreThread(ts *ThreadState) {
	AcquireThread(ts)
}

// WithoutLock runs fn with the execution lock released. It must be called
// by the goroutine that holds the lock.
func WithoutLock(fn func()) {
	ts := SaveThread()
	defer RestoreThread(ts)
	fn()
}
