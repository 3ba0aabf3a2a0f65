package vm

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/risor-io/quarry/errz"
)

// DefaultPendingCallCapacity is the default size of the pending-call queue.
const DefaultPendingCallCapacity = 32

// PendingCall is a callback scheduled from outside the execution lock and
// run by the evaluator at its next checkpoint.
type PendingCall func() error

type pendingCalls struct {
	mu       sync.Mutex
	queue    []PendingCall
	capacity int
	busy     bool
	ready    atomic.Bool
}

func (p *pendingCalls) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// AddPendingCall schedules fn. It may be called from any goroutine without
// holding the execution lock. It fails when the queue is full.
func (interp *InterpreterState) AddPendingCall(fn PendingCall) error {
	p := &interp.pending
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) >= p.capacity {
		return errz.Errorf(errz.ErrSystem, "pending call queue is full (%d)", p.capacity)
	}
	p.queue = append(p.queue, fn)
	p.ready.Store(true)
	return nil
}

// MakePendingCalls runs scheduled callbacks in order on ts. The first
// failure stops the drain, is recorded on ts and returned; the remaining
// callbacks run at a later checkpoint. Calls made while a drain is already
// running return nil.
func (interp *InterpreterState) MakePendingCalls(ts *ThreadState) error {
	p := &interp.pending
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return nil
	}
	p.busy = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.busy = false
		p.ready.Store(len(p.queue) > 0)
		p.mu.Unlock()
	}()

	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return nil
		}
		fn := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if err := fn(); err != nil {
			return ts.fail(err)
		}
	}
}

// Checkpoint runs pending callbacks if any are scheduled. Evaluators call
// it periodically.
func (ts *ThreadState) Checkpoint() error {
	if !ts.interp.pending.ready.Load() {
		return nil
	}
	return ts.interp.MakePendingCalls(ts)
}

// WatchContext schedules an ErrInterrupt failure when ctx is done, so the
// evaluation running at that time stops at its next checkpoint. The
// returned function stops watching.
func (interp *InterpreterState) WatchContext(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cause := ctx.Err()
			err := interp.AddPendingCall(func() error {
				return errz.New(errz.ErrInterrupt, cause.Error()).WithCause(cause)
			})
			if err != nil {
				interp.logger.Warn().Err(err).Msg("failed to schedule interrupt")
			}
		case <-done:
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
