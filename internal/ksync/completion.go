// Package ksync implements the kernel's blocking synchronization
// primitives: completions (a wait queue plus wake-all, the Go counterpart
// of `sys_wait`/`sys_wake` over `struct completion`), counting semaphores
// (`sem_down`/`sem_up`), and the event-mask bit test used by
// `sys_event_wait`/`sys_event_set`.
//
// Tasks in this port are goroutines, so "block the calling task" is a real
// blocking receive rather than a state-machine transition serviced later by
// a scheduler tick. The wait-queue bookkeeping (a bounded FIFO of waiters)
// is kept anyway: it reproduces the original's fixed-capacity wait queue,
// including the "wait queue full" failure mode, rather than letting Go
// channels paper over an unbounded backlog.
package ksync

import (
	"context"

	"github.com/erenright/ertos/internal/containers"
	"github.com/erenright/ertos/kernelerr"
)

// DefaultWaitQueueDepth mirrors SEM_WAIT_SIZE from the original semaphore
// implementation: at most this many tasks may be parked on one primitive at
// once.
const DefaultWaitQueueDepth = 10

// Completion is a one-shot-per-signal wait queue: any number of tasks call
// Wait and block; a single Wake drains the entire queue and releases all of
// them, exactly as `sys_wake` dequeues every waiter from `c->wait`.
type Completion struct {
	waiters *containers.BFIFO[chan struct{}]
}

// NewCompletion builds a completion whose wait queue holds at most depth
// tasks.
func NewCompletion(depth int) *Completion {
	if depth <= 0 {
		depth = DefaultWaitQueueDepth
	}
	return &Completion{waiters: containers.NewBFIFO[chan struct{}](depth)}
}

// Wait blocks the caller until Wake is called, ctx is done, or the wait
// queue is full (CodeResourceExhausted, the Go analogue of `sys_wait`'s
// "failed to add proc to wait queue" path).
func (c *Completion) Wait(ctx context.Context) error {
	ch := make(chan struct{})
	if !c.waiters.Enqueue(ch) {
		return kernelerr.New("ksync.Wait", kernelerr.CodeResourceExhausted, "wait queue full", nil)
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wake releases every task currently parked in Wait and reports how many
// were released.
func (c *Completion) Wake() int {
	n := 0
	for {
		ch, ok := c.waiters.Dequeue()
		if !ok {
			break
		}
		close(ch)
		n++
	}
	return n
}

// Waiting reports how many tasks are currently parked.
func (c *Completion) Waiting() int {
	return c.waiters.Len()
}
