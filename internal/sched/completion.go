package sched

import (
	"github.com/erenright/ertos/internal/containers"
	"github.com/erenright/ertos/kernelerr"
)

// Completion is the task-scheduler-level wait queue backing sys_wait/
// sys_wake: Wait parks the calling task (state -> sleep, enqueued in a
// bounded FIFO of waiters) and hands control back to the scheduler; Wake
// dequeues every waiter and marks it runnable again, to be picked up the
// next time the scheduler's round-robin walk reaches it. Unlike
// internal/ksync.Completion, no channel is involved here: the task's
// goroutine is still parked in parkAndYield, waiting on its own resume
// channel, exactly as a real task would still be "present" but not
// selected by schedule() until its state flips to RUN.
type Completion struct {
	waiters *containers.BFIFO[*Task]
}

// DefaultWaitQueueDepth mirrors the original semaphore's SEM_WAIT_SIZE,
// reused here as the default depth for task-ring completions that don't
// need a caller-tuned bound.
const DefaultWaitQueueDepth = 10

// NewCompletion builds a completion whose wait queue holds at most depth
// tasks, the counterpart of `struct completion`'s fixed-size `wait` bfifo.
func NewCompletion(depth int) *Completion {
	if depth <= 0 {
		depth = 10
	}
	return &Completion{waiters: containers.NewBFIFO[*Task](depth)}
}

// Wait parks the calling task until a Wake call releases it. It mirrors
// sys_wait's "add cur to the wait queue, sleep, request a reschedule" path,
// failing with CodeResourceExhausted if the wait queue is already full.
func (c *Completion) Wait(t *Task) error {
	if !c.waiters.Enqueue(t) {
		return kernelerr.New("sched.Wait", kernelerr.CodeResourceExhausted, "completion wait queue full", nil)
	}
	t.setState(StateSleep)
	t.sched.parkAndYield(t)
	return nil
}

// Wake dequeues every parked task and marks it runnable, the counterpart
// of sys_wake's drain-the-whole-queue loop. It returns the number of tasks
// released.
func (c *Completion) Wake() int {
	n := 0
	for {
		t, ok := c.waiters.Dequeue()
		if !ok {
			break
		}
		t.setState(StateRun)
		n++
	}
	return n
}

// Waiting reports how many tasks are currently parked.
func (c *Completion) Waiting() int {
	return c.waiters.Len()
}
