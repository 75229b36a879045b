package ksync

import (
	"context"
	"sync"

	"github.com/erenright/ertos/internal/containers"
	"github.com/erenright/ertos/kernelerr"
)

// Semaphore is a counting semaphore, the Go counterpart of `sem_t`/
// `sem_down`/`sem_up`. A blocked Down hands off directly to the next Up
// rather than re-racing TryDown, so permits can't be stolen by a task that
// wasn't waiting when Up ran.
type Semaphore struct {
	mu      sync.Mutex
	cur     int
	max     int
	waiters *containers.BFIFO[chan struct{}]
}

// NewSemaphore builds a semaphore starting at cur permits, capped at max,
// with a wait queue holding at most waitDepth blocked callers.
func NewSemaphore(cur, max, waitDepth int) *Semaphore {
	if waitDepth <= 0 {
		waitDepth = DefaultWaitQueueDepth
	}
	return &Semaphore{
		cur:     cur,
		max:     max,
		waiters: containers.NewBFIFO[chan struct{}](waitDepth),
	}
}

// TryDown acquires a permit without blocking, reporting whether it
// succeeded.
func (s *Semaphore) TryDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur > 0 {
		s.cur--
		return true
	}
	return false
}

// Down acquires a permit, blocking until one is available, ctx is done, or
// the wait queue is full.
func (s *Semaphore) Down(ctx context.Context) error {
	if s.TryDown() {
		return nil
	}

	s.mu.Lock()
	ch := make(chan struct{})
	ok := s.waiters.Enqueue(ch)
	s.mu.Unlock()
	if !ok {
		return kernelerr.New("ksync.Down", kernelerr.CodeResourceExhausted, "semaphore wait queue full", nil)
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Up releases a permit. If a task is waiting, the permit is handed
// directly to the longest-waiting task instead of being added to the
// counter; otherwise cur is incremented, capped at max.
func (s *Semaphore) Up() {
	s.mu.Lock()
	if ch, ok := s.waiters.Dequeue(); ok {
		s.mu.Unlock()
		close(ch)
		return
	}
	if s.cur < s.max {
		s.cur++
	}
	s.mu.Unlock()
}

// Available reports the current permit count.
func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}
