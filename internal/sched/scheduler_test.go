package sched

import (
	"context"
	"testing"
	"time"

	"github.com/erenright/ertos/internal/clock"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) (*Scheduler, context.CancelFunc) {
	t.Helper()
	c := &clock.Clock{}
	s := New(c, nil)
	s.SpawnIdle(func(tk *Task) {
		for {
			tk.Yield()
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	return s, cancel
}

func TestScheduler_RoundRobinFairness(t *testing.T) {
	s, cancel := newTestScheduler(t)
	defer cancel()

	const rounds = 5
	var order []string
	done := make(chan struct{})

	s.Spawn("a", ModeUser, func(tk *Task) {
		for i := 0; i < rounds; i++ {
			order = append(order, "a")
			tk.Yield()
		}
	})
	s.Spawn("b", ModeUser, func(tk *Task) {
		for i := 0; i < rounds; i++ {
			order = append(order, "b")
			tk.Yield()
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks never finished")
	}

	require.Equal(t, rounds*2, len(order))
	for i := 0; i+1 < len(order); i += 2 {
		require.NotEqual(t, order[i], order[i+1], "expected alternation at index %d: %v", i, order)
	}
}

func TestScheduler_SleepWakesAfterDeadline(t *testing.T) {
	s, cancel := newTestScheduler(t)
	defer cancel()

	woke := make(chan uint64, 1)
	s.Spawn("sleeper", ModeUser, func(tk *Task) {
		tk.Sleep(5)
		woke <- s.clock.Ticks()
	})

	// advance the clock past the deadline; the idle task's perpetual
	// yield loop drives the scheduler to notice it each tick.
	require.Eventually(t, func() bool {
		s.clock.Tick()
		select {
		case v := <-woke:
			return v >= 5
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond)
}

func TestScheduler_CompletionWaitWake(t *testing.T) {
	s, cancel := newTestScheduler(t)
	defer cancel()

	c := NewCompletion(4)
	released := make(chan error, 1)
	s.Spawn("waiter", ModeUser, func(tk *Task) {
		released <- c.Wait(tk)
	})

	require.Eventually(t, func() bool { return c.Waiting() == 1 }, time.Second, time.Millisecond)
	c.Wake()

	select {
	case err := <-released:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never released")
	}
}

func TestScheduler_EventSetWakesMatchingTask(t *testing.T) {
	s, cancel := newTestScheduler(t)
	defer cancel()

	released := make(chan struct{})
	waiter := s.Spawn("waiter", ModeUser, func(tk *Task) {
		tk.EventWait(0x2)
		close(released)
	})

	require.Eventually(t, func() bool { return waiter.State() == StateSleep }, time.Second, time.Millisecond)
	hit := s.EventSet(nil, 0x2)
	require.Equal(t, 1, hit)

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("waiter never released")
	}
}
