package sched

import (
	"context"
	"sync"

	"github.com/erenright/ertos/internal/clock"
	"github.com/erenright/ertos/internal/containers"
	"github.com/erenright/ertos/internal/logging"
)

// Scheduler owns the process ring and drives the round-robin dispatch loop,
// the Go counterpart of `schedule()`/`swtch()`/`check_timers()`.
type Scheduler struct {
	clock *clock.Clock
	log   *logging.Logger

	mu     sync.Mutex
	head   containers.Node
	owners map[*containers.Node]*Task
	order  []*Task // spawn order, walked for round robin

	cur  *Task
	idle *Task

	toSched chan *Task
	started bool
}

// New builds a scheduler driven by c. log may be nil, in which case the
// package default logger is used.
func New(c *clock.Clock, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Default()
	}
	s := &Scheduler{
		clock:   c,
		log:     log,
		owners:  make(map[*containers.Node]*Task),
		toSched: make(chan *Task),
	}
	s.head.Init()
	return s
}

// Spawn creates a task running entry and adds it to the run queue at the
// tail, the counterpart of `spawn()`/`do_spawn()`. entry runs on its own
// goroutine and does not start executing until the scheduler first resumes
// it.
func (s *Scheduler) Spawn(name string, mode Mode, entry func(t *Task)) *Task {
	t := &Task{
		ID:          nextTaskID(),
		Name:        name,
		Mode:        mode,
		state:       StateRun,
		WakeupTicks: NoWakeup,
		entry:       entry,
		sched:       s,
		resume:      make(chan struct{}, 1),
	}
	t.node.Init()

	s.mu.Lock()
	s.head.InsertBefore(&t.node)
	s.owners[&t.node] = t
	s.order = append(s.order, t)
	s.mu.Unlock()

	go s.runTask(t)
	return t
}

// SpawnIdle installs the idle task, the counterpart of `sched_init`
// spawning `idle_task`. It must be called exactly once before Run.
func (s *Scheduler) SpawnIdle(idleFunc func(t *Task)) *Task {
	t := s.Spawn("[idle]", ModeSystem, idleFunc)
	t.setState(StateSleep)
	s.mu.Lock()
	s.idle = t
	s.mu.Unlock()
	return t
}

func (s *Scheduler) runTask(t *Task) {
	<-t.resume
	if t.entry != nil {
		t.entry(t)
	}
	t.setState(StateKilled)
	s.toSched <- t
}

// parkAndYield hands control back to the scheduler and blocks the calling
// task's goroutine until the scheduler resumes it again. Tasks never call
// this directly; it's reached through Yield/Sleep/EventWait/Done.
func (s *Scheduler) parkAndYield(t *Task) {
	s.toSched <- t
	<-t.resume
}

// Run drives the scheduler until ctx is canceled. It performs the initial
// dispatch (the counterpart of the first call to `schedule()` after
// `sched_init`) and then alternates between running whichever task is
// ACTIVE and rescheduling whenever that task yields.
func (s *Scheduler) Run(ctx context.Context) {
	s.scheduleOnce(nil)
	for {
		select {
		case <-ctx.Done():
			return
		case prev := <-s.toSched:
			s.scheduleOnce(prev)
		}
	}
}

// Current returns the task the scheduler most recently swtch'd into.
func (s *Scheduler) Current() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// checkTimers mirrors `check_timers`: fires a due alarm handler (swapping
// it onto the task's logical execution the way the trampoline would) or
// restores state once the handler reports done, then wakes a sleeping task
// whose deadline has passed.
func (s *Scheduler) checkTimers(t *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := s.clock.Ticks()
	if t.Timer.Next > 0 && !t.Timer.Active {
		if now >= t.Timer.Next {
			handler := t.Timer.Handler
			t.Timer.Active = true
			t.Timer.Done = false
			if t.Timer.Oneshot {
				t.Timer.Next = 0
			} else {
				t.Timer.Next = now + t.Timer.Period
			}
			if handler != nil {
				// Run the handler inline on the scheduler goroutine, the
				// simulation's stand-in for swapping the trampoline into
				// the task's register file: the handler executes without
				// the task's own goroutine being scheduled.
				t.mu.Unlock()
				handler()
				t.mu.Lock()
			}
			return
		}
	} else if t.Timer.Active && t.Timer.Done {
		t.Timer.Active = false
	}

	if t.state == StateSleep && t.WakeupTicks != NoWakeup && now >= t.WakeupTicks {
		t.WakeupTicks = NoWakeup
		t.state = StateRun
	}
}

// scheduleOnce runs one pass of `schedule()`: put prev back on the run
// queue if it was merely preempted, walk the ring starting after prev for
// the next RUN task (running check_timers along the way), and swtch into
// whatever was found (falling back to idle).
func (s *Scheduler) scheduleOnce(prev *Task) {
	s.mu.Lock()
	if len(s.order) == 0 {
		s.mu.Unlock()
		return
	}

	var startNode *containers.Node
	if prev == nil {
		startNode = s.head.RawNext()
	} else {
		if prev != s.idle {
			if prev.State() == StateActive {
				prev.setState(StateRun)
			}
			startNode = prev.node.RawNext()
		} else {
			prev.setState(StateSleep)
			startNode = s.head.RawNext()
		}
	}

	next := s.idle
	n := startNode
	for i := 0; i < len(s.order)+1; i++ {
		if n == &s.head {
			n = s.head.RawNext()
			continue
		}
		task := s.owners[n]
		if task.State() != StateKilled {
			s.checkTimers(task)
		}
		if task.State() == StateRun {
			next = task
			break
		}
		n = n.RawNext()
	}

	s.cur = next
	s.mu.Unlock()

	next.setState(StateActive)
	select {
	case next.resume <- struct{}{}:
	default:
	}
}
