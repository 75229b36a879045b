// Package sched implements the task model and round-robin scheduler: task
// spawn, the run queue walk, software timers/alarms, and the wake
// primitives (sys_wait/sys_wake/sys_event_set/sys_event_wait) that syscalls
// dispatch into.
//
// Each task is a goroutine. True instruction-level preemption doesn't exist
// in a hosted Go binary, so this port makes scheduling points explicit:
// a task runs until it calls Yield, Sleep, EventWait, Done, or
// Completion.Wait (the Go
// stand-ins for a syscall trap), at which point it hands a baton back to
// the scheduler goroutine and blocks until resumed. Exactly one task's
// goroutine is ever past that handoff and actively running kernel or user
// code at a time — the same "one ACTIVE task between scheduling points"
// invariant the original enforces with real interrupts, just arbitrated by
// a channel instead of hardware.
package sched

import (
	"sync"
	"sync/atomic"

	"github.com/erenright/ertos/internal/containers"
	"github.com/erenright/ertos/internal/ksync"
)

// State is a task's scheduling state, the Go counterpart of PROC_*.
type State int

const (
	StateRun State = iota
	StateActive
	StateSleep
	StateKilled
)

func (s State) String() string {
	switch s {
	case StateRun:
		return "run"
	case StateActive:
		return "active"
	case StateSleep:
		return "sleep"
	case StateKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// Mode mirrors PROC_USER/PROC_SYSTEM. Nothing in this port enforces a
// privilege boundary between them (no MMU, no per-task address space); the
// distinction is kept because kstat and the process table report it.
type Mode int

const (
	ModeUser Mode = iota
	ModeSystem
)

// Timer is a task's private software timer/alarm, the Go counterpart of
// `struct proc`'s embedded timer fields.
type Timer struct {
	Handler func()
	Period  uint64 // ticks
	Next    uint64 // absolute tick the timer next fires, 0 = disarmed
	Oneshot bool
	Active  bool // the handler trampoline is currently substituted in
	Done    bool // sys_utt_done was called, ready to restore
}

// Task is one schedulable unit of execution.
type Task struct {
	node containers.Node

	ID   uint32
	Name string
	Mode Mode

	mu          sync.Mutex
	state       State
	WakeupTicks uint64 // absolute tick PROC_SLEEP wakes at; max uint64 = "not sleeping on a deadline"

	EventMask ksync.EventMask
	Timer     Timer

	entry  func(t *Task)
	sched  *Scheduler
	resume chan struct{}
}

// NoWakeup is the sentinel used for "no sleep deadline pending", the
// counterpart of the original's 0xFFFFFFFF.
const NoWakeup = ^uint64(0)

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Yield hands control back to the scheduler without changing state,
// the counterpart of sys_yield / sys_utt_done's request_schedule() call.
// It returns once the scheduler resumes this task.
func (t *Task) Yield() {
	t.sched.parkAndYield(t)
}

// Sleep blocks the task until durationTicks have elapsed on the kernel
// clock, the counterpart of sys_sleep.
func (t *Task) Sleep(durationTicks uint64) {
	now := t.sched.clock.Ticks()
	t.mu.Lock()
	t.WakeupTicks = now + durationTicks
	t.state = StateSleep
	t.mu.Unlock()
	t.sched.parkAndYield(t)
}

// EventWait ORs mask into the task's pending event mask and blocks until a
// matching EventSet call clears an overlapping bit, the counterpart of
// sys_event_wait.
func (t *Task) EventWait(mask uint32) {
	t.EventMask.Set(mask)
	t.setState(StateSleep)
	t.sched.parkAndYield(t)
}

// Arm installs a periodic or one-shot software timer, the counterpart of
// sys_alarm. handler runs on the scheduler's dispatch path once the timer
// trips; the task itself must still call Done once it has finished running
// the handler logic (sys_utt_done), matching the original's explicit
// handler-trampoline/done protocol.
func (t *Task) Arm(periodTicks uint64, handler func(), oneshot bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Timer.Handler = handler
	t.Timer.Period = periodTicks
	t.Timer.Next = t.sched.clock.Ticks() + periodTicks
	t.Timer.Oneshot = oneshot
}

// Done acknowledges that the task has finished running its timer handler,
// the counterpart of sys_utt_done.
func (t *Task) Done() {
	t.mu.Lock()
	t.Timer.Done = true
	t.mu.Unlock()
	t.sched.parkAndYield(t)
}

var taskIDCounter uint32

func nextTaskID() uint32 {
	return atomic.AddUint32(&taskIDCounter, 1)
}
