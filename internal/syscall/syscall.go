// Package syscall implements the kernel's numbered syscall boundary: the
// eleven operations user tasks trap into, dispatched by number exactly as
// `c_svc`/`syscall_table` dispatch in the original. Two numbers (9, 10)
// are supplemented beyond the distilled spec's nine (spec.md's wait..reset)
// for kstat/netstat, matching the SUPPLEMENTED FEATURES section.
package syscall

import (
	"github.com/erenright/ertos/internal/clock"
	"github.com/erenright/ertos/internal/irq"
	"github.com/erenright/ertos/internal/kstat"
	"github.com/erenright/ertos/internal/memalloc"
	"github.com/erenright/ertos/internal/sched"
	"github.com/erenright/ertos/kernelerr"
)

// Num identifies a syscall by its original numeric slot in syscall_table.
type Num int

const (
	NumWait Num = iota
	NumWake
	NumSleep
	NumYield
	NumEventSet
	NumEventWait
	NumAlarm
	NumUTTDone
	NumReset
	NumKstat
	NumNetstat
	numSyscalls
)

// NetSource supplies the netstat snapshot. internal/eth implements this;
// kept as an interface here so this package never imports internal/eth.
type NetSource interface {
	NetStats() kstat.Net
}

// ResetFunc performs the hardware reset side effect of syscall 8. It never
// returns, matching `arch_reset()`/`/*NOTREACHED*/`.
type ResetFunc func()

// Table is the syscall dispatch table, the Go counterpart of c_svc plus
// syscall_table. Construct with New once the scheduler, allocator, and
// interrupt dispatcher it reports on are available.
type Table struct {
	sched   *sched.Scheduler
	clock   *clock.Clock
	mem     *memalloc.Allocator
	irqd    *irq.Dispatcher
	net     NetSource
	reset   ResetFunc
	bootTick uint64
}

// New builds a syscall table. net may be nil until the Ethernet subsystem
// is brought up; Netstat returns a zero kstat.Net until then.
func New(s *sched.Scheduler, c *clock.Clock, mem *memalloc.Allocator, irqd *irq.Dispatcher, reset ResetFunc) *Table {
	return &Table{sched: s, clock: c, mem: mem, irqd: irqd, reset: reset, bootTick: c.Ticks()}
}

// SetNetSource wires the Ethernet subsystem in once it has booted, so
// Netstat can start reporting real counters.
func (t *Table) SetNetSource(n NetSource) {
	t.net = n
}

// Wait implements syscall 0 (sys_wait): park caller on c until a matching
// Wake.
func (t *Table) Wait(caller *sched.Task, c *sched.Completion) error {
	return c.Wait(caller)
}

// Wake implements syscall 1 (sys_wake): release every task parked on c.
func (t *Table) Wake(c *sched.Completion) int {
	return c.Wake()
}

// Sleep implements syscall 2 (sys_sleep): block caller for periodMillis.
func (t *Table) Sleep(caller *sched.Task, periodMillis uint64) {
	caller.Sleep(clock.MillisToTicks(periodMillis))
}

// Yield implements syscall 3 (sys_yield): give up the remainder of the
// caller's turn without changing state.
func (t *Table) Yield(caller *sched.Task) {
	caller.Yield()
}

// EventSet implements syscall 4 (sys_event_set): wake every other task
// whose pending event mask overlaps mask.
func (t *Table) EventSet(caller *sched.Task, mask uint32) int {
	return t.sched.EventSet(caller, mask)
}

// EventWait implements syscall 5 (sys_event_wait): block caller until a
// matching EventSet.
func (t *Table) EventWait(caller *sched.Task, mask uint32) {
	caller.EventWait(mask)
}

// Alarm implements syscall 6 (sys_alarm): arm caller's software timer.
func (t *Table) Alarm(caller *sched.Task, periodMillis uint64, oneshot bool, handler func()) {
	caller.Arm(clock.MillisToTicks(periodMillis), handler, oneshot)
}

// UTTDone implements syscall 7 (sys_utt_done): acknowledge completion of a
// timer handler invocation.
func (t *Table) UTTDone(caller *sched.Task) {
	caller.Done()
}

// Reset implements syscall 8 (sys_reset): trigger the configured reset
// side effect. Never returns under normal operation.
func (t *Table) Reset() error {
	if t.reset == nil {
		return kernelerr.New("syscall.Reset", kernelerr.CodeUnsupported, "no reset handler configured", nil)
	}
	t.reset()
	return nil
}

// Kstat implements syscall 9: a snapshot of scheduler/allocator/interrupt
// health.
func (t *Table) Kstat() kstat.Kernel {
	k := kstat.Kernel{
		Uptime: t.clock.Ticks() - t.bootTick,
	}
	if t.irqd != nil {
		k.ISRRecursion = t.irqd.RecursionCount()
	}
	if t.mem != nil {
		k.AllocClasses = t.mem.Stats()
	}
	return k
}

// Netstat implements syscall 10: a snapshot of the net source's
// counters (with eth.Manager as the source, the Ethernet counters only).
func (t *Table) Netstat() kstat.Net {
	if t.net == nil {
		return kstat.Net{}
	}
	return t.net.NetStats()
}
