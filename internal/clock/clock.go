// Package clock implements the kernel's monotonic tick counter. The original
// board drives this off a hardware timer IRQ firing HZ times a second; this
// port exposes the same tick/millisecond conversions over an atomic counter
// that either a simulated timer goroutine (internal/kernel) or a test's
// internal/simtest.FakeClock advances.
package clock

import "sync/atomic"

// HZ is the tick rate, unchanged from the original board's timer
// configuration: 100 ticks per second, i.e. a 10ms tick period.
const HZ = 100

// Clock is a monotonically increasing tick counter, safe for concurrent use
// by the tick source (one writer) and any number of readers.
type Clock struct {
	ticks uint64
}

// Tick advances the clock by one tick and returns the new value. Only the
// tick source (the simulated timer ISR) should call this.
func (c *Clock) Tick() uint64 {
	return atomic.AddUint64(&c.ticks, 1)
}

// Ticks returns the current tick count.
func (c *Clock) Ticks() uint64 {
	return atomic.LoadUint64(&c.ticks)
}

// MillisToTicks converts a millisecond duration to a tick count, rounding
// up so a requested delay is never shorter than asked for.
func MillisToTicks(ms uint64) uint64 {
	return (ms*HZ + 999) / 1000
}

// TicksToMillis converts a tick count to milliseconds.
func TicksToMillis(ticks uint64) uint64 {
	return ticks * 1000 / HZ
}
