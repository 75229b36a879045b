// Package simtest provides deterministic test doubles for code that would
// otherwise need a real hardware timer or a real packet socket: a clock
// advanced only by explicit calls, an in-memory UART backend, and a
// loopback Ethernet backend that hands each transmitted frame to a
// callback, using the same call-tracking idiom as a mock backend:
// method-call counters behind a mutex.
package simtest

import (
	"sync"

	"github.com/erenright/ertos/internal/clock"
)

// FakeClock wraps a clock.Clock with an explicit Advance, so scheduler and
// timer tests control time without a real ticker goroutine racing them.
type FakeClock struct {
	*clock.Clock
}

// NewFakeClock returns a clock parked at tick 0.
func NewFakeClock() *FakeClock {
	return &FakeClock{Clock: &clock.Clock{}}
}

// Advance ticks the clock forward n times, returning the new tick count.
func (f *FakeClock) Advance(n int) uint64 {
	var t uint64
	for i := 0; i < n; i++ {
		t = f.Tick()
	}
	return t
}

// LoopbackUART is a console.Backend that buffers written bytes in memory
// instead of talking to hardware, with call counts for test assertions.
type LoopbackUART struct {
	mu       sync.Mutex
	baud     int
	opened   bool
	rxQueue  []byte
	txSink   []byte
	openCalls  int
	closeCalls int
}

func (l *LoopbackUART) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = true
	l.openCalls++
	return nil
}

func (l *LoopbackUART) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = false
	l.closeCalls++
}

func (l *LoopbackUART) SetBaud(baud int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.baud = baud
	return nil
}

func (l *LoopbackUART) EnableTX()  {}
func (l *LoopbackUART) DisableTX() {}
func (l *LoopbackUART) EnableRX()  {}
func (l *LoopbackUART) DisableRX() {}

// PopHardwareByte returns the next byte a test enqueued with Deliver.
func (l *LoopbackUART) PopHardwareByte() (byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.rxQueue) == 0 {
		return 0, false
	}
	b := l.rxQueue[0]
	l.rxQueue = l.rxQueue[1:]
	return b, true
}

// PushHardwareByte appends b to the loopback's sink, always succeeding.
func (l *LoopbackUART) PushHardwareByte(b byte) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txSink = append(l.txSink, b)
	return true
}

// Deliver queues bytes as if received from the wire.
func (l *LoopbackUART) Deliver(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rxQueue = append(l.rxQueue, data...)
}

// Sent returns a copy of every byte pushed to hardware so far.
func (l *LoopbackUART) Sent() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]byte, len(l.txSink))
	copy(out, l.txSink)
	return out
}

// LoopbackMAC is an eth.Ops implementation that hands every transmitted
// frame straight back to a delivery callback instead of real hardware,
// letting ARP/IP tests exercise a full send/receive round trip without a
// packet socket.
type LoopbackMAC struct {
	mu      sync.Mutex
	opened  bool
	sent    [][]byte
	deliver func(frame []byte)

	openCalls int
	xmitCalls int
}

// NewLoopbackMAC builds a MAC port. deliver, if non-nil, is invoked
// synchronously from Xmit with a copy of the transmitted frame, letting a
// test wire two LoopbackMACs into each other to form a wire.
func NewLoopbackMAC(deliver func(frame []byte)) *LoopbackMAC {
	return &LoopbackMAC{deliver: deliver}
}

func (l *LoopbackMAC) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = true
	l.openCalls++
	return nil
}

func (l *LoopbackMAC) Xmit(frame []byte) error {
	l.mu.Lock()
	l.xmitCalls++
	cp := make([]byte, len(frame))
	copy(cp, frame)
	l.sent = append(l.sent, cp)
	deliver := l.deliver
	l.mu.Unlock()

	if deliver != nil {
		deliver(cp)
	}
	return nil
}

func (l *LoopbackMAC) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = false
}

// Sent returns every frame handed to Xmit so far.
func (l *LoopbackMAC) Sent() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.sent))
	copy(out, l.sent)
	return out
}
