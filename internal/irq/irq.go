// Package irq implements the vectored interrupt dispatcher: a fixed-size
// table of handler slots per controller, registered by IRQ number, demuxed
// by Dispatch the way the board's `c_irq` walks its VIC vector-address
// register. Two controllers of 32 IRQ lines each, 16 open vector slots per
// controller, mirror the original two-VIC layout exactly.
package irq

import (
	"sync"
	"sync/atomic"

	"github.com/erenright/ertos/kernelerr"
)

// Kind selects which interrupt-select register an IRQ is routed through.
// Both kinds dispatch identically in this single-core simulation; the
// original hardware gave fast (FIQ-style) IRQs a shorter path. The
// distinction is kept in the API so a future board port has somewhere to
// put it.
type Kind int

const (
	KindNormal Kind = iota
	KindFast
)

const (
	vectorSlots    = 16
	irqsPerVIC     = 32
	controllers    = 2
	maxIRQ         = irqsPerVIC * controllers
)

// Handler services one interrupt. It runs with the dispatcher's recursion
// guard held, so it must not block.
type Handler func()

type vector struct {
	used    bool
	irq     int
	kind    Kind
	handler Handler
}

type controller struct {
	mu      sync.Mutex
	vectors [vectorSlots]vector
}

// Dispatcher is the vectored interrupt controller. The zero value is not
// usable; construct with NewDispatcher.
type Dispatcher struct {
	vics      [controllers]*controller
	active    int32 // 1 while Dispatch is already executing, the recursion guard
	recursion uint64
}

// NewDispatcher builds an empty two-controller dispatch table.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{}
	for i := range d.vics {
		d.vics[i] = &controller{}
	}
	return d
}

// Register binds handler to irq, claiming the first open vector slot on
// that IRQ's controller. It fails with CodeResourceExhausted if the
// controller has no open vector (the original's "failed to find an open
// vector" path) and CodeInvalidArgument if irq is out of range.
func (d *Dispatcher) Register(irqNum int, kind Kind, handler Handler) error {
	if irqNum < 0 || irqNum >= maxIRQ {
		return kernelerr.New("irq.Register", kernelerr.CodeInvalidArgument, "irq number out of range", nil)
	}
	if handler == nil {
		return kernelerr.New("irq.Register", kernelerr.CodeInvalidArgument, "nil handler", nil)
	}

	vic := d.vics[irqNum/irqsPerVIC]
	vic.mu.Lock()
	defer vic.mu.Unlock()

	for i := range vic.vectors {
		if !vic.vectors[i].used {
			vic.vectors[i] = vector{used: true, irq: irqNum, kind: kind, handler: handler}
			return nil
		}
	}
	return kernelerr.New("irq.Register", kernelerr.CodeResourceExhausted, "no open interrupt vector", nil)
}

// Unregister frees irqNum's vector slot, if any, so it can be reused.
func (d *Dispatcher) Unregister(irqNum int) {
	if irqNum < 0 || irqNum >= maxIRQ {
		return
	}
	vic := d.vics[irqNum/irqsPerVIC]
	vic.mu.Lock()
	defer vic.mu.Unlock()
	for i := range vic.vectors {
		if vic.vectors[i].used && vic.vectors[i].irq == irqNum {
			vic.vectors[i] = vector{}
			return
		}
	}
}

// Dispatch services irqNum's handler, the Go counterpart of `c_irq`. A
// Dispatch call observed while another Dispatch is already running (this
// simulation's stand-in for the vector-address register spuriously
// reporting the IRQ entry trampoline itself) is not re-entered; instead it
// increments the recursion counter exposed through kstat, matching the
// original's defensive `++kstat.isr_recursion` path.
func (d *Dispatcher) Dispatch(irqNum int) {
	if !atomic.CompareAndSwapInt32(&d.active, 0, 1) {
		atomic.AddUint64(&d.recursion, 1)
		return
	}
	defer atomic.StoreInt32(&d.active, 0)

	if irqNum < 0 || irqNum >= maxIRQ {
		return
	}
	vic := d.vics[irqNum/irqsPerVIC]
	vic.mu.Lock()
	var h Handler
	for i := range vic.vectors {
		if vic.vectors[i].used && vic.vectors[i].irq == irqNum {
			h = vic.vectors[i].handler
			break
		}
	}
	vic.mu.Unlock()

	if h != nil {
		h()
	}
}

// RecursionCount returns how many times Dispatch observed re-entrancy,
// exposed through the kstat syscall as Stats.ISRRecursion.
func (d *Dispatcher) RecursionCount() uint64 {
	return atomic.LoadUint64(&d.recursion)
}
