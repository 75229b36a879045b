// Package eth implements the Ethernet MAC driver: descriptor-ring RX/TX,
// the RX demultiplexing task, and the TX pacing task. Each interface owns
// a pair of 64-entry descriptor rings (RX and TX), backed by
// internal/descring, the counterpart of the original's DMA descriptor and
// status rings.
package eth

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/erenright/ertos/internal/clock"
	"github.com/erenright/ertos/internal/containers"
	"github.com/erenright/ertos/internal/descring"
	"github.com/erenright/ertos/internal/logging"
	"github.com/erenright/ertos/internal/pkt"
	"github.com/erenright/ertos/internal/sched"
	"github.com/erenright/ertos/internal/wire"
	"github.com/erenright/ertos/kernelerr"
)

// RingDepth is the descriptor count of each interface's RX and TX rings.
const RingDepth = 64

// MaxFrameBuf is the per-descriptor buffer size.
const MaxFrameBuf = 1520

// RX frame length bounds, per the "reject frames shorter than 60 bytes
// (runt) or longer than 1518 (oversized)" rule.
const (
	RuntMin      = 60
	OversizedMax = 1518
)

// tickerInterval is how often the TX task drains queues even without an
// explicit notify.
const tickerInterval = 100 * time.Millisecond

// BindState tracks whether an interface has been handed to the network
// stack.
type BindState int

const (
	BindUnbound BindState = iota
	BindBound
)

// Ops is the device-specific half of the driver: reset/bring-up and the
// raw transmit primitive. Everything else (ring bookkeeping, statistics,
// queueing) is device-agnostic and lives on Interface/Manager.
type Ops interface {
	// Open resets the MAC and PHY, waits for auto-negotiation, installs
	// ring base addresses, and enables bus-master RX/TX.
	Open() error
	// Xmit hands one frame to the device for transmission. It returns
	// once the frame is queued to hardware, not once it's on the wire.
	Xmit(frame []byte) error
	// Release tears down the device.
	Release()
}

// Stats are one interface's packet counters, reported through
// internal/kstat's Net snapshot (syscall 10, netstat).
type Stats struct {
	RXFrames    atomic.Uint64
	TXFrames    atomic.Uint64
	RXRunts     atomic.Uint64
	RXOversized atomic.Uint64
	RXDropped   atomic.Uint64
	TXDropped   atomic.Uint64
}

// Frame pairs a received or about-to-be-sent packet with the interface
// it arrived on or will leave from, the Go stand-in for the original's
// "stamp with the interface pointer" step (an intrusive list node can't
// carry a typed back-pointer the way Go's type system wants here).
type Frame struct {
	Buf   *pkt.Buffer
	Iface *Interface
}

// Interface is one Ethernet interface: name, address, interrupt number,
// device ops, statistics, RX/TX queues, assigned IP addresses, and
// binding state.
type Interface struct {
	Name string
	MAC  wire.MAC
	IRQ  int

	ops   Ops
	Stats Stats

	rxQueue *containers.BFIFO[Frame]
	txQueue *containers.BFIFO[Frame]

	IPs  [][4]byte
	Bind BindState

	rxRing *descring.Ring
	txRing *descring.Ring
	rxBufs [][]byte
	txBufs [][]byte

	LinkUp atomic.Bool
}

// NewInterface constructs an interface with RX/TX descriptor rings of
// RingDepth descriptors and queues deep enough to hold a full ring's
// worth of in-flight frames.
func NewInterface(name string, mac wire.MAC, irq int, ops Ops) *Interface {
	iface := &Interface{
		Name:    name,
		MAC:     mac,
		IRQ:     irq,
		ops:     ops,
		rxQueue: containers.NewBFIFO[Frame](RingDepth),
		txQueue: containers.NewBFIFO[Frame](RingDepth),
		rxRing:  descring.New(RingDepth),
		txRing:  descring.New(RingDepth),
		rxBufs:  make([][]byte, RingDepth),
		txBufs:  make([][]byte, RingDepth),
	}
	for i := range iface.rxBufs {
		iface.rxBufs[i] = make([]byte, MaxFrameBuf)
	}
	for i := range iface.txBufs {
		iface.txBufs[i] = make([]byte, MaxFrameBuf)
	}
	return iface
}

// Open brings the device up and stages every RX descriptor so the device
// can begin DMAing frames immediately.
func (iface *Interface) Open() error {
	if err := iface.ops.Open(); err != nil {
		return err
	}
	for tag := uint32(0); tag < RingDepth; tag++ {
		if err := iface.rxRing.Prepare(tag); err != nil {
			return err
		}
	}
	iface.rxRing.Flush()
	iface.LinkUp.Store(true)
	return nil
}

// requeueRX re-stages an RX descriptor once its frame has been consumed,
// the counterpart of "re-enqueue descriptors and status slots".
func (iface *Interface) requeueRX(tag uint32) {
	iface.rxRing.Prepare(tag)
	iface.rxRing.Flush()
}

// DeliverRX simulates the device DMA completing a receive into tag's
// buffer. Test backends and the loopback harness call this; a real
// backend would call it from its own interrupt source.
func (iface *Interface) DeliverRX(tag uint32, frame []byte) error {
	if len(frame) > MaxFrameBuf {
		return kernelerr.New("eth.DeliverRX", kernelerr.CodeInvalidArgument, "frame exceeds descriptor buffer", nil)
	}
	copy(iface.rxBufs[tag], frame)
	iface.rxRing.Complete(tag, len(frame), nil)
	return nil
}

// xmit hands frame straight to the device's Xmit operation; the TX
// descriptor ring is not used on this path.
func (iface *Interface) xmit(frame []byte) error {
	return iface.ops.Xmit(frame)
}

// AssignIP adds an IP address to the interface.
func (iface *Interface) AssignIP(ip [4]byte) {
	iface.IPs = append(iface.IPs, ip)
}

// HasIP reports whether ip is assigned to this interface.
func (iface *Interface) HasIP(ip [4]byte) bool {
	for _, own := range iface.IPs {
		if own == ip {
			return true
		}
	}
	return false
}

// Manager owns every interface and drives the RX/TX tasks shared across
// all of them.
type Manager struct {
	s      *sched.Scheduler
	c      *clock.Clock
	log    *logging.Logger
	rxWake *sched.Completion

	mu     sync.RWMutex
	ifaces []*Interface

	dispatch Dispatcher
}

// Dispatcher hands a received packet off to the network stack by
// EtherType; internal/net implements this. Kept as an interface so this
// package never imports internal/net.
type Dispatcher interface {
	DispatchARP(iface *Interface, frame []byte) error
	DispatchIPv4(iface *Interface, frame []byte) error
}
