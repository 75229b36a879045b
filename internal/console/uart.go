// Package console implements the UART driver and per-task line buffering
// that back the kernel's text console: a 1024-byte RX FIFO and 1024-byte
// TX FIFO, both backed by internal/containers' bounded FIFO, with blocking
// read and non-blocking write exposed to tasks through a completion.
package console

import (
	"sync"

	"github.com/erenright/ertos/internal/containers"
	"github.com/erenright/ertos/internal/sched"
)

// FIFOSize is the fixed capacity of both the RX and TX FIFOs, in bytes.
const FIFOSize = 1024

// State tracks whether the device has been opened.
type State int

const (
	StateClosed State = iota
	StateOpen
)

// Backend is the device-specific half of the driver: the hardware
// register access a real board's arch/uart.c performs, abstracted so the
// generic FIFO/completion logic above it stays device-agnostic.
type Backend interface {
	Open() error
	Close()
	SetBaud(baud int) error
	EnableTX()
	DisableTX()
	EnableRX()
	DisableRX()
	// PopHardwareByte returns the next byte held in the hardware RX shift
	// register/FIFO, or ok=false if it is currently empty.
	PopHardwareByte() (b byte, ok bool)
	// PushHardwareByte writes one byte to the hardware TX shift
	// register/FIFO, reporting false if it is currently full.
	PushHardwareByte(b byte) bool
}

// UART is a device-agnostic UART: RX/TX FIFOs, an attached completion
// waiters block on, and a Backend doing the actual hardware I/O.
type UART struct {
	mu      sync.Mutex
	backend Backend
	baud    int
	rx      *containers.BFIFO[byte]
	tx      *containers.BFIFO[byte]
	state   State
	wait    *sched.Completion
}

// New constructs a UART driver around backend. Open must be called before
// use.
func New(backend Backend) *UART {
	return &UART{
		backend: backend,
		rx:      containers.NewBFIFO[byte](FIFOSize),
		tx:      containers.NewBFIFO[byte](FIFOSize),
		wait:    sched.NewCompletion(sched.DefaultWaitQueueDepth),
		state:   StateClosed,
	}
}

// Open clears both FIFOs, defaults the baud rate to 115200, and opens the
// backend device.
func (u *UART) Open() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rx = containers.NewBFIFO[byte](FIFOSize)
	u.tx = containers.NewBFIFO[byte](FIFOSize)
	u.baud = 115200
	if err := u.backend.Open(); err != nil {
		return err
	}
	u.state = StateOpen
	return nil
}

// Close disables the backend and clears both FIFOs.
func (u *UART) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.backend.Close()
	u.rx = containers.NewBFIFO[byte](FIFOSize)
	u.tx = containers.NewBFIFO[byte](FIFOSize)
	u.state = StateClosed
}

// SetBaud reconfigures the line rate.
func (u *UART) SetBaud(baud int) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.backend.SetBaud(baud); err != nil {
		return err
	}
	u.baud = baud
	return nil
}

// Write fills the TX FIFO up to free space and enables transmit,
// returning the number of bytes actually queued. It never blocks: bytes
// beyond the FIFO's free space are dropped, matching the original's
// truncate-to-available behavior.
func (u *UART) Write(buf []byte) int {
	u.backend.DisableTX()
	n := 0
	for _, b := range buf {
		if !u.tx.Enqueue(b) {
			break
		}
		n++
	}
	u.backend.EnableTX()
	return n
}

// Read drains up to len(buf) bytes from the RX FIFO, returning the number
// of bytes actually read. It never blocks; callers wanting blocking
// semantics wait on the attached completion first.
func (u *UART) Read(buf []byte) int {
	u.backend.DisableRX()
	n := 0
	for n < len(buf) {
		b, ok := u.rx.Dequeue()
		if !ok {
			break
		}
		buf[n] = b
		n++
	}
	u.backend.EnableRX()
	return n
}

// Available reports how many bytes are currently queued in the RX FIFO.
func (u *UART) Available() int {
	return u.rx.Len()
}

// Wait blocks caller until the RX ISR next wakes readers.
func (u *UART) Wait(caller *sched.Task) error {
	return u.wait.Wait(caller)
}

// RXISR copies bytes from the hardware RX FIFO into the RX FIFO while
// space remains, then wakes every waiting reader. It always wakes readers
// at the end, even when zero bytes moved, mirroring the original (a
// spurious interrupt still lets a blocked getchar re-check availability).
func (u *UART) RXISR() {
	for u.rx.Len() < u.rx.Cap() {
		b, ok := u.backend.PopHardwareByte()
		if !ok {
			break
		}
		u.rx.Enqueue(b)
	}
	u.wait.Wake()
}

// TXISR refills the hardware TX FIFO from the TX FIFO. When the TX FIFO
// is empty, it disables the TX interrupt instead of spinning on an empty
// queue every interrupt.
func (u *UART) TXISR() {
	if u.tx.Empty() {
		u.backend.DisableTX()
		return
	}
	for {
		b, ok := u.tx.Front()
		if !ok {
			break
		}
		if !u.backend.PushHardwareByte(b) {
			break
		}
		u.tx.Dequeue()
	}
}
