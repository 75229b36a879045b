// Package bootconfig collects every tunable the boot sequence needs into
// one struct, the Go counterpart of the board's scattered compile-time
// constants (HZ, stack sizes, ring depths, the static IP configuration)
// gathered into one place a command-line front end can override.
package bootconfig

import (
	"os"

	"github.com/erenright/ertos/internal/wire"
	"golang.org/x/sys/unix"
)

// Config is the full set of boot-time parameters.
type Config struct {
	// HZ is the scheduler tick rate.
	HZ int

	// HeapSize bounds the memory allocator's backing arena.
	HeapSize int

	// StackSize is the per-task stack budget carried over from the
	// original's fixed per-task stack. No part of the kernel reads it:
	// tasks are goroutines whose stacks grow on demand, and every task's
	// line buffer is LineBufferSize bytes regardless of this value.
	StackSize int

	// UARTBaud is the console's default line rate.
	UARTBaud int

	// MAC/IP/Netmask configure the first Ethernet interface when
	// EnableEthernet is set.
	EnableEthernet bool
	MAC            wire.MAC
	IP             [4]byte
	Netmask        [4]byte
	Gateway        [4]byte

	// RXRingDepth/TXRingDepth record the descriptor ring depths. Boot does
	// not read them: eth.NewInterface always builds rings of eth.RingDepth
	// entries.
	RXRingDepth int
	TXRingDepth int

	// PanicSync, if set, is invoked before a fatal error spins forever:
	// a best-effort flush (e.g. an fsync on a log file) so diagnostics
	// survive a reset, the counterpart of "log then spin" (spec's Fatal
	// error category).
	PanicSync func()
}

// Default returns the configuration this kernel boots with absent any
// command-line overrides.
func Default() Config {
	return Config{
		HZ:             100,
		HeapSize:       4 << 20,
		StackSize:      8192,
		UARTBaud:       115200,
		EnableEthernet: true,
		MAC:            wire.MAC{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		IP:             [4]byte{192, 168, 0, 99},
		Netmask:        [4]byte{255, 255, 255, 0},
		RXRingDepth:    64,
		TXRingDepth:    64,
		PanicSync:      FsyncPanicSync(os.Stderr),
	}
}

// FsyncPanicSync returns a PanicSync that fsyncs f's file descriptor, the
// best-effort flush the fatal-error path performs before it spins forever.
// Errors are deliberately swallowed: there is nothing left to do about a
// failed flush on the way into a halt.
func FsyncPanicSync(f *os.File) func() {
	return func() {
		_ = unix.Fsync(int(f.Fd()))
	}
}
