// Package kernel wires every subsystem together and drives the boot
// sequence: memory, then architecture-level interrupt/timer plumbing, then
// the scheduler, then (if configured) the Ethernet device and network
// stack, then the boot tasks, and finally the idle task, matching the
// original's init() ordering in kernel/main.c exactly.
package kernel

import (
	"context"
	"time"

	"github.com/erenright/ertos/internal/bootconfig"
	"github.com/erenright/ertos/internal/clock"
	"github.com/erenright/ertos/internal/console"
	"github.com/erenright/ertos/internal/eth"
	"github.com/erenright/ertos/internal/irq"
	"github.com/erenright/ertos/internal/logging"
	"github.com/erenright/ertos/internal/memalloc"
	"github.com/erenright/ertos/internal/net"
	"github.com/erenright/ertos/internal/sched"
	"github.com/erenright/ertos/internal/syscall"
	"golang.org/x/sys/unix"
)

// TimerIRQ and UARTIRQ are the fixed vector numbers the simulated
// architecture layer routes the tick source and console interrupts
// through, carried over from the board's interrupt map.
const (
	TimerIRQ = 4
	UARTIRQ  = 52
)

// Kernel owns every subsystem and the goroutine that advances the
// simulated tick source.
type Kernel struct {
	cfg bootconfig.Config
	log *logging.Logger

	Clock   *clock.Clock
	Arena   *memalloc.Arena
	Mem     *memalloc.Allocator
	IRQ     *irq.Dispatcher
	Sched   *sched.Scheduler
	Syscall *syscall.Table
	UART    *console.UART
	Console *console.LineWriter

	EthManager *eth.Manager
	Net        *net.Stack

	tickCancel context.CancelFunc
}

// New constructs a kernel from cfg but does not yet run any boot step.
func New(cfg bootconfig.Config, log *logging.Logger) *Kernel {
	if log == nil {
		log = logging.Default()
	}
	return &Kernel{cfg: cfg, log: log}
}

// Boot performs the fixed init sequence: memory, architecture, scheduler,
// enable interrupts, (optional) Ethernet hardware and stack, spawn boot
// tasks, enable the scheduler, enter idle. bootTasks are spawned after
// interrupts are live and before the scheduler starts dispatching, mirroring
// where the original spawns its init-time user tasks from kernel/main.c.
func (k *Kernel) Boot(ctx context.Context, uartBackend console.Backend, ethOps eth.Ops, bootTasks ...func(t *sched.Task)) error {
	// 1. memory
	k.Clock = &clock.Clock{}
	k.Arena = memalloc.NewArena(k.cfg.HeapSize)
	k.Mem = memalloc.New(k.Arena)
	if err := k.Mem.Init(); err != nil {
		return err
	}

	// 2. architecture: interrupt dispatcher and console UART
	k.IRQ = irq.NewDispatcher()
	if uartBackend != nil {
		k.UART = console.New(uartBackend)
		if err := k.UART.Open(); err != nil {
			return err
		}
		if err := k.UART.SetBaud(k.cfg.UARTBaud); err != nil {
			return err
		}
		k.Console = console.NewLineWriter(k.UART)
		if err := k.IRQ.Register(UARTIRQ, irq.KindNormal, func() {
			k.UART.RXISR()
			k.UART.TXISR()
		}); err != nil {
			return err
		}
	}

	// 3. scheduler
	k.Sched = sched.New(k.Clock, k.log)
	k.Syscall = syscall.New(k.Sched, k.Clock, k.Mem, k.IRQ, k.reset)

	// 4. enable interrupts: start the simulated tick source driving both
	// the clock and check_timers via the scheduler's own dispatch loop.
	tickCtx, cancel := context.WithCancel(ctx)
	k.tickCancel = cancel
	go k.tickLoop(tickCtx)
	if err := k.IRQ.Register(TimerIRQ, irq.KindFast, func() { k.Clock.Tick() }); err != nil {
		return err
	}

	// 5. Ethernet hardware and network stack, if configured
	if k.cfg.EnableEthernet && ethOps != nil {
		iface := eth.NewInterface("eth0", k.cfg.MAC, 0, ethOps)
		if err := iface.Open(); err != nil {
			return err
		}
		iface.AssignIP(k.cfg.IP)

		arp := net.NewARPCache(k.Clock)
		routes := net.NewRouteTable()

		var gw [4]byte
		routes.Add(net.Route{
			Dest:    networkOf(k.cfg.IP, k.cfg.Netmask),
			Mask:    k.cfg.Netmask,
			Iface:   iface,
			Gateway: gw,
		})

		k.EthManager = eth.NewManager(k.Sched, k.Clock, k.log, nil)
		k.Net = net.NewStack(k.EthManager, arp, routes, k.log)
		k.EthManager.SetDispatcher(k.Net)
		k.EthManager.AddInterface(iface)
		iface.BindToStack()

		k.Syscall.SetNetSource(k.EthManager)

		k.Sched.Spawn("[eth-rx]", sched.ModeSystem, k.EthManager.RXTask)
		k.Sched.Spawn("[eth-tx]", sched.ModeSystem, k.EthManager.TXTask)
	}

	// 6. spawn boot tasks
	for i, fn := range bootTasks {
		k.Sched.Spawn(bootTaskName(i), sched.ModeUser, fn)
	}

	// 7. enable the scheduler and enter idle. The idle task's real wait
	// is unix.Nanosleep, this simulation's stand-in for WFI: a genuine
	// low-power block instead of a busy-spin, before handing the baton
	// back to the scheduler for the next dispatch pass.
	idleQuantum := unix.NsecToTimespec((time.Second / time.Duration(k.cfg.HZ)).Nanoseconds())
	k.Sched.SpawnIdle(func(t *sched.Task) {
		for {
			unix.Nanosleep(&idleQuantum, nil)
			t.Sleep(1)
		}
	})

	return nil
}

// Run drives the scheduler until ctx is canceled, the counterpart of the
// original never returning from its boot-time call into schedule().
func (k *Kernel) Run(ctx context.Context) {
	k.Sched.Run(ctx)
	if k.tickCancel != nil {
		k.tickCancel()
	}
}

// tickLoop fires the timer IRQ at the configured HZ, the simulation's
// stand-in for the hardware timer peripheral.
func (k *Kernel) tickLoop(ctx context.Context) {
	period := time.Second / time.Duration(k.cfg.HZ)
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.IRQ.Dispatch(TimerIRQ)
		}
	}
}

func (k *Kernel) reset() {
	if k.cfg.PanicSync != nil {
		k.cfg.PanicSync()
	}
	if k.log != nil {
		k.log.Error("reset requested, halting")
	}
	select {}
}

func networkOf(ip, mask [4]byte) [4]byte {
	var out [4]byte
	for i := range out {
		out[i] = ip[i] & mask[i]
	}
	return out
}

func bootTaskName(i int) string {
	names := []string{"[boot0]", "[boot1]", "[boot2]", "[boot3]", "[boot4]"}
	if i < len(names) {
		return names[i]
	}
	return "[boot]"
}
