// Package kstat defines the plain data structures copied out by the kstat
// and netstat syscalls. Keeping them dependency-free (no imports of
// internal/eth or internal/sched) lets both the syscall table and the
// subsystems that populate them depend on kstat without a cycle.
package kstat

import "github.com/erenright/ertos/internal/memalloc"

// Kernel is the snapshot returned by syscall 9 (kstat): scheduler and
// allocator health, plus the interrupt recursion-guard counter
// supplemented from the original's kstat.h. syscall.Table.Kstat fills
// Uptime, ISRRecursion and AllocClasses; TaskCount is left zero.
type Kernel struct {
	Uptime       uint64
	TaskCount    int
	ISRRecursion uint64
	AllocClasses []memalloc.ClassStats
}

// Net is the snapshot returned by syscall 10 (netstat): the Ethernet
// MAC driver's packet counters, supplemented from the original's
// `en_eth_if.stats`, plus fields for the ARP/route table sizes.
// eth.Manager.NetStats, the NetSource the kernel installs, leaves
// ARPEntries and Routes zero.
type Net struct {
	RXFrames    uint64
	TXFrames    uint64
	RXRunts     uint64
	RXOversized uint64
	RXDropped   uint64
	TXDropped   uint64
	ARPEntries  int
	Routes      int
	LinkUp      bool
}
