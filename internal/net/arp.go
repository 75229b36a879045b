// Package net implements ARP cache management, IPv4 input/output, ICMP
// echo, and UDP length-checked dispatch: the network-layer demultiplexing
// above the Ethernet MAC driver (internal/eth).
package net

import (
	"sync"
	"time"

	"github.com/erenright/ertos/internal/clock"
	"github.com/erenright/ertos/internal/eth"
	"github.com/erenright/ertos/internal/pkt"
	"github.com/erenright/ertos/internal/wire"
)

// ARPEntry is one resolved IP-to-MAC mapping.
type ARPEntry struct {
	IP      [4]byte
	MAC     wire.MAC
	Created time.Time
}

// ARPCache maps IP addresses to Ethernet addresses, the Go counterpart
// of en_arp_cache_list. Reads are not synchronized against the list
// being walked during a delete in the original; here a mutex protects
// the whole structure instead of reproducing that hazard; see the
// routing table's doc comment for the matching decision on the route
// list.
type ARPCache struct {
	mu      sync.RWMutex
	entries []ARPEntry
	clk     *clock.Clock
}

// NewARPCache returns an empty cache.
func NewARPCache(clk *clock.Clock) *ARPCache {
	return &ARPCache{clk: clk}
}

// Lookup returns the MAC cached for ip, if any.
func (c *ARPCache) Lookup(ip [4]byte) (wire.MAC, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.IP == ip {
			return e.MAC, true
		}
	}
	return wire.MAC{}, false
}

// Add inserts ip/mac if it is not already present; duplicate pairs are
// not re-inserted, matching "duplicate MAC/IP pairs are not re-inserted".
func (c *ARPCache) Add(ip [4]byte, mac wire.MAC) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.IP == ip && e.MAC == mac {
			return
		}
	}
	c.entries = append(c.entries, ARPEntry{IP: ip, MAC: mac})
}

// Len reports the number of cached entries.
func (c *ARPCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// HandleARP validates and processes one received ARP packet (already an
// Ethernet frame: the first wire.EthHeaderLen bytes are the Ethernet
// header). REQUEST messages targeting a local address are answered with a
// REPLY built from the request's fields and queued for transmission;
// REPLY messages update the cache.
func (stk *Stack) HandleARP(iface *eth.Interface, frame []byte) error {
	if len(frame) < wire.EthHeaderLen+wire.ARPLen {
		return nil
	}
	body := frame[wire.EthHeaderLen:]
	req, err := wire.UnmarshalARP(body)
	if err != nil {
		return nil
	}

	switch req.Op {
	case wire.ARPOpRequest:
		if !iface.HasIP(req.TPA) {
			return nil
		}
		reply := &wire.ARPPacket{
			Op:  wire.ARPOpReply,
			SHA: iface.MAC,
			SPA: req.TPA,
			THA: req.SHA,
			TPA: req.SPA,
		}
		buf := make([]byte, wire.ARPLen)
		if err := wire.MarshalARP(buf, reply); err != nil {
			return err
		}
		p := pkt.New(len(buf))
		p.AddTail(buf)
		return stk.eth.Output(iface, p, reply.THA, wire.EtherTypeARP)

	case wire.ARPOpReply:
		stk.arp.Add(req.SPA, req.SHA)
		stk.FlushPendingARP(req.SPA)
		return nil
	}
	return nil
}

// RequestARP builds and transmits a broadcast ARP request for ip, using
// iface's first assigned IP as the source protocol address.
func (stk *Stack) RequestARP(iface *eth.Interface, ip [4]byte) error {
	if len(iface.IPs) == 0 {
		return nil
	}
	req := &wire.ARPPacket{
		Op:  wire.ARPOpRequest,
		SHA: iface.MAC,
		SPA: iface.IPs[0],
		THA: wire.MAC{},
		TPA: ip,
	}
	buf := make([]byte, wire.ARPLen)
	if err := wire.MarshalARP(buf, req); err != nil {
		return err
	}
	p := pkt.New(len(buf))
	p.AddTail(buf)
	return stk.eth.Output(iface, p, wire.Broadcast, wire.EtherTypeARP)
}
