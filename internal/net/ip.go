package net

import (
	"sync"

	"github.com/erenright/ertos/internal/eth"
	"github.com/erenright/ertos/internal/logging"
	"github.com/erenright/ertos/internal/pkt"
	"github.com/erenright/ertos/internal/wire"
)

// minEthernetPayload is the Ethernet minimum frame size (60 bytes) minus
// the 14-byte Ethernet header: the "packet length exactly 46 bytes"
// special case where the link layer didn't strip trailing padding.
const minEthernetPayload = 46

// defaultTTL is used on every packet this stack originates.
const defaultTTL = 64

// UDPHandler processes a validated UDP datagram. Higher-layer UDP
// consumers are out of scope for this repository; with no handler set,
// validated datagrams are dropped.
type UDPHandler func(src, dst [4]byte, srcPort, dstPort uint16, payload []byte)

// Stack ties together the ARP cache, route table, and Ethernet manager
// into one network layer, implementing eth.Dispatcher so the MAC driver
// can hand it received frames.
type Stack struct {
	mu         sync.Mutex
	eth        *eth.Manager
	arp        *ARPCache
	routes     *RouteTable
	log        *logging.Logger
	udpHandler UDPHandler

	pendingARP map[[4]byte][]pendingPacket
}

type pendingPacket struct {
	iface *eth.Interface
	pkt   *pkt.Buffer
}

// NewStack builds a network stack over mgr.
func NewStack(mgr *eth.Manager, arp *ARPCache, routes *RouteTable, log *logging.Logger) *Stack {
	return &Stack{
		eth:        mgr,
		arp:        arp,
		routes:     routes,
		log:        log,
		pendingARP: make(map[[4]byte][]pendingPacket),
	}
}

// SetUDPHandler wires in the higher-layer UDP consumer.
func (stk *Stack) SetUDPHandler(h UDPHandler) {
	stk.udpHandler = h
}

// DispatchARP implements eth.Dispatcher.
func (stk *Stack) DispatchARP(iface *eth.Interface, frame []byte) error {
	return stk.HandleARP(iface, frame)
}

// DispatchIPv4 implements eth.Dispatcher.
func (stk *Stack) DispatchIPv4(iface *eth.Interface, frame []byte) error {
	return stk.InputIPv4(iface, frame)
}

// InputIPv4 validates and processes one received IPv4 packet, already
// stripped of nothing (frame still carries its Ethernet header).
func (stk *Stack) InputIPv4(iface *eth.Interface, frame []byte) error {
	if len(frame) < wire.EthHeaderLen+wire.IPv4HeaderLen {
		return nil
	}
	body := frame[wire.EthHeaderLen:]
	payloadLen := len(body)

	verIHL := body[0]
	ihl := int(verIHL&0x0f) * 4
	if ihl > payloadLen || ihl < 20 {
		return nil
	}
	if !wire.VerifyIPv4Checksum(body[:ihl]) {
		return nil
	}

	hdr, err := wire.UnmarshalIPv4(body)
	if err != nil {
		return nil
	}

	declared := int(hdr.TotalLen)
	switch {
	case payloadLen == minEthernetPayload && declared < minEthernetPayload:
		// Trust the IP-declared length: the link layer didn't strip the
		// Ethernet minimum-frame padding, so payloadLen overcounts.
	case declared != payloadLen:
		return nil
	}

	data := body[ihl:declared]
	switch hdr.Proto {
	case wire.IPProtoICMP:
		return stk.inputICMP(iface, hdr, data)
	case wire.IPProtoUDP:
		return stk.inputUDP(hdr, data)
	}
	return nil
}

// OutputIPv4 looks up a route for dst, resolves the next hop's MAC
// (issuing an ARP request and queueing the packet if unresolved), and
// hands the packet to Ethernet output with a freshly built IPv4 header.
func (stk *Stack) OutputIPv4(src, dst [4]byte, proto uint8, p *pkt.Buffer) error {
	route, ok := stk.routes.Lookup(dst)
	if !ok {
		p.Release()
		return nil
	}
	nextHop := dst
	if route.Gateway != ([4]byte{}) {
		nextHop = route.Gateway
	}

	hdr := &wire.IPv4Header{
		TotalLen: uint16(wire.IPv4HeaderLen + p.Len()),
		TTL:      defaultTTL,
		Proto:    proto,
		Src:      src,
		Dst:      dst,
	}
	ipHeader := make([]byte, wire.IPv4HeaderLen)
	if err := wire.MarshalIPv4(ipHeader, hdr); err != nil {
		p.Release()
		return err
	}
	p.AddHead(ipHeader)

	mac, ok := stk.arp.Lookup(nextHop)
	if !ok {
		stk.queuePendingARP(nextHop, route.Iface, p)
		return stk.RequestARP(route.Iface, nextHop)
	}
	return stk.eth.Output(route.Iface, p, mac, wire.EtherTypeIPv4)
}

func (stk *Stack) queuePendingARP(ip [4]byte, iface *eth.Interface, p *pkt.Buffer) {
	stk.mu.Lock()
	defer stk.mu.Unlock()
	stk.pendingARP[ip] = append(stk.pendingARP[ip], pendingPacket{iface: iface, pkt: p})
}

// FlushPendingARP releases every packet queued waiting on ip's
// resolution once the cache has an entry for it, called after an ARP
// reply is processed.
func (stk *Stack) FlushPendingARP(ip [4]byte) {
	mac, ok := stk.arp.Lookup(ip)
	if !ok {
		return
	}
	stk.mu.Lock()
	pending := stk.pendingARP[ip]
	delete(stk.pendingARP, ip)
	stk.mu.Unlock()

	for _, pp := range pending {
		stk.eth.Output(pp.iface, pp.pkt, mac, wire.EtherTypeIPv4)
	}
}
