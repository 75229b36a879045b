package net

import (
	"testing"

	"github.com/erenright/ertos/internal/clock"
	"github.com/erenright/ertos/internal/eth"
	"github.com/erenright/ertos/internal/pkt"
	"github.com/erenright/ertos/internal/wire"
	"github.com/stretchr/testify/require"
)

type fakeOps struct {
	sent [][]byte
}

func (f *fakeOps) Open() error { return nil }
func (f *fakeOps) Xmit(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.sent = append(f.sent, cp)
	return nil
}
func (f *fakeOps) Release() {}

func newTestStack(t *testing.T) (*Stack, *eth.Interface, *fakeOps) {
	t.Helper()
	ops := &fakeOps{}
	iface := eth.NewInterface("eth0", wire.MAC{2, 0, 0, 0, 0, 1}, 32, ops)
	require.NoError(t, iface.Open())
	iface.AssignIP([4]byte{192, 168, 0, 99})
	iface.BindToStack()

	mgr := eth.NewManager(nil, &clock.Clock{}, nil, nil)
	mgr.AddInterface(iface)

	arp := NewARPCache(&clock.Clock{})
	routes := NewRouteTable()
	routes.Add(Route{
		Dest:  [4]byte{192, 168, 0, 0},
		Mask:  [4]byte{255, 255, 255, 0},
		Iface: iface,
	})

	return NewStack(mgr, arp, routes, nil), iface, ops
}

func TestARPCache_AddLookupDuplicate(t *testing.T) {
	c := NewARPCache(&clock.Clock{})
	mac := wire.MAC{2, 0, 0, 0, 0, 9}
	ip := [4]byte{10, 0, 0, 1}

	c.Add(ip, mac)
	c.Add(ip, mac) // duplicate, must not re-insert
	require.Equal(t, 1, c.Len())

	got, ok := c.Lookup(ip)
	require.True(t, ok)
	require.Equal(t, mac, got)
}

func TestRouteTable_LongestPrefixWins(t *testing.T) {
	t1 := &eth.Interface{}
	t2 := &eth.Interface{}
	rt := NewRouteTable()
	rt.Add(Route{Dest: [4]byte{192, 168, 0, 0}, Mask: [4]byte{255, 255, 0, 0}, Iface: t1, Metric: 1})
	rt.Add(Route{Dest: [4]byte{192, 168, 1, 0}, Mask: [4]byte{255, 255, 255, 0}, Iface: t2, Metric: 1})

	r, ok := rt.Lookup([4]byte{192, 168, 1, 50})
	require.True(t, ok)
	require.Same(t, t2, r.Iface)
}

func TestRouteTable_NoMatch(t *testing.T) {
	rt := NewRouteTable()
	_, ok := rt.Lookup([4]byte{10, 0, 0, 1})
	require.False(t, ok)
}

// TestHandleARP_ReplyConstruction mirrors the board's worked example:
// who-has 192.168.0.99, answered by the interface owning that address.
func TestHandleARP_ReplyConstruction(t *testing.T) {
	stk, iface, ops := newTestStack(t)

	req := &wire.ARPPacket{
		Op:  wire.ARPOpRequest,
		SHA: wire.MAC{2, 0, 0, 0, 0, 2},
		SPA: [4]byte{192, 168, 0, 1},
		TPA: [4]byte{192, 168, 0, 99},
	}
	frame := make([]byte, wire.EthHeaderLen+wire.ARPLen)
	require.NoError(t, wire.MarshalEthHeader(frame, &wire.EthHeader{Dst: iface.MAC, Src: req.SHA, Type: wire.EtherTypeARP}))
	require.NoError(t, wire.MarshalARP(frame[wire.EthHeaderLen:], req))

	require.NoError(t, stk.HandleARP(iface, frame))
	require.Len(t, ops.sent, 1)

	got, err := wire.UnmarshalARP(ops.sent[0][wire.EthHeaderLen:])
	require.NoError(t, err)
	require.Equal(t, wire.ARPOpReply, int(got.Op))
	require.Equal(t, iface.MAC, got.SHA)
	require.Equal(t, [4]byte{192, 168, 0, 99}, got.SPA)
	require.Equal(t, req.SHA, got.THA)
	require.Equal(t, req.SPA, got.TPA)
}

func TestHandleARP_RequestForUnownedIPIsIgnored(t *testing.T) {
	stk, iface, ops := newTestStack(t)
	req := &wire.ARPPacket{Op: wire.ARPOpRequest, TPA: [4]byte{10, 0, 0, 1}}
	frame := make([]byte, wire.EthHeaderLen+wire.ARPLen)
	require.NoError(t, wire.MarshalARP(frame[wire.EthHeaderLen:], req))

	require.NoError(t, stk.HandleARP(iface, frame))
	require.Empty(t, ops.sent)
}

func TestHandleARP_ReplyUpdatesCacheAndFlushesPending(t *testing.T) {
	stk, iface, ops := newTestStack(t)

	p := pkt.New(4)
	p.AddTail([]byte("data"))
	stk.queuePendingARP([4]byte{192, 168, 0, 5}, iface, p)

	reply := &wire.ARPPacket{
		Op:  wire.ARPOpReply,
		SHA: wire.MAC{2, 0, 0, 0, 0, 5},
		SPA: [4]byte{192, 168, 0, 5},
	}
	frame := make([]byte, wire.EthHeaderLen+wire.ARPLen)
	require.NoError(t, wire.MarshalARP(frame[wire.EthHeaderLen:], reply))

	require.NoError(t, stk.HandleARP(iface, frame))

	mac, ok := stk.arp.Lookup([4]byte{192, 168, 0, 5})
	require.True(t, ok)
	require.Equal(t, reply.SHA, mac)
	require.Len(t, ops.sent, 1) // the flushed pending packet went out
}

func buildICMPEchoRequestFrame(t *testing.T, dstIface *eth.Interface) []byte {
	t.Helper()
	icmp := &wire.ICMPEcho{Type: wire.ICMPTypeEchoRequest, ID: 1, Sequence: 1, Data: []byte("ping")}
	icmpBuf := make([]byte, wire.ICMPHeaderLen+len(icmp.Data))
	require.NoError(t, wire.MarshalICMPEcho(icmpBuf, icmp))

	ipHdr := &wire.IPv4Header{
		TotalLen: uint16(wire.IPv4HeaderLen + len(icmpBuf)),
		TTL:      64,
		Proto:    wire.IPProtoICMP,
		Src:      [4]byte{192, 168, 0, 1},
		Dst:      [4]byte{192, 168, 0, 99},
	}
	ipBuf := make([]byte, wire.IPv4HeaderLen)
	require.NoError(t, wire.MarshalIPv4(ipBuf, ipHdr))

	frame := make([]byte, wire.EthHeaderLen+len(ipBuf)+len(icmpBuf))
	require.NoError(t, wire.MarshalEthHeader(frame, &wire.EthHeader{Dst: dstIface.MAC, Src: wire.MAC{2, 0, 0, 0, 0, 2}, Type: wire.EtherTypeIPv4}))
	copy(frame[wire.EthHeaderLen:], ipBuf)
	copy(frame[wire.EthHeaderLen+len(ipBuf):], icmpBuf)
	return frame
}

func TestInputIPv4_ICMPEchoProducesReply(t *testing.T) {
	stk, iface, ops := newTestStack(t)
	stk.arp.Add([4]byte{192, 168, 0, 1}, wire.MAC{2, 0, 0, 0, 0, 2})

	frame := buildICMPEchoRequestFrame(t, iface)
	require.NoError(t, stk.InputIPv4(iface, frame))
	require.Len(t, ops.sent, 1)

	sent := ops.sent[0]
	ipHdr, err := wire.UnmarshalIPv4(sent[wire.EthHeaderLen:])
	require.NoError(t, err)
	require.Equal(t, [4]byte{192, 168, 0, 99}, ipHdr.Src)
	require.Equal(t, [4]byte{192, 168, 0, 1}, ipHdr.Dst)

	icmp, err := wire.UnmarshalICMPEcho(sent[wire.EthHeaderLen+wire.IPv4HeaderLen:])
	require.NoError(t, err)
	require.Equal(t, uint8(wire.ICMPTypeEchoReply), icmp.Type)
}

func TestInputIPv4_RejectsBadChecksum(t *testing.T) {
	stk, iface, ops := newTestStack(t)
	frame := buildICMPEchoRequestFrame(t, iface)
	frame[wire.EthHeaderLen+15] ^= 0xff // corrupt IP header after checksum computed

	require.NoError(t, stk.InputIPv4(iface, frame))
	require.Empty(t, ops.sent)
}

func TestInputIPv4_TrustsIPLengthAtMinimumEthernetPayload(t *testing.T) {
	stk, iface, _ := newTestStack(t)

	ipHdr := &wire.IPv4Header{TotalLen: 28, TTL: 64, Proto: wire.IPProtoUDP, Src: [4]byte{192, 168, 0, 1}, Dst: [4]byte{192, 168, 0, 99}}
	ipBuf := make([]byte, wire.IPv4HeaderLen)
	require.NoError(t, wire.MarshalIPv4(ipBuf, ipHdr))

	udpHdr := &wire.UDPHeader{SrcPort: 1, DstPort: 2, Length: 8}
	udpBuf := make([]byte, wire.UDPHeaderLen)
	require.NoError(t, wire.MarshalUDP(udpBuf, udpHdr))

	payload := append(append([]byte{}, ipBuf...), udpBuf...)
	// pad payload up to the Ethernet-minimum-derived 46 bytes, simulating
	// link-layer padding the IP length does not account for.
	for len(payload) < minEthernetPayload {
		payload = append(payload, 0)
	}
	frame := make([]byte, wire.EthHeaderLen+len(payload))
	require.NoError(t, wire.MarshalEthHeader(frame, &wire.EthHeader{Dst: iface.MAC, Type: wire.EtherTypeIPv4}))
	copy(frame[wire.EthHeaderLen:], payload)

	var gotUDP bool
	stk.SetUDPHandler(func(src, dst [4]byte, sp, dp uint16, data []byte) { gotUDP = true })
	require.NoError(t, stk.InputIPv4(iface, frame))
	require.True(t, gotUDP)
}
