package net

import (
	"github.com/erenright/ertos/internal/eth"
	"github.com/erenright/ertos/internal/pkt"
	"github.com/erenright/ertos/internal/wire"
)

// inputICMP validates the ICMP checksum, and for ECHO requests builds an
// ECHO_REPLY with the same ID, sequence and data in a new buffer and
// emits it through IP output.
// ECHO_REPLY messages are logged and dropped; this stack never
// originates pings of its own.
func (stk *Stack) inputICMP(iface *eth.Interface, ipHdr *wire.IPv4Header, data []byte) error {
	if wire.Checksum16(data) != 0 {
		return nil
	}
	msg, err := wire.UnmarshalICMPEcho(data)
	if err != nil {
		return nil
	}

	switch msg.Type {
	case wire.ICMPTypeEchoRequest:
		reply := &wire.ICMPEcho{
			Type:     wire.ICMPTypeEchoReply,
			Code:     0,
			ID:       msg.ID,
			Sequence: msg.Sequence,
			Data:     msg.Data,
		}
		buf := make([]byte, wire.ICMPHeaderLen+len(reply.Data))
		if err := wire.MarshalICMPEcho(buf, reply); err != nil {
			return err
		}
		p := pkt.New(len(buf))
		p.AddTail(buf)
		return stk.OutputIPv4(ipHdr.Dst, ipHdr.Src, wire.IPProtoICMP, p)

	case wire.ICMPTypeEchoReply:
		if stk.log != nil {
			stk.log.Debug("icmp echo reply", "from", ipHdr.Src)
		}
	}
	return nil
}
