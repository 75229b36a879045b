package wire

import (
	"encoding/binary"

	"github.com/erenright/ertos/kernelerr"
)

// ARP hardware/protocol constants, per RFC 826.
const (
	ARPHardwareEthernet = 1
	ARPProtoIPv4        = 0x0800
	ARPOpRequest        = 1
	ARPOpReply          = 2

	// ARPLen is the fixed size of an ARP packet for Ethernet/IPv4, the only
	// combination this stack speaks.
	ARPLen = 28
)

// ARPPacket is an Ethernet/IPv4 ARP request or reply.
type ARPPacket struct {
	Op      uint16
	SHA     MAC
	SPA     [4]byte
	THA     MAC
	TPA     [4]byte
}

// MarshalARP writes p into the first ARPLen bytes of buf.
func MarshalARP(buf []byte, p *ARPPacket) error {
	if len(buf) < ARPLen {
		return kernelerr.New("wire.MarshalARP", kernelerr.CodeInvalidArgument, "buffer shorter than arp packet", nil)
	}
	binary.BigEndian.PutUint16(buf[0:2], ARPHardwareEthernet)
	binary.BigEndian.PutUint16(buf[2:4], ARPProtoIPv4)
	buf[4] = MACLen
	buf[5] = 4
	binary.BigEndian.PutUint16(buf[6:8], p.Op)
	copy(buf[8:14], p.SHA[:])
	copy(buf[14:18], p.SPA[:])
	copy(buf[18:24], p.THA[:])
	copy(buf[24:28], p.TPA[:])
	return nil
}

// UnmarshalARP reads an ARP packet from the front of buf. Only
// Ethernet/IPv4 packets (hlen 6, plen 4) are accepted; anything else is a
// protocol error the caller should count and drop, not crash on.
func UnmarshalARP(buf []byte) (*ARPPacket, error) {
	if len(buf) < ARPLen {
		return nil, kernelerr.New("wire.UnmarshalARP", kernelerr.CodeProtocolError, "packet shorter than arp header", nil)
	}
	if binary.BigEndian.Uint16(buf[0:2]) != ARPHardwareEthernet || binary.BigEndian.Uint16(buf[2:4]) != ARPProtoIPv4 {
		return nil, kernelerr.New("wire.UnmarshalARP", kernelerr.CodeProtocolError, "unsupported hardware/protocol type", nil)
	}
	if buf[4] != MACLen || buf[5] != 4 {
		return nil, kernelerr.New("wire.UnmarshalARP", kernelerr.CodeProtocolError, "unexpected address lengths", nil)
	}
	p := &ARPPacket{Op: binary.BigEndian.Uint16(buf[6:8])}
	copy(p.SHA[:], buf[8:14])
	copy(p.SPA[:], buf[14:18])
	copy(p.THA[:], buf[18:24])
	copy(p.TPA[:], buf[24:28])
	return p, nil
}
