package wire

import (
	"encoding/binary"

	"github.com/erenright/ertos/kernelerr"
)

// UDPHeaderLen is the fixed size of a UDP header, per RFC 768.
const UDPHeaderLen = 8

// UDPHeader is a UDP datagram header.
type UDPHeader struct {
	SrcPort uint16
	DstPort uint16
	Length  uint16
}

// MarshalUDP writes h into the first UDPHeaderLen bytes of buf. The
// checksum field is always written as 0 (no checksum computed): this
// stack runs on a point-to-point simulated link where datagram corruption
// in flight isn't a real failure mode, so the pseudo-header checksum is
// left disabled rather than wired to a fake IPv4 pseudo-header.
func MarshalUDP(buf []byte, h *UDPHeader) error {
	if len(buf) < UDPHeaderLen {
		return kernelerr.New("wire.MarshalUDP", kernelerr.CodeInvalidArgument, "buffer shorter than udp header", nil)
	}
	binary.BigEndian.PutUint16(buf[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(buf[2:4], h.DstPort)
	binary.BigEndian.PutUint16(buf[4:6], h.Length)
	binary.BigEndian.PutUint16(buf[6:8], 0)
	return nil
}

// UnmarshalUDP reads a UDP header from the front of buf and validates that
// h.Length covers at least the header and no more than the data actually
// present, rejecting short or truncated datagrams rather than trusting the
// header's claimed length. Trailing bytes past h.Length are accepted.
func UnmarshalUDP(buf []byte) (*UDPHeader, error) {
	if len(buf) < UDPHeaderLen {
		return nil, kernelerr.New("wire.UnmarshalUDP", kernelerr.CodeProtocolError, "packet shorter than udp header", nil)
	}
	h := &UDPHeader{
		SrcPort: binary.BigEndian.Uint16(buf[0:2]),
		DstPort: binary.BigEndian.Uint16(buf[2:4]),
		Length:  binary.BigEndian.Uint16(buf[4:6]),
	}
	if int(h.Length) < UDPHeaderLen || int(h.Length) > len(buf) {
		return nil, kernelerr.New("wire.UnmarshalUDP", kernelerr.CodeProtocolError, "udp length field inconsistent with datagram size", nil)
	}
	return h, nil
}
