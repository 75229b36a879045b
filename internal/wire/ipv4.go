package wire

import (
	"encoding/binary"

	"github.com/erenright/ertos/kernelerr"
)

// IPv4 protocol numbers this stack recognizes, per RFC 791/790.
const (
	IPProtoICMP = 1
	IPProtoUDP  = 17
)

// IPv4HeaderLen is the length of an IPv4 header with no options, the only
// form this stack emits or accepts.
const IPv4HeaderLen = 20

// IPv4Header is a fixed 20-byte IPv4 header (no options).
type IPv4Header struct {
	TOS      uint8
	TotalLen uint16
	ID       uint16
	Flags    uint8
	FragOff  uint16
	TTL      uint8
	Proto    uint8
	Checksum uint16
	Src      [4]byte
	Dst      [4]byte
}

const ipv4Version4IHL5 = 0x45 // version 4, IHL 5 (20 bytes, no options)

// MarshalIPv4 writes h into the first IPv4HeaderLen bytes of buf, computing
// and inserting the header checksum. Checksum is always computed here;
// callers never set h.Checksum by hand.
func MarshalIPv4(buf []byte, h *IPv4Header) error {
	if len(buf) < IPv4HeaderLen {
		return kernelerr.New("wire.MarshalIPv4", kernelerr.CodeInvalidArgument, "buffer shorter than ipv4 header", nil)
	}
	buf[0] = ipv4Version4IHL5
	buf[1] = h.TOS
	binary.BigEndian.PutUint16(buf[2:4], h.TotalLen)
	binary.BigEndian.PutUint16(buf[4:6], h.ID)
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.Flags)<<13|h.FragOff)
	buf[8] = h.TTL
	buf[9] = h.Proto
	binary.BigEndian.PutUint16(buf[10:12], 0)
	copy(buf[12:16], h.Src[:])
	copy(buf[16:20], h.Dst[:])
	sum := Checksum16(buf[0:IPv4HeaderLen])
	binary.BigEndian.PutUint16(buf[10:12], sum)
	return nil
}

// UnmarshalIPv4 reads an IPv4 header from the front of buf. It rejects
// packets that are not version 4 or carry options (IHL != 5), since this
// stack never emits or expects them.
func UnmarshalIPv4(buf []byte) (*IPv4Header, error) {
	if len(buf) < IPv4HeaderLen {
		return nil, kernelerr.New("wire.UnmarshalIPv4", kernelerr.CodeProtocolError, "packet shorter than ipv4 header", nil)
	}
	verIHL := buf[0]
	if verIHL>>4 != 4 {
		return nil, kernelerr.New("wire.UnmarshalIPv4", kernelerr.CodeProtocolError, "not an ipv4 packet", nil)
	}
	if verIHL&0x0f != 5 {
		return nil, kernelerr.New("wire.UnmarshalIPv4", kernelerr.CodeUnsupported, "ipv4 options unsupported", nil)
	}
	flagsFrag := binary.BigEndian.Uint16(buf[6:8])
	h := &IPv4Header{
		TOS:      buf[1],
		TotalLen: binary.BigEndian.Uint16(buf[2:4]),
		ID:       binary.BigEndian.Uint16(buf[4:6]),
		Flags:    uint8(flagsFrag >> 13),
		FragOff:  flagsFrag & 0x1fff,
		TTL:      buf[8],
		Proto:    buf[9],
		Checksum: binary.BigEndian.Uint16(buf[10:12]),
	}
	copy(h.Src[:], buf[12:16])
	copy(h.Dst[:], buf[16:20])
	return h, nil
}

// VerifyIPv4Checksum reports whether the header checksum over buf's first
// IPv4HeaderLen bytes is valid. Checksum16 returns the one's complement of
// the folded sum, so a correctly checksummed header (checksum field
// included) always folds to 0xffff and Checksum16 itself returns 0.
func VerifyIPv4Checksum(buf []byte) bool {
	if len(buf) < IPv4HeaderLen {
		return false
	}
	return Checksum16(buf[0:IPv4HeaderLen]) == 0
}
