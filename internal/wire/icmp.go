package wire

import (
	"encoding/binary"

	"github.com/erenright/ertos/kernelerr"
)

// ICMP message types this stack handles, per RFC 792.
const (
	ICMPTypeEchoReply   = 0
	ICMPTypeEchoRequest = 8
)

// ICMPHeaderLen is the size of the fixed echo header (type, code, checksum,
// identifier, sequence); any remaining bytes are opaque echo data.
const ICMPHeaderLen = 8

// ICMPEcho is an ICMP echo request or reply header plus its trailing data.
type ICMPEcho struct {
	Type     uint8
	Code     uint8
	ID       uint16
	Sequence uint16
	Data     []byte
}

// MarshalICMPEcho writes h into buf, which must be at least
// ICMPHeaderLen+len(h.Data) bytes, computing the checksum over the whole
// message.
func MarshalICMPEcho(buf []byte, h *ICMPEcho) error {
	total := ICMPHeaderLen + len(h.Data)
	if len(buf) < total {
		return kernelerr.New("wire.MarshalICMPEcho", kernelerr.CodeInvalidArgument, "buffer shorter than icmp message", nil)
	}
	buf[0] = h.Type
	buf[1] = h.Code
	binary.BigEndian.PutUint16(buf[2:4], 0)
	binary.BigEndian.PutUint16(buf[4:6], h.ID)
	binary.BigEndian.PutUint16(buf[6:8], h.Sequence)
	copy(buf[8:total], h.Data)
	sum := Checksum16(buf[0:total])
	binary.BigEndian.PutUint16(buf[2:4], sum)
	return nil
}

// UnmarshalICMPEcho reads an ICMP echo message from buf. Data aliases buf
// and must not outlive it.
func UnmarshalICMPEcho(buf []byte) (*ICMPEcho, error) {
	if len(buf) < ICMPHeaderLen {
		return nil, kernelerr.New("wire.UnmarshalICMPEcho", kernelerr.CodeProtocolError, "packet shorter than icmp header", nil)
	}
	h := &ICMPEcho{
		Type:     buf[0],
		Code:     buf[1],
		ID:       binary.BigEndian.Uint16(buf[4:6]),
		Sequence: binary.BigEndian.Uint16(buf[6:8]),
		Data:     buf[8:],
	}
	return h, nil
}
