// Package wire implements the on-the-wire formats this kernel's network
// stack reads and writes: Ethernet II, ARP, IPv4, ICMP echo, and UDP.
// Every format is marshaled and unmarshaled by hand with encoding/binary,
// the same field-by-field technique the board's UAPI layer uses for its
// C-compatible structs, because these layouts are bit-exact wire contracts
// rather than internal data structures a struct tag library could infer.
package wire

import (
	"encoding/binary"

	"github.com/erenright/ertos/kernelerr"
)

// MACLen is the length of a hardware Ethernet address in bytes.
const MACLen = 6

// MAC is a 48-bit Ethernet hardware address.
type MAC [MACLen]byte

// Broadcast is the all-ones Ethernet broadcast address.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

func (m MAC) IsBroadcast() bool {
	return m == Broadcast
}

// EtherType identifies the payload carried by an Ethernet frame.
type EtherType uint16

const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeARP  EtherType = 0x0806
)

// EthHeaderLen is the fixed size of an Ethernet II header.
const EthHeaderLen = 14

// EthHeader is an Ethernet II frame header: destination, source, type.
type EthHeader struct {
	Dst  MAC
	Src  MAC
	Type EtherType
}

// MarshalEthHeader writes h into the first EthHeaderLen bytes of buf.
func MarshalEthHeader(buf []byte, h *EthHeader) error {
	if len(buf) < EthHeaderLen {
		return kernelerr.New("wire.MarshalEthHeader", kernelerr.CodeInvalidArgument, "buffer shorter than ethernet header", nil)
	}
	copy(buf[0:6], h.Dst[:])
	copy(buf[6:12], h.Src[:])
	binary.BigEndian.PutUint16(buf[12:14], uint16(h.Type))
	return nil
}

// UnmarshalEthHeader reads an Ethernet header from the front of buf.
func UnmarshalEthHeader(buf []byte) (*EthHeader, error) {
	if len(buf) < EthHeaderLen {
		return nil, kernelerr.New("wire.UnmarshalEthHeader", kernelerr.CodeProtocolError, "frame shorter than ethernet header", nil)
	}
	h := &EthHeader{Type: EtherType(binary.BigEndian.Uint16(buf[12:14]))}
	copy(h.Dst[:], buf[0:6])
	copy(h.Src[:], buf[6:12])
	return h, nil
}

// Checksum16 computes the Internet checksum (RFC 1071) over data: the
// one's-complement of the one's-complement sum of 16-bit big-endian words,
// with an odd trailing byte treated as the high byte of a final word.
func Checksum16(data []byte) uint16 {
	var sum uint32
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if n%2 == 1 {
		sum += uint32(data[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}
