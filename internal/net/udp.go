package net

import (
	"github.com/erenright/ertos/internal/wire"
)

// inputUDP validates that the declared UDP length agrees with the
// IP-derived length, then dispatches to the configured higher-layer
// handler. Higher-layer UDP consumers are out of scope for this
// repository; with no handler set the datagram is dropped.
func (stk *Stack) inputUDP(ipHdr *wire.IPv4Header, data []byte) error {
	hdr, err := wire.UnmarshalUDP(data)
	if err != nil {
		return nil
	}
	if int(hdr.Length) != len(data) {
		return nil
	}
	if stk.udpHandler != nil {
		stk.udpHandler(ipHdr.Src, ipHdr.Dst, hdr.SrcPort, hdr.DstPort, data[wire.UDPHeaderLen:])
	}
	return nil
}
