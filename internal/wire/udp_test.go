package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUDP_RoundTrip(t *testing.T) {
	payload := []byte("hello")
	buf := make([]byte, UDPHeaderLen+len(payload))
	h := &UDPHeader{SrcPort: 6000, DstPort: 53, Length: uint16(UDPHeaderLen + len(payload))}
	require.NoError(t, MarshalUDP(buf, h))
	copy(buf[UDPHeaderLen:], payload)

	got, err := UnmarshalUDP(buf)
	require.NoError(t, err)
	require.Equal(t, h.SrcPort, got.SrcPort)
	require.Equal(t, h.DstPort, got.DstPort)
	require.Equal(t, h.Length, got.Length)
}

func TestUDP_LengthExceedingBufferFails(t *testing.T) {
	buf := make([]byte, UDPHeaderLen)
	h := &UDPHeader{SrcPort: 1, DstPort: 2, Length: 999}
	require.NoError(t, MarshalUDP(buf, h))
	_, err := UnmarshalUDP(buf)
	require.Error(t, err)
}

func TestUDP_LengthBelowHeaderSizeFails(t *testing.T) {
	buf := make([]byte, UDPHeaderLen)
	h := &UDPHeader{SrcPort: 1, DstPort: 2, Length: 4}
	require.NoError(t, MarshalUDP(buf, h))
	_, err := UnmarshalUDP(buf)
	require.Error(t, err)
}

func TestUDP_ShortBufferFails(t *testing.T) {
	_, err := UnmarshalUDP(make([]byte, 2))
	require.Error(t, err)
}
