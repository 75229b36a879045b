package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPv4_RoundTripAndChecksumValidates(t *testing.T) {
	buf := make([]byte, IPv4HeaderLen)
	h := &IPv4Header{
		TotalLen: IPv4HeaderLen,
		ID:       0x1234,
		TTL:      64,
		Proto:    IPProtoICMP,
		Src:      [4]byte{192, 168, 0, 1},
		Dst:      [4]byte{192, 168, 0, 99},
	}
	require.NoError(t, MarshalIPv4(buf, h))
	require.True(t, VerifyIPv4Checksum(buf))

	got, err := UnmarshalIPv4(buf)
	require.NoError(t, err)
	require.Equal(t, h.ID, got.ID)
	require.Equal(t, h.Src, got.Src)
	require.Equal(t, h.Dst, got.Dst)
	require.Equal(t, h.Proto, got.Proto)
}

func TestIPv4_CorruptedHeaderFailsChecksum(t *testing.T) {
	buf := make([]byte, IPv4HeaderLen)
	h := &IPv4Header{TotalLen: IPv4HeaderLen, TTL: 64, Proto: IPProtoUDP}
	require.NoError(t, MarshalIPv4(buf, h))
	buf[15] ^= 0xff
	require.False(t, VerifyIPv4Checksum(buf))
}

func TestIPv4_RejectsOptionsHeader(t *testing.T) {
	buf := make([]byte, IPv4HeaderLen)
	h := &IPv4Header{TotalLen: IPv4HeaderLen, TTL: 64}
	require.NoError(t, MarshalIPv4(buf, h))
	buf[0] = 0x46 // IHL 6: options present
	_, err := UnmarshalIPv4(buf)
	require.Error(t, err)
}

func TestIPv4_RejectsNonV4(t *testing.T) {
	buf := make([]byte, IPv4HeaderLen)
	h := &IPv4Header{TotalLen: IPv4HeaderLen, TTL: 64}
	require.NoError(t, MarshalIPv4(buf, h))
	buf[0] = 0x65
	_, err := UnmarshalIPv4(buf)
	require.Error(t, err)
}
