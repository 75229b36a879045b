package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum16_MatchesReferenceIPv4Header(t *testing.T) {
	header := []byte{
		0x45, 0x00, 0x00, 0x54, 0x00, 0x00, 0x40, 0x00,
		0x40, 0x01, 0x00, 0x00, 0xC0, 0xA8, 0x00, 0x01,
		0xC0, 0xA8, 0x00, 0x02,
	}
	require.Equal(t, uint16(0xB861), Checksum16(header))
}

func TestEthHeader_RoundTrip(t *testing.T) {
	buf := make([]byte, EthHeaderLen)
	h := &EthHeader{
		Dst:  MAC{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		Src:  MAC{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
		Type: EtherTypeIPv4,
	}
	require.NoError(t, MarshalEthHeader(buf, h))
	got, err := UnmarshalEthHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestEthHeader_ShortBufferFails(t *testing.T) {
	_, err := UnmarshalEthHeader(make([]byte, 4))
	require.Error(t, err)
}
