package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestICMPEcho_RoundTrip(t *testing.T) {
	data := []byte("ping-payload")
	buf := make([]byte, ICMPHeaderLen+len(data))
	h := &ICMPEcho{Type: ICMPTypeEchoRequest, ID: 7, Sequence: 1, Data: data}
	require.NoError(t, MarshalICMPEcho(buf, h))

	got, err := UnmarshalICMPEcho(buf)
	require.NoError(t, err)
	require.Equal(t, h.ID, got.ID)
	require.Equal(t, h.Sequence, got.Sequence)
	require.Equal(t, data, got.Data)
}

func TestICMPEcho_ReplySwapsTypeKeepsChecksumValid(t *testing.T) {
	data := []byte("abc")
	buf := make([]byte, ICMPHeaderLen+len(data))
	req := &ICMPEcho{Type: ICMPTypeEchoRequest, ID: 1, Sequence: 9, Data: data}
	require.NoError(t, MarshalICMPEcho(buf, req))

	reply := &ICMPEcho{Type: ICMPTypeEchoReply, ID: req.ID, Sequence: req.Sequence, Data: data}
	replyBuf := make([]byte, ICMPHeaderLen+len(data))
	require.NoError(t, MarshalICMPEcho(replyBuf, reply))

	got, err := UnmarshalICMPEcho(replyBuf)
	require.NoError(t, err)
	require.Equal(t, uint8(ICMPTypeEchoReply), got.Type)
}

func TestICMPEcho_ShortBufferFails(t *testing.T) {
	_, err := UnmarshalICMPEcho(make([]byte, 2))
	require.Error(t, err)
}
