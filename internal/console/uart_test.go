package console

import (
	"context"
	"testing"
	"time"

	"github.com/erenright/ertos/internal/clock"
	"github.com/erenright/ertos/internal/sched"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) (*sched.Scheduler, context.CancelFunc) {
	t.Helper()
	c := &clock.Clock{}
	s := sched.New(c, nil)
	s.SpawnIdle(func(tk *sched.Task) {
		for {
			tk.Yield()
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	return s, cancel
}

func TestUART_OpenDefaultsBaudAndState(t *testing.T) {
	u := New(newLoopbackBackend())
	require.NoError(t, u.Open())
	require.Equal(t, 115200, u.baud)
	require.Equal(t, StateOpen, u.state)
}

func TestUART_WriteFillsTXFIFOThenHardwareDrainsOnTXISR(t *testing.T) {
	backend := newLoopbackBackend()
	u := New(backend)
	require.NoError(t, u.Open())

	n := u.Write([]byte("hello"))
	require.Equal(t, 5, n)
	require.True(t, backend.txEnabled)

	u.TXISR()
	require.Equal(t, []byte("hello"), backend.txSink)
	require.True(t, u.tx.Empty())
}

func TestUART_WriteTruncatesAtFIFOCapacity(t *testing.T) {
	u := New(newLoopbackBackend())
	require.NoError(t, u.Open())

	big := make([]byte, FIFOSize+10)
	n := u.Write(big)
	require.Equal(t, FIFOSize, n)
}

func TestUART_TXISRDisablesInterruptWhenFIFOEmpty(t *testing.T) {
	backend := newLoopbackBackend()
	u := New(backend)
	require.NoError(t, u.Open())
	backend.txEnabled = true

	u.TXISR()
	require.False(t, backend.txEnabled)
}

func TestUART_RXISRMovesHardwareBytesAndWakesReaders(t *testing.T) {
	backend := newLoopbackBackend()
	u := New(backend)
	require.NoError(t, u.Open())
	backend.deliver([]byte("hi"))

	s, cancel := newTestScheduler(t)
	defer cancel()

	released := make(chan error, 1)
	s.Spawn("reader", sched.ModeUser, func(tk *sched.Task) {
		released <- u.Wait(tk)
	})
	require.Eventually(t, func() bool { return u.wait.Waiting() == 1 }, time.Second, time.Millisecond)

	u.RXISR()

	select {
	case err := <-released:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reader never woke")
	}

	buf := make([]byte, 4)
	n := u.Read(buf)
	require.Equal(t, 2, n)
	require.Equal(t, "hi", string(buf[:n]))
}

func TestUART_RXISRStopsAtFIFOCapacity(t *testing.T) {
	backend := newLoopbackBackend()
	u := New(backend)
	require.NoError(t, u.Open())
	backend.deliver(make([]byte, FIFOSize+5))

	u.RXISR()
	require.Equal(t, FIFOSize, u.Available())
}

func TestUART_ReadDrainsAvailableBytesOnly(t *testing.T) {
	backend := newLoopbackBackend()
	u := New(backend)
	require.NoError(t, u.Open())
	backend.deliver([]byte("ab"))
	u.RXISR()

	buf := make([]byte, 10)
	n := u.Read(buf)
	require.Equal(t, 2, n)
}

func TestUART_CloseClearsFIFOs(t *testing.T) {
	backend := newLoopbackBackend()
	u := New(backend)
	require.NoError(t, u.Open())
	u.Write([]byte("x"))
	u.Close()
	require.Equal(t, StateClosed, u.state)
	require.True(t, u.tx.Empty())
}
