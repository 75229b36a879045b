package ksync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSemaphore_TryDownRespectsCount(t *testing.T) {
	s := NewSemaphore(1, 1, 4)
	require.True(t, s.TryDown())
	require.False(t, s.TryDown())
}

func TestSemaphore_UpRestoresPermit(t *testing.T) {
	s := NewSemaphore(0, 2, 4)
	require.False(t, s.TryDown())
	s.Up()
	require.True(t, s.TryDown())
}

func TestSemaphore_UpNeverExceedsMax(t *testing.T) {
	s := NewSemaphore(2, 2, 4)
	s.Up()
	require.Equal(t, 2, s.Available())
}

func TestSemaphore_DownBlocksUntilUp(t *testing.T) {
	s := NewSemaphore(0, 1, 4)
	done := make(chan error, 1)
	go func() { done <- s.Down(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Down returned before Up")
	case <-time.After(20 * time.Millisecond):
	}

	s.Up()
	require.NoError(t, <-done)
}

func TestSemaphore_UpHandsOffDirectlyToWaiter(t *testing.T) {
	s := NewSemaphore(0, 1, 4)
	done := make(chan error, 1)
	go func() { done <- s.Down(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	s.Up()
	require.NoError(t, <-done)
	// the permit was transferred directly to the waiter, not banked.
	require.Equal(t, 0, s.Available())
}

func TestSemaphore_DownContextCancel(t *testing.T) {
	s := NewSemaphore(0, 1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Down(ctx), context.Canceled)
}
