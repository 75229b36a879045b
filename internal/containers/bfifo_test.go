package containers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBFIFO_EnqueueDequeueOrder(t *testing.T) {
	f := NewBFIFO[int](4)
	require.True(t, f.Empty())

	require.True(t, f.Enqueue(1))
	require.True(t, f.Enqueue(2))
	require.True(t, f.Enqueue(3))
	require.Equal(t, 3, f.Len())

	v, ok := f.Dequeue()
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = f.Dequeue()
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestBFIFO_FullRejectsEnqueue(t *testing.T) {
	f := NewBFIFO[int](2)
	require.True(t, f.Enqueue(1))
	require.True(t, f.Enqueue(2))
	require.True(t, f.Full())
	require.False(t, f.Enqueue(3))
	require.Equal(t, 2, f.Len())
}

func TestBFIFO_EmptyDequeueReportsFalse(t *testing.T) {
	f := NewBFIFO[string](1)
	_, ok := f.Dequeue()
	require.False(t, ok)
}

func TestBFIFO_FrontDoesNotRemove(t *testing.T) {
	f := NewBFIFO[int](2)
	f.Enqueue(7)
	v, ok := f.Front()
	require.True(t, ok)
	require.Equal(t, 7, v)
	require.Equal(t, 1, f.Len())

	v, ok = f.Dequeue()
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestBFIFO_FrontOnEmptyReportsFalse(t *testing.T) {
	f := NewBFIFO[int](1)
	_, ok := f.Front()
	require.False(t, ok)
}

func TestBFIFO_WrapsAroundRingBuffer(t *testing.T) {
	f := NewBFIFO[int](3)
	require.True(t, f.Enqueue(1))
	require.True(t, f.Enqueue(2))
	_, _ = f.Dequeue()
	require.True(t, f.Enqueue(3))
	require.True(t, f.Enqueue(4))
	require.False(t, f.Enqueue(5))

	var got []int
	for {
		v, ok := f.Dequeue()
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.Equal(t, []int{2, 3, 4}, got)
}
