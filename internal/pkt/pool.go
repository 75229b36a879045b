package pkt

import "sync"

// Buffer size thresholds, picked around the Ethernet frame sizes this
// kernel actually moves (a full 1518-byte frame, padded to 1520, fits the
// 1536-byte bucket) rather than storage-I/O-sized buckets.
const (
	size128  = 128
	size256  = 256
	size512  = 512
	size1536 = 1536
	size2048 = 2048
)

var globalPool = struct {
	p128  sync.Pool
	p256  sync.Pool
	p512  sync.Pool
	p1536 sync.Pool
	p2048 sync.Pool
}{
	p128:  sync.Pool{New: func() any { b := make([]byte, size128); return &b }},
	p256:  sync.Pool{New: func() any { b := make([]byte, size256); return &b }},
	p512:  sync.Pool{New: func() any { b := make([]byte, size512); return &b }},
	p1536: sync.Pool{New: func() any { b := make([]byte, size1536); return &b }},
	p2048: sync.Pool{New: func() any { b := make([]byte, size2048); return &b }},
}

// getBuffer returns a pooled buffer of at least size bytes, zeroed.
func getBuffer(size int) []byte {
	var b []byte
	switch {
	case size <= size128:
		b = *globalPool.p128.Get().(*[]byte)
	case size <= size256:
		b = *globalPool.p256.Get().(*[]byte)
	case size <= size512:
		b = *globalPool.p512.Get().(*[]byte)
	case size <= size1536:
		b = *globalPool.p1536.Get().(*[]byte)
	case size <= size2048:
		b = *globalPool.p2048.Get().(*[]byte)
	default:
		return make([]byte, size)
	}
	for i := range b {
		b[i] = 0
	}
	return b[:size]
}

// putBuffer returns buf to the pool matching its capacity. Non-standard
// capacities (oversized allocations getBuffer made directly with make) are
// simply dropped for the GC to reclaim.
func putBuffer(buf []byte) {
	c := cap(buf)
	buf = buf[:c]
	switch c {
	case size128:
		globalPool.p128.Put(&buf)
	case size256:
		globalPool.p256.Put(&buf)
	case size512:
		globalPool.p512.Put(&buf)
	case size1536:
		globalPool.p1536.Put(&buf)
	case size2048:
		globalPool.p2048.Put(&buf)
	}
}
