// Package pkt implements the network packet buffer: a growable owned byte
// region with head/tail insertion and head removal, the Go counterpart of
// `struct en_net_pkt`/`pkt_add_head`/`pkt_add_tail`/`pkt_del_head`/
// `pkt_grow`. Buffers come from internal/pkt's size-bucketed pool instead of
// the allocator's slab tier, keeping the hot RX/TX path off the general
// allocator entirely.
package pkt

import "github.com/erenright/ertos/kernelerr"

// padding rounds buffer sizes up to a 4-byte boundary, as the original does
// "so we can cast the buffer as uint16_t for checksum purposes".
const padding = 4

// Buffer is a packet's data region: data[:length] is the live frame,
// data[length:cap(data)] is reserved headroom grown lazily by reserve.
type Buffer struct {
	data   []byte
	length int
}

// New allocates a packet buffer with base bytes of backing storage and
// zero live length, the counterpart of pkt_alloc.
func New(base int) *Buffer {
	if base <= 0 {
		return &Buffer{}
	}
	return &Buffer{data: getBuffer(padTo(base))}
}

// Release returns the buffer's backing storage to the pool. The Buffer
// must not be used afterward.
func (b *Buffer) Release() {
	if b.data != nil {
		putBuffer(b.data)
		b.data = nil
		b.length = 0
	}
}

func padTo(n int) int {
	if rem := n % padding; rem != 0 {
		n += padding - rem
	}
	return n
}

// Len returns the live frame length.
func (b *Buffer) Len() int {
	return b.length
}

// Cap returns the backing storage size.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Bytes returns the live frame as a slice aliasing the buffer's storage.
// Callers must not retain it past the next mutation.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.length]
}

// Grow ensures the backing storage is at least length bytes, reallocating
// from the pool and copying live data forward if needed. It never shrinks,
// matching pkt_grow's "len < pkt->allocated" no-op check.
func (b *Buffer) Grow(length int) {
	if length <= 0 || length <= len(b.data) {
		return
	}
	length = padTo(length)
	next := getBuffer(length)
	copy(next, b.data[:b.length])
	if b.data != nil {
		putBuffer(b.data)
	}
	b.data = next
}

func (b *Buffer) reserve(extra int) {
	b.Grow(len(b.data) + extra)
}

// AddHead pushes buf onto the front of the live frame, growing the backing
// storage first if needed, the counterpart of pkt_add_head.
func (b *Buffer) AddHead(buf []byte) {
	b.reserve(len(buf))
	copy(b.data[len(buf):len(buf)+b.length], b.data[:b.length])
	copy(b.data[:len(buf)], buf)
	b.length += len(buf)
}

// AddTail appends buf to the end of the live frame, growing the backing
// storage first if needed, the counterpart of pkt_add_tail.
func (b *Buffer) AddTail(buf []byte) {
	b.reserve(len(buf))
	copy(b.data[b.length:b.length+len(buf)], buf)
	b.length += len(buf)
}

// DelHead removes n bytes from the front of the live frame without
// shrinking the backing storage, the counterpart of pkt_del_head.
func (b *Buffer) DelHead(n int) error {
	if n > b.length {
		return kernelerr.New("pkt.DelHead", kernelerr.CodeInvalidArgument, "remove exceeds live length", nil)
	}
	copy(b.data, b.data[n:b.length])
	b.length -= n
	return nil
}
