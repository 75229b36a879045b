// Package memalloc implements the kernel's two-tier memory allocator: a
// bump allocator (Arena.Bump, the analogue of the original `smalloc`) used
// for bootstrap and permanently-held memory, and a slab allocator
// (Allocator.Malloc/Free) carved out of bump-allocated memory once boot
// reaches the point where dynamic allocation is safe.
//
// There is no raw pointer arithmetic here the way the C original walks
// `void *` ranges; size classes are identified by the backing array index
// each allocation's slice shares with the arena, recovered with
// unsafe.Pointer the same way a ring buffer recovers descriptor offsets
// from a single mmap'd region.
package memalloc

import (
	"unsafe"

	"github.com/erenright/ertos/kernelerr"
)

// Default tier sizing, carried over unchanged from the original allocator:
// 9 size classes starting at 32 bytes and doubling (32B .. 8KiB), 128 chunks
// per class.
const (
	AllocMin   = 32
	AllocSteps = 9
	AllocNum   = 128
)

// Arena is a single contiguous byte region bump-allocated from the front.
// It is the Go stand-in for the linker-provided heap region the original
// kernel bumps `heap_cur` through.
type Arena struct {
	buf    []byte
	cursor int
}

// NewArena allocates a zeroed arena of the given size.
func NewArena(size int) *Arena {
	return &Arena{buf: make([]byte, size)}
}

// Bump carves n bytes off the front of the arena, 4-byte aligning the next
// cursor position exactly as `smalloc` realigns `heap_cur`. It reports
// false, changing nothing, if the arena doesn't have room.
func (a *Arena) Bump(n int) ([]byte, bool) {
	if a.cursor+n > len(a.buf) {
		return nil, false
	}
	p := a.buf[a.cursor : a.cursor+n : a.cursor+n]
	a.cursor += n
	if rem := a.cursor % 4; rem != 0 {
		a.cursor += 4 - rem
	}
	return p, true
}

// Remaining reports how many bytes are left for Bump to hand out.
func (a *Arena) Remaining() int {
	return len(a.buf) - a.cursor
}

// slabClass is one of the nine fixed chunk-size free lists, the Go
// counterpart of `struct mem_desc`.
type slabClass struct {
	size      int
	start     uintptr
	end       uintptr
	free      []unsafe.Pointer
	freeCount int
	leastFree int
}

// Allocator is the two-tier allocator: Malloc/Free route to the slab tier
// once Init has carved it out of the arena; before that they fall back to
// the arena's bump allocator, mirroring `malloc()`'s
// `if (!dmalloc_enabled) return smalloc(size);` fallback. After Init, a
// request no class can satisfy fails instead of falling back.
type Allocator struct {
	arena   *Arena
	classes [AllocSteps]*slabClass
	enabled bool
}

// New wraps an arena with an allocator. Call Init to carve out the slab
// tier before relying on size-class reuse.
func New(arena *Arena) *Allocator {
	return &Allocator{arena: arena}
}

// Init carves AllocSteps size classes of AllocNum chunks each out of the
// arena via Bump, exactly as `mem_init` walks `mem_desc[]`. It must be
// called at most once; calling Malloc before Init is legal (bump fallback)
// but disables slab reuse for anything allocated that way.
func (a *Allocator) Init() error {
	if a.enabled {
		return kernelerr.New("memalloc.Init", kernelerr.CodeInvalidArgument, "allocator already initialized", nil)
	}

	for i := 0; i < AllocSteps; i++ {
		size := AllocMin << uint(i)
		cls := &slabClass{
			size:      size,
			free:      make([]unsafe.Pointer, 0, AllocNum),
			leastFree: AllocNum,
		}

		for j := 0; j < AllocNum; j++ {
			chunk, ok := a.arena.Bump(size)
			if !ok {
				return kernelerr.New("memalloc.Init", kernelerr.CodeResourceExhausted,
					"arena exhausted while carving slab classes", nil)
			}
			p := unsafe.Pointer(&chunk[0])
			if j == 0 {
				cls.start = uintptr(p)
			}
			if j == AllocNum-1 {
				cls.end = uintptr(p) + uintptr(size)
			}
			cls.free = append(cls.free, p)
		}
		cls.freeCount = AllocNum
		a.classes[i] = cls
	}

	a.enabled = true
	return nil
}

// Malloc returns a chunk of at least n bytes. Once the slab tier is
// enabled, the chunk comes from the smallest size class that fits and is
// returned to that class's free list on Free; a request too large for any
// class once the slab tier is enabled fails outright rather than falling
// back to the arena, matching `malloc()`'s `if (dmalloc_enabled) return
// NULL;` once dynamic allocation is live. Before Init, any request still
// falls back to the arena's bump allocator and can never be freed
// (matching `smalloc` semantics).
func (a *Allocator) Malloc(n int) ([]byte, error) {
	if a.enabled {
		for _, cls := range a.classes {
			if cls.size < n {
				continue
			}
			if cls.freeCount == 0 {
				continue
			}
			cls.freeCount--
			p := cls.free[cls.freeCount]
			cls.free = cls.free[:cls.freeCount]
			if cls.freeCount < cls.leastFree {
				cls.leastFree = cls.freeCount
			}
			return unsafe.Slice((*byte)(p), cls.size)[:n:cls.size], nil
		}
		return nil, kernelerr.New("memalloc.Malloc", kernelerr.CodeResourceExhausted, "no size class fits request", nil)
	}

	p, ok := a.arena.Bump(n)
	if !ok {
		return nil, kernelerr.New("memalloc.Malloc", kernelerr.CodeResourceExhausted, "out of memory", nil)
	}
	return p, nil
}

// Free returns p to the size class whose address range contains it.
// Pointers obtained from the bump-allocator fallback (or before Init) are
// silently ignored, matching `free()`'s behavior when `dmalloc_enabled` is
// false.
func (a *Allocator) Free(p []byte) {
	if !a.enabled || len(p) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(&p[0]))
	for _, cls := range a.classes {
		if addr >= cls.start && addr < cls.end {
			cls.free = append(cls.free, unsafe.Pointer(&p[0]))
			cls.freeCount++
			return
		}
	}
}

// ClassStats reports the diagnostic state of one size class, the Go
// counterpart of the values `kstat` reads out of `mem_desc[i]`.
type ClassStats struct {
	Size      int
	Capacity  int
	Free      int
	LeastFree int
}

// Stats returns per-class diagnostics in ascending size order, for
// exposure through the kstat syscall.
func (a *Allocator) Stats() []ClassStats {
	out := make([]ClassStats, 0, AllocSteps)
	for _, cls := range a.classes {
		if cls == nil {
			continue
		}
		out = append(out, ClassStats{
			Size:      cls.size,
			Capacity:  AllocNum,
			Free:      cls.freeCount,
			LeastFree: cls.leastFree,
		})
	}
	return out
}

// Enabled reports whether the slab tier has been carved out.
func (a *Allocator) Enabled() bool {
	return a.enabled
}
