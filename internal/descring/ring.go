// Package descring implements a fixed-depth descriptor/status ring with
// batched submission and a per-tag state machine: the same shape the
// teacher built on top of io_uring (Ring.Submit/Flush/WaitForCompletion,
// Batch), reincarnated over an in-process simulated ring instead of a
// kernel uring, since this target has no Linux uring to submit to. The
// Ethernet MAC driver's RX and TX descriptor rings are both one of these.
package descring

import (
	"sync"
	"time"

	"github.com/erenright/ertos/kernelerr"
)

// State is a descriptor's position in its lifecycle: free, staged
// (prepared but not yet flushed to the "device"), submitted (visible to
// the simulated hardware, awaiting completion), or complete (result ready
// to be collected, descriptor not yet released for reuse).
type State int

const (
	StateFree State = iota
	StatePrepared
	StateSubmitted
	StateComplete
)

// Result is one completed descriptor's outcome.
type Result struct {
	Tag uint32
	Len int
	Err error
}

// Ring is a fixed-depth descriptor ring. Depth descriptors are identified
// by tag, 0..depth-1.
type Ring struct {
	mu          sync.Mutex
	depth       int
	state       []State
	prepared    []uint32
	completions chan Result
}

// New allocates a ring with room for depth in-flight descriptors.
func New(depth int) *Ring {
	return &Ring{
		depth:       depth,
		state:       make([]State, depth),
		completions: make(chan Result, depth),
	}
}

// Depth returns the ring's fixed descriptor count.
func (r *Ring) Depth() int {
	return r.depth
}

// Prepare stages tag for submission without making it visible to the
// simulated hardware yet, the counterpart of PrepareIOCmd. Multiple
// Prepare calls can be batched before a single Flush.
func (r *Ring) Prepare(tag uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(tag) >= r.depth {
		return kernelerr.New("descring.Prepare", kernelerr.CodeInvalidArgument, "tag out of range", nil)
	}
	if r.state[tag] != StateFree {
		return kernelerr.New("descring.Prepare", kernelerr.CodeResourceExhausted, "descriptor busy", nil)
	}
	r.state[tag] = StatePrepared
	r.prepared = append(r.prepared, tag)
	return nil
}

// Flush submits every prepared descriptor in one batch, the counterpart
// of FlushSubmissions, and returns how many were submitted.
func (r *Ring) Flush() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.prepared)
	for _, tag := range r.prepared {
		r.state[tag] = StateSubmitted
	}
	r.prepared = r.prepared[:0]
	return n
}

// Complete is called by the simulated hardware backend when a submitted
// descriptor finishes (an RX buffer was filled, or a TX buffer was
// drained onto the wire). A Complete for a tag not in StateSubmitted is
// dropped rather than corrupting the state machine.
func (r *Ring) Complete(tag uint32, length int, err error) {
	r.mu.Lock()
	if int(tag) >= r.depth || r.state[tag] != StateSubmitted {
		r.mu.Unlock()
		return
	}
	r.state[tag] = StateComplete
	r.mu.Unlock()
	r.completions <- Result{Tag: tag, Len: length, Err: err}
}

// WaitForCompletion blocks up to timeout for at least one completion,
// then drains every completion already queued without blocking further.
// Every returned descriptor is released back to StateFree; callers that
// want to reuse a tag (e.g. requeue an RX buffer) must Prepare it again.
func (r *Ring) WaitForCompletion(timeout time.Duration) []Result {
	var out []Result
	select {
	case res := <-r.completions:
		out = append(out, res)
	case <-time.After(timeout):
		return out
	}
drain:
	for {
		select {
		case res := <-r.completions:
			out = append(out, res)
		default:
			break drain
		}
	}
	r.mu.Lock()
	for _, res := range out {
		r.state[res.Tag] = StateFree
	}
	r.mu.Unlock()
	return out
}

// Poll drains every completion currently queued without blocking,
// releasing each returned descriptor back to StateFree. Used by
// interrupt handlers that must never park waiting for a completion.
func (r *Ring) Poll() []Result {
	var out []Result
drain:
	for {
		select {
		case res := <-r.completions:
			out = append(out, res)
		default:
			break drain
		}
	}
	r.mu.Lock()
	for _, res := range out {
		r.state[res.Tag] = StateFree
	}
	r.mu.Unlock()
	return out
}

// Release forces tag back to StateFree, used to recover a descriptor
// whose submission never produced a completion (e.g. ring teardown).
func (r *Ring) Release(tag uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[tag] = StateFree
}

// StateOf reports tag's current lifecycle state.
func (r *Ring) StateOf(tag uint32) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state[tag]
}
