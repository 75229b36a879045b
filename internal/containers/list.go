// Package containers provides the intrusive, allocation-free data
// structures the rest of the kernel is built on: a doubly-linked ring used
// for task queues and free lists, and a bounded FIFO used wherever the
// original C kernel used a fixed-size circular buffer (wait queues, packet
// backlogs, UART rings).
package containers

// Node is an intrusive doubly-linked list node. Embed it in a struct to make
// that struct linkable without a separate allocation, mirroring the
// `struct list_head`-style links the scheduler and allocator use in C.
type Node struct {
	next, prev *Node
}

// Init makes n a single-element ring pointing to itself. Call this once
// before using n as a list head or before relinking a node removed from
// another list.
func (n *Node) Init() {
	n.next = n
	n.prev = n
}

// Empty reports whether n (used as a list head) has no linked elements.
func (n *Node) Empty() bool {
	return n.next == n
}

// InsertAfter links nn immediately after n.
func (n *Node) InsertAfter(nn *Node) {
	nn.prev = n
	nn.next = n.next
	n.next.prev = nn
	n.next = nn
}

// InsertBefore links nn immediately before n.
func (n *Node) InsertBefore(nn *Node) {
	n.prev.InsertAfter(nn)
}

// Remove unlinks n from whatever list it is part of and turns it back into
// a singleton ring. Removing an already-singleton node is a no-op.
func (n *Node) Remove() {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.Init()
}

// Next returns the node after n, or nil if n is a list head with no
// elements after it (i.e. the next node is n itself).
func (n *Node) Next() *Node {
	if n.next == n {
		return nil
	}
	return n.next
}

// RawNext returns the raw successor pointer, including a sentinel head.
// Callers that need to walk past a ring's head node (to implement a
// "start after cur, wrap around" scan, as the scheduler does) use this
// instead of Next, which hides the head.
func (n *Node) RawNext() *Node {
	return n.next
}

// ForEach walks the ring starting at the element after head, calling fn on
// every linked node. fn must not remove nodes other than the one it was
// called with.
func (n *Node) ForEach(fn func(*Node)) {
	for cur := n.next; cur != n; cur = cur.next {
		fn(cur)
	}
}
