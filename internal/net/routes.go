package net

import (
	"sync"

	"github.com/erenright/ertos/internal/eth"
)

// Route is one routing table entry: destination network, netmask,
// metric, and the outgoing interface.
type Route struct {
	Dest    [4]byte
	Mask    [4]byte
	Metric  int
	Iface   *eth.Interface
	Gateway [4]byte // zero value means "directly connected"
}

func (r Route) matches(ip [4]byte) bool {
	for i := 0; i < 4; i++ {
		if ip[i]&r.Mask[i] != r.Dest[i]&r.Mask[i] {
			return false
		}
	}
	return true
}

func maskLen(mask [4]byte) int {
	n := 0
	for _, b := range mask {
		for b != 0 {
			n += int(b & 1)
			b >>= 1
		}
	}
	return n
}

// RouteTable is a slice of routes, consulted by longest-prefix,
// lowest-metric match. An RWMutex guards it: Add takes the write lock and
// Lookup the read lock. Routes are only ever appended; there is no
// delete.
type RouteTable struct {
	mu     sync.RWMutex
	routes []Route
}

// NewRouteTable returns an empty table.
func NewRouteTable() *RouteTable {
	return &RouteTable{}
}

// Add appends a route.
func (t *RouteTable) Add(r Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, r)
}

// Lookup finds the longest-prefix, lowest-metric route for dst. It
// returns ok=false if no route matches.
func (t *RouteTable) Lookup(dst [4]byte) (Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var best Route
	found := false
	bestLen := -1
	for _, r := range t.routes {
		if !r.matches(dst) {
			continue
		}
		l := maskLen(r.Mask)
		if !found || l > bestLen || (l == bestLen && r.Metric < best.Metric) {
			best = r
			bestLen = l
			found = true
		}
	}
	return best, found
}
