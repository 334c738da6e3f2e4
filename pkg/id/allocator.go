// Package id issues process-wide unique identifiers scoped by entity kind.
//
// Identifiers have the form "<kind>_<n>" (object_1, process_2, link_7). Each
// kind owns its own counter so identifiers stay human-legible per entity
// type. Counters are strictly increasing for the lifetime of the allocator
// and values are never reused, even after the entity they named has been
// deleted.
package id

import (
	"fmt"
	"strconv"
	"strings"
)

// Allocator hands out monotonically increasing identifiers per kind.
// It follows the engine's single-threaded mutation discipline and is not
// safe for concurrent use.
type Allocator struct {
	next map[string]uint64
}

// NewAllocator returns an allocator whose first identifier for every kind
// is "<kind>_1".
func NewAllocator() *Allocator {
	return &Allocator{next: make(map[string]uint64)}
}

// Next returns an identifier strictly greater (by sequence number) than
// every identifier ever issued for the given kind by this allocator.
func (a *Allocator) Next(kind string) string {
	a.next[kind]++
	return fmt.Sprintf("%s_%d", kind, a.next[kind])
}

// Bump raises the counter for kind so that the next issued identifier has a
// sequence number strictly greater than floor. Lower floors are ignored;
// Bump never rewinds. Import uses this to re-derive counters as the maximum
// existing sequence number per kind.
func (a *Allocator) Bump(kind string, floor uint64) {
	if a.next[kind] < floor {
		a.next[kind] = floor
	}
}

// Observe bumps the counter for the kind encoded in an existing identifier,
// so that future allocations cannot collide with it. Identifiers that do not
// carry a numeric suffix are ignored.
func (a *Allocator) Observe(identifier string) {
	kind, n, ok := Split(identifier)
	if ok {
		a.Bump(kind, n)
	}
}

// Split decomposes an identifier into its kind prefix and sequence number.
func Split(identifier string) (kind string, n uint64, ok bool) {
	i := strings.LastIndexByte(identifier, '_')
	if i <= 0 || i == len(identifier)-1 {
		return "", 0, false
	}
	num, err := strconv.ParseUint(identifier[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return identifier[:i], num, true
}
