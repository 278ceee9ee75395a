// Package identity mints node identifiers of the form "<kind>-<n>".
//
// Each kind has its own counter starting at 1. Counters never decrease
// except through [Allocator.Reset], so an id is never handed out twice while
// the graph it belongs to lives.
package identity

import (
	"strconv"
	"strings"
	"sync"
)

// Allocator issues per-kind sequential ids. It is safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	counters map[string]int
}

// New returns an allocator with every counter at zero.
func New() *Allocator {
	return &Allocator{counters: make(map[string]int)}
}

// Next increments the counter for kind and returns the new id.
func (a *Allocator) Next(kind string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.counters == nil {
		a.counters = make(map[string]int)
	}
	a.counters[kind]++
	return Format(kind, a.counters[kind])
}

// Peek returns the current counter for kind without advancing it.
func (a *Allocator) Peek(kind string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters[kind]
}

// Observe raises the counter of id's kind so that id is never reissued.
// Ids that do not follow the "<kind>-<n>" form are ignored.
func (a *Allocator) Observe(id string) {
	kind, n, ok := Parse(id)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.counters == nil {
		a.counters = make(map[string]int)
	}
	if n > a.counters[kind] {
		a.counters[kind] = n
	}
}

// Reset returns every counter to zero.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters = make(map[string]int)
}

// Format builds the id for the n-th node of kind.
func Format(kind string, n int) string {
	return kind + "-" + strconv.Itoa(n)
}

// Parse splits an id into kind and sequence number.
// The kind is everything before the last dash; n must be a positive integer.
func Parse(id string) (kind string, n int, ok bool) {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 || i == len(id)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n <= 0 || id[i+1] == '+' {
		return "", 0, false
	}
	return id[:i], n, true
}
