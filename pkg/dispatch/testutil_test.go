package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// waitFor polls cond until it holds or two seconds pass.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, time.Millisecond, "timed out waiting for %s", what)
}

// recorder collects values from callbacks running on listener goroutines.
type recorder[T any] struct {
	mu   sync.Mutex
	vals []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.vals = append(r.vals, v)
	r.mu.Unlock()
}

func (r *recorder[T]) get() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.vals))
	copy(out, r.vals)
	return out
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vals)
}

// countingEvent triggers once per Push and counts resets.
type countingEvent struct {
	Base
	mu      sync.Mutex
	pending int
	resets  int
}

func (c *countingEvent) Push() {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	c.Notify()
}

func (c *countingEvent) Trigger() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending > 0
}

func (c *countingEvent) Reset() {
	c.mu.Lock()
	c.pending--
	c.resets++
	c.mu.Unlock()
}

func (c *countingEvent) Resets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resets
}
