package dispatch

import (
	"sync"
	"sync/atomic"
)

// Queue is a FIFO event. It triggers while non-empty and Reset pops the head,
// so a listener drains it one item per dispatch. Pushes beyond the capacity
// are dropped.
type Queue[T any] struct {
	Base

	mu       sync.Mutex
	items    []T
	capacity int
	dropped  atomic.Uint64

	reg    *Registry[*Queue[T]]
	closed atomic.Bool
}

// NewQueue creates a queue holding at most capacity items (unbounded when
// capacity <= 0) and adds it to reg when reg is not nil.
func NewQueue[T any](capacity int, reg *Registry[*Queue[T]]) *Queue[T] {
	q := &Queue[T]{capacity: capacity, reg: reg}
	if reg != nil {
		reg.Add(q)
	}
	return q
}

// Push appends v unless the queue is full and then notifies the listener.
// It reports whether v was accepted.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	ok := q.capacity <= 0 || len(q.items) < q.capacity
	if ok {
		q.items = append(q.items, v)
	}
	q.mu.Unlock()
	if !ok {
		q.dropped.Add(1)
	}
	q.Notify()
	return ok
}

// Front returns the head item without removing it.
func (q *Queue[T]) Front() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the configured capacity; 0 means unbounded.
func (q *Queue[T]) Cap() int {
	if q.capacity < 0 {
		return 0
	}
	return q.capacity
}

// Dropped returns how many pushes were rejected because the queue was full.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }

func (q *Queue[T]) Trigger() bool { return q.Len() > 0 }

// Reset pops the head item.
func (q *Queue[T]) Reset() {
	q.mu.Lock()
	if len(q.items) > 0 {
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
	}
	q.mu.Unlock()
}

// Close removes the queue from its registry. Pending items stay readable.
func (q *Queue[T]) Close() error {
	if q.closed.Swap(true) {
		return nil
	}
	if q.reg != nil {
		q.reg.Remove(q)
	}
	return nil
}

// Broadcast pushes v into every live queue of reg, in registry order, and
// returns how many accepted it.
func Broadcast[T any](reg *Registry[*Queue[T]], v T) int {
	n := 0
	reg.Each(func(q *Queue[T]) {
		if q.Push(v) {
			n++
		}
	})
	return n
}
