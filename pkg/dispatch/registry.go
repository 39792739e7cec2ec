package dispatch

import "sync"

// Registry is an ordered, non-owning set of the live instances of one event
// type. Event constructors add themselves and Close removes them, so a
// producer can reach every instance of a type without holding references.
type Registry[T comparable] struct {
	mu    sync.RWMutex
	items []T
}

func NewRegistry[T comparable]() *Registry[T] { return &Registry[T]{} }

// Add appends v. Adding an instance twice lists it twice.
func (r *Registry[T]) Add(v T) {
	r.mu.Lock()
	r.items = append(r.items, v)
	r.mu.Unlock()
}

// Remove deletes the first occurrence of v, keeping the order of the rest.
func (r *Registry[T]) Remove(v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it == v {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true
		}
	}
	return false
}

// Instances returns a snapshot of the live instances in insertion order.
func (r *Registry[T]) Instances() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Each calls fn for every instance of a snapshot, so fn may construct or
// close instances of the same type.
func (r *Registry[T]) Each(fn func(T)) {
	for _, v := range r.Instances() {
		fn(v)
	}
}
