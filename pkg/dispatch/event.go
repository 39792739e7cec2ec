package dispatch

import (
	"sync"
	"sync/atomic"
)

// Event is the trigger/reset contract every event implements. Concrete events
// satisfy the unexported part by embedding Base.
type Event interface {
	// Trigger reports whether the event's callbacks should run. It must not
	// change the condition it reports on.
	Trigger() bool
	// Reset runs once after the callbacks of a dispatch and consumes the
	// condition that made Trigger return true.
	Reset()

	base() *Base
}

// waker is a listener's wake channel: a condition variable whose mutex also
// guards the listener's stop request.
type waker struct {
	mu   sync.Mutex
	cond *sync.Cond
}

func newWaker() *waker {
	w := &waker{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// signal wakes the single waiter, if any. Taking the mutex orders the wake
// after a waiter's predicate check, so a notification cannot fall between
// the check and the Wait.
func (w *waker) signal() {
	w.mu.Lock()
	w.cond.Signal()
	w.mu.Unlock()
}

// Base carries the wake binding of an event. Embed it by value.
type Base struct {
	w atomic.Pointer[waker]
}

func (b *Base) base() *Base { return b }

// Notify wakes the listener the event is registered with. Call it after every
// mutation that may make Trigger return true, and never while holding a lock
// that Trigger or Reset acquire.
func (b *Base) Notify() {
	if w := b.w.Load(); w != nil {
		w.signal()
	}
}

// Bound reports whether the event is registered with a listener.
func (b *Base) Bound() bool { return b.w.Load() != nil }

// bind points the event at w and returns the previous target.
func (b *Base) bind(w *waker) *waker { return b.w.Swap(w) }

// unbind clears the binding only if it still points at w.
func (b *Base) unbind(w *waker) { b.w.CompareAndSwap(w, nil) }
