// Package dispatch is an in-process event notification core. Producers mutate
// state owned by an event and call its Notify method; each Listener runs one
// background goroutine that sleeps on a condition variable until one of its
// events triggers, runs the callbacks registered for that event in order, and
// resets it. A Handler starts, stops and tears down a group of listeners.
//
// The package is split into small files by concern:
//
//   - event.go: Event contract, Base (wake binding, Notify).
//   - registry.go: Registry, the explicit per-type instance registry.
//   - queue.go, flag.go: ready-made event variants.
//   - listener.go: Listener registration and lifecycle.
//   - loop.go: the wait/scan/dispatch goroutine.
//   - handler.go: Handler group lifecycle and ownership.
//   - config.go: ListenerConfig, HandlerConfig and defaults.
//   - errors.go: sentinel errors and CallbackPanicError.
//   - lifecycle.go, publisher_memory.go: lifecycle event publishing.
//
// Event authors embed Base and implement Trigger and Reset:
//
//	type KeyEvent struct {
//		dispatch.Base
//		mu   sync.Mutex
//		keys []rune
//	}
//
// Trigger must not change the state it reports on, and Reset must make a
// following Trigger return false once the pending work is consumed; an event
// whose Reset never clears its condition keeps its listener busy forever.
// Producers call Notify after every mutation and never while holding the
// event's own lock.
//
// Listeners are wired before they start:
//
//	l := dispatch.NewListener("keys")
//	ev := dispatch.NewQueue[rune](4, keys)
//	_ = dispatch.On(l, ev, func(q *dispatch.Queue[rune]) { r, _ := q.Front(); fmt.Println(string(r)) })
//
//	h := dispatch.NewHandler(dispatch.Owning)
//	_ = h.AddListener(l)
//	h.Start()
//	defer h.Close()
//
// Registering one event with two listeners rebinds its wake target to the
// last listener; the first one is no longer woken for it. A callback that
// never returns blocks Stop, Cleanup and Close indefinitely.
package dispatch
