package dispatch

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"evhandler/pkg/types"
)

// Callback runs on the listener goroutine when its event triggers.
type Callback func(Event)

// Listener states as reported by State.
const (
	StateStopped = "stopped"
	StateRunning = "running"
	StateFailed  = "failed"
)

// registration is one event with its callbacks in registration order.
type registration struct {
	ev        Event
	callbacks []Callback
}

// Listener owns a set of events and one goroutine that dispatches them.
// Events are registered before Start; the registration table is read by the
// goroutine without locking.
type Listener struct {
	name   string
	log    zerolog.Logger
	pub    Publisher
	policy ScanPolicy

	publishes bool // false for the no-op publisher; skips per-dispatch events

	w       *waker
	stopReq bool // guarded by w.mu

	regs []*registration
	byEv map[Event]*registration
	next int // round-robin cursor, dispatch goroutine only

	life    sync.Mutex // serializes Start, Stop, Close and registration
	running atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
	tasks   atomic.Int32

	// registration counts, readable without life
	nEvents    atomic.Int32
	nCallbacks atomic.Int32

	errMu sync.Mutex
	err   error

	dispatched   atomic.Uint64
	callbacksRun atomic.Uint64
}

// NewListener creates a stopped listener with default settings.
func NewListener(name string) *Listener {
	return NewListenerWithConfig(ListenerConfig{Name: name})
}

// NewListenerWithConfig creates a stopped listener from cfg, applying defaults.
func NewListenerWithConfig(cfg ListenerConfig) *Listener {
	name := cfg.Name
	if name == "" {
		name = nextListenerName()
	}
	pub := publisherOrNoop(cfg.Publisher)
	return &Listener{
		name:      name,
		log:       loggerOr(cfg.Logger).With().Str("listener", name).Logger(),
		pub:       pub,
		policy:    cfg.ScanPolicy,
		publishes: !isNoop(pub),
		w:         newWaker(),
		byEv:      make(map[Event]*registration),
	}
}

func (l *Listener) Name() string { return l.name }

// RegisterEvent appends cb to the callbacks of ev and binds ev's wake channel
// to this listener. If ev was bound to another listener, that listener is no
// longer woken for it.
func (l *Listener) RegisterEvent(ev Event, cb Callback) error {
	if ev == nil {
		return ErrNilEvent
	}
	if cb == nil {
		return ErrNilCallback
	}
	l.life.Lock()
	defer l.life.Unlock()
	if l.closed.Load() {
		return ErrListenerClosed
	}
	if l.running.Load() {
		return ErrListenerRunning
	}

	reg, ok := l.byEv[ev]
	if !ok {
		reg = &registration{ev: ev}
		l.byEv[ev] = reg
		l.regs = append(l.regs, reg)
		l.nEvents.Add(1)
	}
	reg.callbacks = append(reg.callbacks, cb)
	l.nCallbacks.Add(1)

	if prev := ev.base().bind(l.w); prev != nil && prev != l.w {
		l.log.Warn().Msg("event was bound to another listener; rebinding wake target")
		l.pub.Publish(LifecycleEvent{Name: EventRebound, Listener: l.name})
	}
	return nil
}

// On registers a callback typed to the concrete event.
func On[E Event](l *Listener, ev E, fn func(E)) error {
	if fn == nil {
		return ErrNilCallback
	}
	return l.RegisterEvent(ev, func(Event) { fn(ev) })
}

// Start launches the dispatch goroutine. It is a no-op while running.
func (l *Listener) Start() error {
	l.life.Lock()
	defer l.life.Unlock()
	if l.closed.Load() {
		return ErrListenerClosed
	}
	if l.running.Load() {
		return nil
	}
	l.w.mu.Lock()
	l.stopReq = false
	l.w.mu.Unlock()
	l.setErr(nil)

	done := make(chan struct{})
	l.done = done
	l.running.Store(true)
	l.tasks.Add(1)
	go l.loop(done)

	l.log.Debug().Int("events", len(l.regs)).Msg("listener started")
	l.pub.Publish(LifecycleEvent{Name: EventListenerStart, Listener: l.name, Fields: map[string]any{"events": len(l.regs)}})
	return nil
}

// Stop requests the goroutine to exit and waits until it has. It is a no-op
// when stopped. Stop must not be called from one of the listener's own
// callbacks.
func (l *Listener) Stop() { _ = l.StopContext(context.Background()) }

// StopContext is Stop with a bound on the wait. When ctx ends first it returns
// ctx.Err(); the stop request stays pending and the listener counts as running
// until a later stop observes the exit.
func (l *Listener) StopContext(ctx context.Context) error {
	l.life.Lock()
	defer l.life.Unlock()
	return l.stopLocked(ctx)
}

// requestStop asks the goroutine to exit without waiting for it.
func (l *Listener) requestStop() {
	if !l.running.Load() {
		return
	}
	l.w.mu.Lock()
	l.stopReq = true
	l.w.cond.Signal()
	l.w.mu.Unlock()
}

func (l *Listener) stopLocked(ctx context.Context) error {
	if !l.running.Load() {
		return nil
	}
	l.requestStop()

	select {
	case <-l.done:
	case <-ctx.Done():
		l.log.Warn().Err(ctx.Err()).Msg("listener stop interrupted; callback still in flight")
		return ctx.Err()
	}
	l.running.Store(false)
	l.log.Debug().Uint64("dispatched", l.dispatched.Load()).Msg("listener stopped")
	l.pub.Publish(LifecycleEvent{Name: EventListenerStop, Listener: l.name, Fields: map[string]any{"dispatched": l.dispatched.Load()}})
	return nil
}

// Close stops the listener and releases the events it owns: each event is
// unbound and, when it implements io.Closer, closed. Close is idempotent.
func (l *Listener) Close() error {
	l.life.Lock()
	defer l.life.Unlock()
	if l.closed.Load() {
		return nil
	}
	if err := l.stopLocked(context.Background()); err != nil {
		return err
	}
	l.closed.Store(true)

	var result *multierror.Error
	for _, reg := range l.regs {
		reg.ev.base().unbind(l.w)
		if c, ok := reg.ev.(io.Closer); ok {
			if err := c.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	l.regs = nil
	l.byEv = make(map[Event]*registration)
	l.nEvents.Store(0)
	l.nCallbacks.Store(0)
	return result.ErrorOrNil()
}

// Running reports whether the listener was started and not stopped since.
// A listener whose goroutine died from a callback panic is still running in
// this sense; see State. It does not wait for an in-progress Stop.
func (l *Listener) Running() bool { return l.running.Load() }

func (l *Listener) Closed() bool { return l.closed.Load() }

// State returns StateStopped, StateRunning or StateFailed.
func (l *Listener) State() string {
	if !l.running.Load() {
		return StateStopped
	}
	if l.Err() != nil {
		return StateFailed
	}
	return StateRunning
}

// Err returns the error that terminated the goroutine of the current run.
func (l *Listener) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.err
}

func (l *Listener) setErr(err error) {
	l.errMu.Lock()
	l.err = err
	l.errMu.Unlock()
}

// Status returns a snapshot for reporting. It never blocks on Stop.
func (l *Listener) Status() types.ListenerStatus {
	st := types.ListenerStatus{
		Name:         l.name,
		State:        l.State(),
		Events:       int(l.nEvents.Load()),
		Callbacks:    int(l.nCallbacks.Load()),
		Dispatched:   l.dispatched.Load(),
		CallbacksRun: l.callbacksRun.Load(),
	}
	if err := l.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}
