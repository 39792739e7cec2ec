package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"evhandler/pkg/types"
)

// Member is what a Handler coordinates. *Listener implements it.
type Member interface {
	Name() string
	Start() error
	Stop()
	Close() error
}

// statusReporter is implemented by members that can describe themselves.
type statusReporter interface {
	Status() types.ListenerStatus
}

// stopperContext is implemented by members whose stop can be bounded.
type stopperContext interface {
	StopContext(ctx context.Context) error
}

// stopRequester is implemented by members that can be asked to stop without
// waiting. *Listener implements it.
type stopRequester interface {
	requestStop()
}

// Handler starts and stops a group of listeners as a unit. Listeners are
// added while the handler is stopped; in Owning mode Cleanup also closes them.
type Handler struct {
	name string
	own  Ownership
	log  zerolog.Logger
	pub  Publisher

	mu          sync.Mutex // serializes Start, Stop, Cleanup and AddListener
	running     atomic.Bool
	stopPending bool // a bounded stop timed out; guarded by mu

	snapMu  sync.RWMutex // guards members for readers that must not wait on mu
	members []Member
}

// NewHandler creates a stopped handler with the given ownership.
func NewHandler(own Ownership) *Handler {
	return NewHandlerWithConfig(HandlerConfig{Ownership: own})
}

// NewHandlerWithConfig creates a stopped handler from cfg, applying defaults.
func NewHandlerWithConfig(cfg HandlerConfig) *Handler {
	name := cfg.Name
	if name == "" {
		name = nextHandlerName()
	}
	return &Handler{
		name: name,
		own:  cfg.Ownership,
		log:  loggerOr(cfg.Logger).With().Str("handler", name).Logger(),
		pub:  publisherOrNoop(cfg.Publisher),
	}
}

func (h *Handler) Name() string { return h.name }

func (h *Handler) Ownership() Ownership { return h.own }

// AddListener appends m to the group. While the handler is running the call
// is ignored and ErrHandlerRunning is returned.
func (h *Handler) AddListener(m Member) error {
	if m == nil {
		return ErrNilListener
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running.Load() {
		h.log.Debug().Str("listener", m.Name()).Msg("listener rejected while running")
		h.pub.Publish(LifecycleEvent{Name: EventListenerRejected, Listener: m.Name()})
		return ErrHandlerRunning
	}
	h.snapMu.Lock()
	h.members = append(h.members, m)
	h.snapMu.Unlock()
	return nil
}

// Start starts every listener in insertion order. It is a no-op while
// running. A listener that fails to start is logged and skipped.
func (h *Handler) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running.Load() {
		return
	}
	if h.stopPending {
		_ = h.stopLocked(context.Background())
	}
	h.running.Store(true)
	for _, m := range h.members {
		if err := m.Start(); err != nil {
			h.log.Warn().Err(err).Str("listener", m.Name()).Msg("listener failed to start")
			h.pub.Publish(LifecycleEvent{Name: EventListenerStartFailed, Listener: m.Name(), Fields: map[string]any{"error": err.Error()}})
		}
	}
	h.log.Debug().Int("listeners", len(h.members)).Msg("handler started")
	h.pub.Publish(LifecycleEvent{Name: EventHandlerStart, Fields: map[string]any{"handler": h.name, "listeners": len(h.members)}})
}

// Stop asks every listener to stop, then waits for each in insertion order.
// It is a no-op when stopped.
func (h *Handler) Stop() { _ = h.StopContext(context.Background()) }

// StopContext is Stop with a bound on the total wait. Every listener is asked
// to stop before any is waited on. On timeout the handler is marked stopped,
// the error is ctx.Err(), and the next Stop, Start or Cleanup finishes the
// wait.
func (h *Handler) StopContext(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopLocked(ctx)
}

func (h *Handler) stopLocked(ctx context.Context) error {
	if !h.running.Load() && !h.stopPending {
		return nil
	}
	h.running.Store(false)
	for _, m := range h.members {
		if r, ok := m.(stopRequester); ok {
			r.requestStop()
		}
	}
	for _, m := range h.members {
		if sc, ok := m.(stopperContext); ok {
			if err := sc.StopContext(ctx); err != nil {
				h.stopPending = true
				h.log.Warn().Err(err).Str("listener", m.Name()).Msg("handler stop interrupted")
				return err
			}
			continue
		}
		m.Stop()
	}
	h.stopPending = false
	h.log.Debug().Msg("handler stopped")
	h.pub.Publish(LifecycleEvent{Name: EventHandlerStop, Fields: map[string]any{"handler": h.name}})
	return nil
}

// Cleanup stops the group, closes every listener when the handler owns them,
// and empties the group. Close errors are aggregated. Cleanup is idempotent.
func (h *Handler) Cleanup() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.stopLocked(context.Background())

	var result *multierror.Error
	if h.own == Owning {
		for _, m := range h.members {
			if err := m.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	n := len(h.members)
	h.snapMu.Lock()
	h.members = nil
	h.snapMu.Unlock()
	if n > 0 {
		h.pub.Publish(LifecycleEvent{Name: EventHandlerCleanup, Fields: map[string]any{"handler": h.name, "listeners": n, "ownership": h.own.String()}})
	}
	return result.ErrorOrNil()
}

// Close tears the handler down: every listener goroutine has exited when it
// returns, and owned listeners are closed.
func (h *Handler) Close() error { return h.Cleanup() }

func (h *Handler) Running() bool { return h.running.Load() }

// Ready reports whether the handler is running; used by readiness probes.
func (h *Handler) Ready() bool { return h.Running() }

// Len returns the number of managed listeners.
func (h *Handler) Len() int {
	h.snapMu.RLock()
	defer h.snapMu.RUnlock()
	return len(h.members)
}

// Status returns a snapshot of the handler and its listeners. It does not
// wait for a Stop in progress.
func (h *Handler) Status() types.HandlerStatus {
	h.snapMu.RLock()
	members := append([]Member(nil), h.members...)
	h.snapMu.RUnlock()
	running := h.running.Load()

	st := types.HandlerStatus{
		Name:      h.name,
		Running:   running,
		Ownership: h.own.String(),
		Listeners: make([]types.ListenerStatus, 0, len(members)),
	}
	for _, m := range members {
		if sr, ok := m.(statusReporter); ok {
			st.Listeners = append(st.Listeners, sr.Status())
			continue
		}
		st.Listeners = append(st.Listeners, types.ListenerStatus{Name: m.Name()})
	}
	return st
}
