// Package bench drives a dispatch.Handler with concurrent producers and
// reports what was delivered. It is the engine behind `evbench run`.
package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"

	"evhandler/internal/config"
	"evhandler/internal/metrics"
	"evhandler/pkg/dispatch"
	"evhandler/pkg/types"
)

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("bench: runner already used")

// drainPoll is how often Run checks whether every accepted item was dispatched.
const drainPoll = 5 * time.Millisecond

// Runner owns one handler, its listeners and their queues for a single run.
type Runner struct {
	cfg config.Config
	log zerolog.Logger

	reg       *dispatch.Registry[*dispatch.Queue[int]]
	handler   *dispatch.Handler
	listeners []*dispatch.Listener
	queues    []*dispatch.Queue[int]

	// checksum of every value observed by a callback
	seen atomic.Int64

	once sync.Once
}

// New validates cfg and builds the listener topology: cfg.Listeners
// listeners, each owning cfg.EventsPerListener queues with
// cfg.CallbacksPerEvent callbacks, all queues in one registry.
func New(cfg config.Config, log zerolog.Logger, pub dispatch.Publisher) (*Runner, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg: cfg,
		log: log.With().Str("component", "bench").Logger(),
		reg: dispatch.NewRegistry[*dispatch.Queue[int]](),
	}
	r.handler = dispatch.NewHandlerWithConfig(dispatch.HandlerConfig{
		Name:      "bench",
		Ownership: cfg.Own(),
		Logger:    &log,
		Publisher: pub,
	})
	for i := 0; i < cfg.Listeners; i++ {
		l := dispatch.NewListenerWithConfig(dispatch.ListenerConfig{
			Name:       fmt.Sprintf("worker-%d", i+1),
			ScanPolicy: cfg.Policy(),
			Logger:     &log,
			Publisher:  pub,
		})
		for e := 0; e < cfg.EventsPerListener; e++ {
			q := dispatch.NewQueue[int](cfg.QueueCapacity, r.reg)
			for c := 0; c < cfg.CallbacksPerEvent; c++ {
				if err := dispatch.On(l, q, r.observe); err != nil {
					return nil, err
				}
			}
			r.queues = append(r.queues, q)
		}
		if err := r.handler.AddListener(l); err != nil {
			return nil, err
		}
		r.listeners = append(r.listeners, l)
	}
	return r, nil
}

func (r *Runner) observe(q *dispatch.Queue[int]) {
	if v, ok := q.Front(); ok {
		r.seen.Add(int64(v))
	}
}

// Handler exposes the handler, for the status surface.
func (r *Runner) Handler() *dispatch.Handler { return r.handler }

// Queues returns the number of queues in the run.
func (r *Runner) Queues() int { return len(r.queues) }

// Run starts the handler, produces cfg.Pushes broadcasts, waits for the
// listeners to drain and tears everything down. A canceled ctx stops the
// producers early; the report then covers what was produced so far.
func (r *Runner) Run(ctx context.Context) (types.RunReport, error) {
	err := ErrAlreadyRun
	var rep types.RunReport
	r.once.Do(func() { rep, err = r.run(ctx) })
	return rep, err
}

func (r *Runner) run(ctx context.Context) (types.RunReport, error) {
	rep := types.RunReport{
		RunID:     uuid.NewString(),
		Listeners: len(r.listeners),
		Events:    len(r.queues),
		Producers: r.cfg.Producers,
	}
	log := r.log.With().Str("run_id", rep.RunID).Logger()
	log.Info().Int("listeners", rep.Listeners).Int("events", rep.Events).Int("producers", rep.Producers).
		Int("pushes", r.cfg.Pushes).Str("scan", r.cfg.ScanPolicy).Msg("bench run starting")

	start := time.Now()
	r.handler.Start()

	var produced, accepted, dropped atomic.Int64
	limiter := ratelimit.NewUnlimited()
	if r.cfg.Rate > 0 {
		limiter = ratelimit.New(r.cfg.Rate)
	}
	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < r.cfg.Producers; p++ {
		n := r.cfg.Pushes / r.cfg.Producers
		if p < r.cfg.Pushes%r.cfg.Producers {
			n++
		}
		base := p * (r.cfg.Pushes/r.cfg.Producers + 1)
		g.Go(func() error {
			for i := 0; i < n; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				limiter.Take()
				ok := dispatch.Broadcast(r.reg, base+i)
				produced.Add(1)
				accepted.Add(int64(ok))
				dropped.Add(int64(len(r.queues) - ok))
				metrics.RecordPushes(ok, len(r.queues)-ok)
			}
			return nil
		})
	}
	prodErr := g.Wait()
	if prodErr != nil {
		log.Warn().Err(prodErr).Msg("producers interrupted")
	}

	rep.Produced = int(produced.Load())
	rep.Accepted = int(accepted.Load())
	rep.Dropped = int(dropped.Load())
	rep.Drained = r.drain(ctx, uint64(rep.Accepted))
	rep.Elapsed = time.Since(start)
	if !rep.Drained {
		log.Warn().Uint64("delivered", r.delivered()).Int("accepted", rep.Accepted).Msg("drain incomplete")
	}

	var result *multierror.Error
	if err := r.handler.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if r.handler.Ownership() == dispatch.Borrowing {
		for _, l := range r.listeners {
			if err := l.Close(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	for _, l := range r.listeners {
		st := l.Status()
		rep.Delivered += st.Dispatched
		rep.Callbacks += st.CallbacksRun
		if st.Error != "" {
			result = multierror.Append(result, fmt.Errorf("listener %s: %s", st.Name, st.Error))
		}
	}
	if prodErr != nil && !errors.Is(prodErr, context.Canceled) {
		result = multierror.Append(result, prodErr)
	}

	log.Info().Uint64("delivered", rep.Delivered).Int("dropped", rep.Dropped).Dur("elapsed", rep.Elapsed).
		Bool("drained", rep.Drained).Msg("bench run finished")
	return rep, result.ErrorOrNil()
}

// drain waits until want items were dispatched, the drain timeout elapses or
// ctx ends. It reports whether everything was dispatched.
func (r *Runner) drain(ctx context.Context, want uint64) bool {
	deadline := time.NewTimer(r.cfg.DrainTimeout())
	defer deadline.Stop()
	tick := time.NewTicker(drainPoll)
	defer tick.Stop()
	for {
		if r.delivered() >= want {
			return true
		}
		select {
		case <-tick.C:
		case <-deadline.C:
			return r.delivered() >= want
		case <-ctx.Done():
			return r.delivered() >= want
		}
	}
}

func (r *Runner) delivered() uint64 {
	var n uint64
	for _, l := range r.listeners {
		n += l.Status().Dispatched
	}
	return n
}

// Checksum returns the sum of every value seen by a callback. Each value is
// counted once per callback that observed it.
func (r *Runner) Checksum() int64 { return r.seen.Load() }

// Status reports the handler state with every listener of the run, including
// listeners the handler has already released after cleanup.
func (r *Runner) Status() types.HandlerStatus {
	st := types.HandlerStatus{
		Name:      r.handler.Name(),
		Running:   r.handler.Running(),
		Ownership: r.handler.Ownership().String(),
		Listeners: make([]types.ListenerStatus, 0, len(r.listeners)),
	}
	for _, l := range r.listeners {
		st.Listeners = append(st.Listeners, l.Status())
	}
	return st
}

// Ready reports whether the handler is running.
func (r *Runner) Ready() bool { return r.handler.Ready() }
