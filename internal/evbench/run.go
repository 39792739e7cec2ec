package evbench

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"evhandler/internal/bench"
	"evhandler/internal/config"
	"evhandler/internal/httpapi"
	"evhandler/internal/metrics"
	"evhandler/pkg/dispatch"
)

// errNotDrained is returned when the run ended with undelivered items.
var errNotDrained = errors.New("run ended before every accepted item was dispatched")

type runOpts struct {
	listeners, events, callbacks int
	capacity, producers, pushes  int
	rate, drainTimeout           int
	scan, ownership              string
	metricsAddr                  string
	swagger                      bool
	corsOrigins                  []string
	hold                         bool
	jsonOut                      bool
	noColor                      bool
}

// overlay copies the flags the user set onto cfg.
func (o *runOpts) overlay(cfg *config.Config, fs *pflag.FlagSet) {
	set := func(name string, dst *int, v int) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("listeners", &cfg.Listeners, o.listeners)
	set("events", &cfg.EventsPerListener, o.events)
	set("callbacks", &cfg.CallbacksPerEvent, o.callbacks)
	set("capacity", &cfg.QueueCapacity, o.capacity)
	set("producers", &cfg.Producers, o.producers)
	set("pushes", &cfg.Pushes, o.pushes)
	set("rate", &cfg.Rate, o.rate)
	set("drain-timeout", &cfg.DrainTimeoutSec, o.drainTimeout)
	if fs.Changed("scan") {
		cfg.ScanPolicy = o.scan
	}
	if fs.Changed("ownership") {
		cfg.Ownership = o.ownership
	}
	if fs.Changed("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	}
	if fs.Changed("swagger") {
		cfg.Swagger = o.swagger
	}
	if fs.Changed("cors-origin") {
		cfg.CORSOrigins = o.corsOrigins
	}
}

func newRunCmd(g *globalOpts) *cobra.Command {
	o := &runOpts{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run producers against a handler of listeners and print a report",
		Example: "  evbench run --listeners 8 --pushes 100000\n" +
			"  evbench run --scan round-robin --rate 5000 --metrics-addr :9100 --hold",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), g, cmd.Flags(), o.overlay)
			if err != nil {
				return err
			}
			return runBench(cmd, cfg, o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.listeners, "listeners", config.DefaultListeners, "Number of listeners")
	f.IntVar(&o.events, "events", config.DefaultEventsPerListener, "Queues per listener")
	f.IntVar(&o.callbacks, "callbacks", config.DefaultCallbacksPerEvent, "Callbacks per queue")
	f.IntVar(&o.capacity, "capacity", config.DefaultQueueCapacity, "Queue capacity per event")
	f.IntVar(&o.producers, "producers", config.DefaultProducers, "Concurrent producers")
	f.IntVar(&o.pushes, "pushes", config.DefaultPushes, "Total broadcasts across producers")
	f.IntVar(&o.rate, "rate", 0, "Broadcasts per second across producers (0 = unpaced)")
	f.IntVar(&o.drainTimeout, "drain-timeout", config.DefaultDrainTimeoutSec, "Seconds to wait for listeners to drain")
	f.StringVar(&o.scan, "scan", dispatch.ScanFirst.String(), "Scan policy: first|round-robin")
	f.StringVar(&o.ownership, "ownership", dispatch.Owning.String(), "Handler ownership: owning|borrowing")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve /status, /metrics and probes on this address")
	f.BoolVar(&o.swagger, "swagger", false, "Serve the API docs under /swagger/")
	f.StringSliceVar(&o.corsOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable)")
	f.BoolVar(&o.hold, "hold", false, "Keep serving --metrics-addr after the run until interrupted")
	f.BoolVar(&o.jsonOut, "json", false, "Print the report as JSON")
	f.BoolVar(&o.noColor, "no-color", false, "Disable coloured output")
	return cmd
}

func runBench(cmd *cobra.Command, cfg config.Config, o *runOpts) error {
	log, closer, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()
	dispatch.SetLogger(log)
	httpapi.SetLogger(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := bench.New(cfg, log, metrics.NewPublisher(nil))
	if err != nil {
		return err
	}

	srvDone := make(chan error, 1)
	srvCtx, cancelSrv := context.WithCancel(ctx)
	defer cancelSrv()
	if cfg.MetricsAddr != "" {
		httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins, []string{"GET", "OPTIONS"}, []string{"Content-Type"})
		httpapi.SetSwaggerEnabled(cfg.Swagger)
		go func() { srvDone <- httpapi.Serve(srvCtx, cfg.MetricsAddr, httpapi.NewMux(runner)) }()
	} else {
		srvDone <- nil
	}

	rep, runErr := runner.Run(ctx)

	out := cmd.OutOrStdout()
	if o.jsonOut {
		if err := printReportJSON(out, rep); err != nil {
			return err
		}
	} else {
		printReport(out, rep, !o.noColor && isTTY(out))
	}

	if o.hold && cfg.MetricsAddr != "" && ctx.Err() == nil {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("holding status server; interrupt to exit")
		<-ctx.Done()
	}
	cancelSrv()
	if err := <-srvDone; err != nil {
		return fmt.Errorf("status server: %w", err)
	}

	if runErr != nil {
		return runErr
	}
	if !rep.Drained && ctx.Err() == nil {
		return errNotDrained
	}
	return nil
}
