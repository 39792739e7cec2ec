// Package metrics exports dispatch activity as Prometheus collectors. The
// collectors are registered with the default registry at init, so the
// process-wide /metrics handler exposes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"evhandler/pkg/dispatch"
)

const namespace = "evhandler"

var (
	dispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "dispatches_total",
			Help:      "Dispatch cycles completed per listener",
		},
		[]string{"listener"},
	)

	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "callbacks_total",
			Help:      "Callbacks run per listener",
		},
		[]string{"listener"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Time spent running the callbacks of one dispatch cycle",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"listener"},
	)

	listenerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "failures_total",
			Help:      "Listener goroutines terminated by a callback panic",
		},
		[]string{"listener"},
	)

	runningListeners = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "running",
			Help:      "Listeners started and not yet stopped",
		},
	)

	lifecycleEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "events_total",
			Help:      "Lifecycle events published by listeners and handlers",
		},
		[]string{"name"},
	)

	pushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "pushes_total",
			Help:      "Queue pushes by result (accepted or dropped)",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		dispatchesTotal,
		callbacksTotal,
		dispatchDuration,
		listenerFailuresTotal,
		runningListeners,
		lifecycleEventsTotal,
		pushesTotal,
	)
}

// RecordPush counts one queue push.
func RecordPush(accepted bool) {
	if accepted {
		pushesTotal.WithLabelValues("accepted").Inc()
		return
	}
	pushesTotal.WithLabelValues("dropped").Inc()
}

// RecordPushes counts a batch of pushes, such as the result of a broadcast.
func RecordPushes(accepted, dropped int) {
	if accepted > 0 {
		pushesTotal.WithLabelValues("accepted").Add(float64(accepted))
	}
	if dropped > 0 {
		pushesTotal.WithLabelValues("dropped").Add(float64(dropped))
	}
}

// Publisher turns lifecycle events into metric updates and forwards them to
// an optional next publisher.
type Publisher struct {
	next dispatch.Publisher
}

// NewPublisher returns a Publisher forwarding to next (which may be nil).
func NewPublisher(next dispatch.Publisher) *Publisher {
	return &Publisher{next: next}
}

func (p *Publisher) Publish(e dispatch.LifecycleEvent) {
	lifecycleEventsTotal.WithLabelValues(e.Name).Inc()
	switch e.Name {
	case dispatch.EventDispatch:
		dispatchesTotal.WithLabelValues(e.Listener).Inc()
		if n, ok := e.Fields["callbacks"].(int); ok {
			callbacksTotal.WithLabelValues(e.Listener).Add(float64(n))
		}
		if d, ok := e.Fields["duration"].(time.Duration); ok {
			dispatchDuration.WithLabelValues(e.Listener).Observe(d.Seconds())
		}
	case dispatch.EventListenerStart:
		runningListeners.Inc()
	case dispatch.EventListenerStop:
		runningListeners.Dec()
	case dispatch.EventListenerFailed:
		listenerFailuresTotal.WithLabelValues(e.Listener).Inc()
	}
	if p.next != nil {
		p.next.Publish(e)
	}
}
