package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evhandler/pkg/dispatch"
)

func TestPublisherCountsDispatches(t *testing.T) {
	mem := dispatch.NewMemoryPublisher()
	p := NewPublisher(mem)

	before := testutil.ToFloat64(dispatchesTotal.WithLabelValues("m-dispatch"))
	cbBefore := testutil.ToFloat64(callbacksTotal.WithLabelValues("m-dispatch"))
	for i := 0; i < 3; i++ {
		p.Publish(dispatch.LifecycleEvent{
			Name:     dispatch.EventDispatch,
			Listener: "m-dispatch",
			Fields:   map[string]any{"callbacks": 2, "duration": time.Millisecond},
		})
	}
	assert.Equal(t, before+3, testutil.ToFloat64(dispatchesTotal.WithLabelValues("m-dispatch")))
	assert.Equal(t, cbBefore+6, testutil.ToFloat64(callbacksTotal.WithLabelValues("m-dispatch")))
	assert.Equal(t, 3, mem.Count(dispatch.EventDispatch), "events are forwarded")
}

func TestPublisherTracksRunningListeners(t *testing.T) {
	p := NewPublisher(nil)
	base := testutil.ToFloat64(runningListeners)
	p.Publish(dispatch.LifecycleEvent{Name: dispatch.EventListenerStart, Listener: "m-run"})
	p.Publish(dispatch.LifecycleEvent{Name: dispatch.EventListenerStart, Listener: "m-run2"})
	assert.Equal(t, base+2, testutil.ToFloat64(runningListeners))
	p.Publish(dispatch.LifecycleEvent{Name: dispatch.EventListenerStop, Listener: "m-run"})
	assert.Equal(t, base+1, testutil.ToFloat64(runningListeners))

	failBefore := testutil.ToFloat64(listenerFailuresTotal.WithLabelValues("m-run2"))
	p.Publish(dispatch.LifecycleEvent{Name: dispatch.EventListenerFailed, Listener: "m-run2"})
	assert.Equal(t, failBefore+1, testutil.ToFloat64(listenerFailuresTotal.WithLabelValues("m-run2")))
	p.Publish(dispatch.LifecycleEvent{Name: dispatch.EventListenerStop, Listener: "m-run2"})
	assert.Equal(t, base, testutil.ToFloat64(runningListeners))
}

func TestRecordPushes(t *testing.T) {
	acc := testutil.ToFloat64(pushesTotal.WithLabelValues("accepted"))
	drop := testutil.ToFloat64(pushesTotal.WithLabelValues("dropped"))
	RecordPush(true)
	RecordPush(false)
	RecordPushes(4, 0)
	RecordPushes(0, 2)
	assert.Equal(t, acc+5, testutil.ToFloat64(pushesTotal.WithLabelValues("accepted")))
	assert.Equal(t, drop+3, testutil.ToFloat64(pushesTotal.WithLabelValues("dropped")))
}

func TestListenerActivityIsExported(t *testing.T) {
	l := dispatch.NewListenerWithConfig(dispatch.ListenerConfig{Name: "m-live", Publisher: NewPublisher(nil)})
	f := dispatch.NewFlag(nil)
	require.NoError(t, l.RegisterEvent(f, func(dispatch.Event) {}))
	require.NoError(t, l.Start())
	f.Raise()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(dispatchesTotal.WithLabelValues("m-live")) == 1
	}, 2*time.Second, time.Millisecond)
	require.NoError(t, l.Close())

	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, bytes.Contains(rr.Body.Bytes(), []byte("evhandler_dispatch_dispatches_total")))
}
