package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evhandler/internal/bench"
	"evhandler/internal/config"
	"evhandler/internal/httpapi"
	"evhandler/internal/metrics"
	"evhandler/pkg/dispatch"
	"evhandler/pkg/types"
)

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(b, v), "body=%s", b)
	}
	return resp.StatusCode
}

// TestStatusSurfaceFollowsRun wires a paced bench run to the HTTP surface and
// observes it while it runs and after it finishes.
func TestStatusSurfaceFollowsRun(t *testing.T) {
	cfg := config.Config{
		Listeners:         2,
		EventsPerListener: 2,
		Producers:         1,
		Pushes:            60,
		Rate:              200,
		ScanPolicy:        "round-robin",
	}
	mem := dispatch.NewMemoryPublisher()
	r, err := bench.New(cfg, zerolog.Nop(), metrics.NewPublisher(mem))
	require.NoError(t, err)

	srv := httptest.NewServer(httpapi.NewMux(r))
	defer srv.Close()

	require.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/readyz", nil))

	done := make(chan types.RunReport, 1)
	go func() {
		rep, err := r.Run(context.Background())
		assert.NoError(t, err)
		done <- rep
	}()

	require.Eventually(t, func() bool {
		return getJSON(t, srv.URL+"/readyz", nil) == http.StatusOK
	}, 2*time.Second, 5*time.Millisecond)

	var st types.HandlerStatus
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/status", &st))
	assert.True(t, st.Running)
	assert.Len(t, st.Listeners, 2)

	var ls types.ListenerStatus
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/status/listeners/worker-2", &ls))
	assert.Equal(t, dispatch.StateRunning, ls.State)
	assert.Equal(t, 2, ls.Events)

	var rep types.RunReport
	select {
	case rep = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}
	assert.True(t, rep.Drained)
	assert.Equal(t, uint64(240), rep.Delivered)

	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/status", &st))
	assert.False(t, st.Running)
	require.Len(t, st.Listeners, 2)
	assert.Equal(t, uint64(120), st.Listeners[0].Dispatched)
	assert.Equal(t, uint64(120), st.Listeners[1].Dispatched)
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/readyz", nil))

	assert.Equal(t, 240, mem.Count(dispatch.EventDispatch))
	assert.Equal(t, 1, mem.Count(dispatch.EventHandlerCleanup))
}
