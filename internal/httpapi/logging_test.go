package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	assert.Equal(t, LevelDebug, requestLogLevel(r))
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	assert.Equal(t, LevelDebug, requestLogLevel(r))
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	assert.Equal(t, LevelError, requestLogLevel(r))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer func() { zlog = nil }()

	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/quiet?log=off", nil))
	assert.Zero(t, buf.Len(), "log=off must not log")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok?log=error", nil))
	assert.Zero(t, buf.Len(), "successful request must not log at error level")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom?log=error", nil))
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"level":"error"`)

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok?log=debug", nil))
	assert.Contains(t, buf.String(), `"user_agent"`)
	assert.Contains(t, buf.String(), `"path":"/ok"`)
}
