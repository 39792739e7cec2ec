package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evhandler/pkg/types"
)

// syncBuffer is a bytes.Buffer safe to read while a child process writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	// this file: <root>/cmd/evbench/blackbox_test.go
	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("blackbox build skipped in -short mode")
	}
	root := projectRootFromThisFile(t)
	binPath := filepath.Join(t.TempDir(), "evbench")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/evbench")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "go build failed:\n%s", out)
	return binPath
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func waitHealthy(t *testing.T, base string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 50*time.Millisecond, "status server did not become healthy in time")
}

func TestBlackbox_RunJSON(t *testing.T) {
	bin := buildBinary(t)
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(bin, "run", "--listeners", "3", "--pushes", "40", "--json", "--log-format", "json")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	require.NoError(t, cmd.Run(), stderr.String())
	var rep types.RunReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rep), stdout.String())
	assert.EqualValues(t, 40, rep.Produced)
	assert.Equal(t, uint64(40*3*2), rep.Delivered)
	assert.True(t, rep.Drained)
}

func TestBlackbox_InvalidFlagExit2(t *testing.T) {
	bin := buildBinary(t)
	cmd := exec.Command(bin, "run", "--ownership", "shared")
	err := cmd.Run()
	var ee *exec.ExitError
	require.True(t, errors.As(err, &ee), "expected exit error, got %v", err)
	assert.Equal(t, 2, ee.ExitCode())
}

func TestBlackbox_HoldServesStatusUntilInterrupted(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("interrupt signal not supported on windows")
	}
	bin := buildBinary(t)
	port := findFreePort(t)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)

	stdout := &syncBuffer{}
	cmd := exec.Command(bin, "run", "--listeners", "2", "--pushes", "20", "--json", "--hold",
		"--metrics-addr", fmt.Sprintf("127.0.0.1:%d", port), "--log-level", "warn")
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start())
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	waitHealthy(t, base)

	// The run itself is short; wait for the report before probing.
	var rep types.RunReport
	require.Eventually(t, func() bool {
		return json.Unmarshal(stdout.Bytes(), &rep) == nil
	}, 10*time.Second, 25*time.Millisecond, "no report printed")

	resp, body := get(t, base+"/status")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var st types.HandlerStatus
	require.NoError(t, json.Unmarshal(body, &st), string(body))
	assert.False(t, st.Running)
	assert.Len(t, st.Listeners, 2)

	resp, _ = get(t, base+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, body = get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "evhandler_status_api_not_ready_total")

	require.NoError(t, cmd.Process.Signal(os.Interrupt))
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("process did not exit after interrupt")
	}
}
