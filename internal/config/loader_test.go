package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "listeners: 8\nevents_per_listener: 3\nqueue_capacity: 16\nscan_policy: round-robin\ncors_origins:\n  - http://localhost:3000\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Listeners)
	assert.Equal(t, 3, cfg.EventsPerListener)
	assert.Equal(t, 16, cfg.QueueCapacity)
	assert.Equal(t, "round-robin", cfg.ScanPolicy)
	assert.Len(t, cfg.CORSOrigins, 1)
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"listeners":2,"producers":5,"pushes":100,"ownership":"borrowing","swagger":true}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Listeners)
	assert.Equal(t, 5, cfg.Producers)
	assert.Equal(t, 100, cfg.Pushes)
	assert.Equal(t, "borrowing", cfg.Ownership)
	assert.True(t, cfg.Swagger)
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "listeners=9\nrate=500\nmetrics_addr=\":9100\"\nlog_level=\"debug\"\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Listeners)
	assert.Equal(t, 500, cfg.Rate)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err, "empty path")
	p := writeTempFile(t, t.TempDir(), "cfg.txt", "not supported")
	_, err = Load(p)
	assert.Error(t, err, "unsupported extension")
}
