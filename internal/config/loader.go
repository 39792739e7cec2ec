package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"evhandler/internal/common/fsutil"
)

// Config holds the parameters of a bench run and of the status surface.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Listeners         int `json:"listeners" yaml:"listeners" toml:"listeners" env:"EVBENCH_LISTENERS,overwrite"`
	EventsPerListener int `json:"events_per_listener" yaml:"events_per_listener" toml:"events_per_listener" env:"EVBENCH_EVENTS_PER_LISTENER,overwrite"`
	CallbacksPerEvent int `json:"callbacks_per_event" yaml:"callbacks_per_event" toml:"callbacks_per_event" env:"EVBENCH_CALLBACKS_PER_EVENT,overwrite"`
	// QueueCapacity bounds every event queue; 0 means unbounded.
	QueueCapacity int `json:"queue_capacity" yaml:"queue_capacity" toml:"queue_capacity" env:"EVBENCH_QUEUE_CAPACITY,overwrite"`
	Producers     int `json:"producers" yaml:"producers" toml:"producers" env:"EVBENCH_PRODUCERS,overwrite"`
	Pushes        int `json:"pushes" yaml:"pushes" toml:"pushes" env:"EVBENCH_PUSHES,overwrite"`
	// Rate caps broadcasts per second across all producers; 0 means unpaced.
	Rate            int    `json:"rate" yaml:"rate" toml:"rate" env:"EVBENCH_RATE,overwrite"`
	ScanPolicy      string `json:"scan_policy" yaml:"scan_policy" toml:"scan_policy" env:"EVBENCH_SCAN_POLICY,overwrite"`
	Ownership       string `json:"ownership" yaml:"ownership" toml:"ownership" env:"EVBENCH_OWNERSHIP,overwrite"`
	DrainTimeoutSec int    `json:"drain_timeout_sec" yaml:"drain_timeout_sec" toml:"drain_timeout_sec" env:"EVBENCH_DRAIN_TIMEOUT_SEC,overwrite"`

	MetricsAddr string   `json:"metrics_addr" yaml:"metrics_addr" toml:"metrics_addr" env:"EVBENCH_METRICS_ADDR,overwrite"`
	Swagger     bool     `json:"swagger" yaml:"swagger" toml:"swagger" env:"EVBENCH_SWAGGER,overwrite"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" env:"EVBENCH_CORS_ORIGINS,overwrite"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level" env:"EVBENCH_LOG_LEVEL,overwrite"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format" env:"EVBENCH_LOG_FORMAT,overwrite"`
	LogFile   string `json:"log_file" yaml:"log_file" toml:"log_file" env:"EVBENCH_LOG_FILE,overwrite"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyEnv overlays EVBENCH_* environment variables onto cfg. Unset
// variables leave the current value in place.
func ApplyEnv(ctx context.Context, cfg *Config) error {
	return envconfig.Process(ctx, cfg)
}

// applyEnvWith is ApplyEnv with an explicit lookuper, for tests.
func applyEnvWith(ctx context.Context, cfg *Config, l envconfig.Lookuper) error {
	return envconfig.ProcessWith(ctx, cfg, l)
}
