package config

import (
	"fmt"
	"strings"
	"time"

	"evhandler/pkg/dispatch"
)

// Defaults for a bench run when neither file, env nor flags set a value.
const (
	DefaultListeners         = 4
	DefaultEventsPerListener = 2
	DefaultCallbacksPerEvent = 1
	DefaultQueueCapacity     = 1024
	DefaultProducers         = 2
	DefaultPushes            = 10000
	DefaultDrainTimeoutSec   = 10
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "auto"
)

// InvalidParameterError reports a configuration value that cannot be used.
type InvalidParameterError struct {
	Parameter string
	Reason    string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid configuration parameter %s: %s", e.Parameter, e.Reason)
}

// ApplyDefaults fills every unspecified field.
func (c *Config) ApplyDefaults() {
	if c.Listeners == 0 {
		c.Listeners = DefaultListeners
	}
	if c.EventsPerListener == 0 {
		c.EventsPerListener = DefaultEventsPerListener
	}
	if c.CallbacksPerEvent == 0 {
		c.CallbacksPerEvent = DefaultCallbacksPerEvent
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.Producers == 0 {
		c.Producers = DefaultProducers
	}
	if c.Pushes == 0 {
		c.Pushes = DefaultPushes
	}
	if c.DrainTimeoutSec == 0 {
		c.DrainTimeoutSec = DefaultDrainTimeoutSec
	}
	if c.ScanPolicy == "" {
		c.ScanPolicy = dispatch.ScanFirst.String()
	}
	if c.Ownership == "" {
		c.Ownership = dispatch.Owning.String()
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// Validate checks ranges and enumerations. It expects defaults applied.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"listeners", c.Listeners},
		{"events_per_listener", c.EventsPerListener},
		{"callbacks_per_event", c.CallbacksPerEvent},
		{"producers", c.Producers},
		{"pushes", c.Pushes},
		{"drain_timeout_sec", c.DrainTimeoutSec},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return &InvalidParameterError{Parameter: p.name, Reason: "must be positive"}
		}
	}
	if c.QueueCapacity < 0 {
		return &InvalidParameterError{Parameter: "queue_capacity", Reason: "must not be negative"}
	}
	if c.Rate < 0 {
		return &InvalidParameterError{Parameter: "rate", Reason: "must not be negative"}
	}
	if _, err := dispatch.ParseScanPolicy(c.ScanPolicy); err != nil {
		return &InvalidParameterError{Parameter: "scan_policy", Reason: err.Error()}
	}
	if _, err := dispatch.ParseOwnership(c.Ownership); err != nil {
		return &InvalidParameterError{Parameter: "ownership", Reason: err.Error()}
	}
	switch strings.ToLower(c.LogFormat) {
	case "auto", "json", "console":
	default:
		return &InvalidParameterError{Parameter: "log_format", Reason: "expected auto, json or console"}
	}
	return nil
}

// DrainTimeout returns DrainTimeoutSec as a duration.
func (c Config) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutSec) * time.Second
}

// Policy returns the parsed scan policy; call after Validate.
func (c Config) Policy() dispatch.ScanPolicy {
	p, _ := dispatch.ParseScanPolicy(c.ScanPolicy)
	return p
}

// Own returns the parsed ownership; call after Validate.
func (c Config) Own() dispatch.Ownership {
	o, _ := dispatch.ParseOwnership(c.Ownership)
	return o
}
