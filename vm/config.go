package vm

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/risor-io/quarry/object"
	"github.com/rs/zerolog"
)

// Config holds the tunable engine settings. It is typically loaded by the
// command line from flags, environment and a config file.
type Config struct {
	RecursionLimit      int    `mapstructure:"recursion_limit" json:"recursion_limit"`
	FramePoolCapacity   int    `mapstructure:"frame_pool_capacity" json:"frame_pool_capacity"`
	PendingCallCapacity int    `mapstructure:"pending_call_capacity" json:"pending_call_capacity"`
	GCThreshold         int    `mapstructure:"gc_threshold" json:"gc_threshold"`
	LogLevel            string `mapstructure:"log_level" json:"log_level"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		RecursionLimit:      DefaultRecursionLimit,
		FramePoolCapacity:   DefaultFramePoolCapacity,
		PendingCallCapacity: DefaultPendingCallCapacity,
		GCThreshold:         object.DefaultThreshold,
		LogLevel:            "info",
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.RecursionLimit <= 0 {
		result = multierror.Append(result, fmt.Errorf("recursion_limit must be positive (got %d)", c.RecursionLimit))
	}
	if c.FramePoolCapacity < 0 {
		result = multierror.Append(result, fmt.Errorf("frame_pool_capacity must not be negative (got %d)", c.FramePoolCapacity))
	}
	if c.PendingCallCapacity <= 0 {
		result = multierror.Append(result, fmt.Errorf("pending_call_capacity must be positive (got %d)", c.PendingCallCapacity))
	}
	if c.GCThreshold < 0 {
		result = multierror.Append(result, fmt.Errorf("gc_threshold must not be negative (got %d)", c.GCThreshold))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("log_level: %w", err))
	}
	return result.ErrorOrNil()
}

// Options converts the settings to interpreter options.
func (c Config) Options() []Option {
	return []Option{
		WithRecursionLimit(c.RecursionLimit),
		WithFramePoolCapacity(c.FramePoolCapacity),
		WithPendingCallCapacity(c.PendingCallCapacity),
		WithCollectorThreshold(c.GCThreshold),
	}
}
