// Package config provides configuration and CLI argument parsing for the
// nightjar engine demo process.
package config

import (
	"flag"
	"fmt"
)

// Config holds all configuration for the demo process. Populated from CLI
// flags or defaults.
type Config struct {
	// RecordPath is where StartRecording writes the next capture.
	RecordPath string

	// AwaitFirstBufferMs bounds how long the demo waits for the capture
	// pipeline to confirm it is delivering samples before giving up.
	AwaitFirstBufferMs int64

	// Verbose holds the -verbose flag. No code in this module reads it, so
	// it does not change any logging.
	Verbose bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RecordPath:         "take.wav",
		AwaitFirstBufferMs: 2000,
		Verbose:            false,
	}
}

// ParseFlags parses command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()

	flag.StringVar(&cfg.RecordPath, "record-path", cfg.RecordPath, "WAV file to write when recording")
	flag.Int64Var(&cfg.AwaitFirstBufferMs, "await-first-buffer-ms", cfg.AwaitFirstBufferMs, "timeout in ms waiting for the capture pipeline to go hot")
	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "verbose flag (has no effect on logging)")

	flag.Parse()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RecordPath == "" {
		return fmt.Errorf("record-path must not be empty")
	}
	if c.AwaitFirstBufferMs <= 0 {
		return fmt.Errorf("await-first-buffer-ms must be positive")
	}
	return nil
}
