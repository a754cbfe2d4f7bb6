package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server's complete runtime configuration.
type Config struct {
	Host   string `yaml:"host"`   // listen address, "host:port"
	Width  int    `yaml:"width"`  // canvas width in pixels
	Height int    `yaml:"height"` // canvas height in pixels

	BinaryEnabled bool `yaml:"binary_enabled"` // accept the PB binary command
	MaxLineLen    int  `yaml:"max_line_len"`   // hard cap on a text command line, including '\n'

	InputBufferMaxBytes  int `yaml:"input_buffer_max_bytes"`  // per-connection input PipeBuf ceiling
	OutputBufferMaxBytes int `yaml:"output_buffer_max_bytes"` // per-connection output PipeBuf ceiling

	IdleTimeout time.Duration `yaml:"idle_timeout"` // 0 disables
	BWLimitBps  int           `yaml:"bw_limit_bps"` // per-connection read cap in bits/sec; 0 disables

	StatsScreenInterval time.Duration `yaml:"stats_screen_interval"`  // how often an external reporter should poll; 0 disables
	StatsSaveIntervalMS int           `yaml:"stats_save_interval_ms"` // legacy knob kept for external tooling; 0 disables

	SnapshotPath string `yaml:"snapshot_path"` // optional PNG path; loaded at startup, saved at shutdown
}

// Default returns the configuration used when no YAML overlay is supplied.
func Default() Config {
	return Config{
		Host:                 "0.0.0.0:1337",
		Width:                800,
		Height:               600,
		BinaryEnabled:        true,
		MaxLineLen:           64,
		InputBufferMaxBytes:  1 << 20, // 1 MiB
		OutputBufferMaxBytes: 4096,
		IdleTimeout:          0,
		BWLimitBps:           0,
		StatsScreenInterval:  time.Second,
		StatsSaveIntervalMS:  0,
	}
}

// Load builds a Config starting from Default() and, if path is non-empty,
// overlaying a YAML file on top of it — fields present in the file
// override the default, fields absent keep it. The result is validated
// before being returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if err := Validate(&cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate fills in any zero-valued fields left blank by a partial YAML
// overlay and rejects values that can never be valid server configuration.
func Validate(cfg *Config) error {
	if cfg.Host == "" {
		return fmt.Errorf("config: host must not be empty")
	}
	if cfg.Width <= 0 || cfg.Width > 0xFFFF {
		return fmt.Errorf("config: width must be in (0, 65535], got %d", cfg.Width)
	}
	if cfg.Height <= 0 || cfg.Height > 0xFFFF {
		return fmt.Errorf("config: height must be in (0, 65535], got %d", cfg.Height)
	}
	if cfg.MaxLineLen <= 0 {
		cfg.MaxLineLen = 64
	}
	if cfg.InputBufferMaxBytes <= 0 {
		cfg.InputBufferMaxBytes = 1 << 20
	}
	if cfg.OutputBufferMaxBytes <= 0 {
		cfg.OutputBufferMaxBytes = 4096
	}
	if cfg.IdleTimeout < 0 {
		return fmt.Errorf("config: idle_timeout must not be negative")
	}
	if cfg.BWLimitBps < 0 {
		return fmt.Errorf("config: bw_limit_bps must not be negative")
	}
	if cfg.StatsScreenInterval < 0 {
		return fmt.Errorf("config: stats_screen_interval must not be negative")
	}
	if cfg.StatsSaveIntervalMS < 0 {
		return fmt.Errorf("config: stats_save_interval_ms must not be negative")
	}
	return nil
}
