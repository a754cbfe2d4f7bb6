package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixelflut/internal/config"
	"pixelflut/internal/listener"
	"pixelflut/internal/pixmap"
	"pixelflut/internal/snapshot"
	"pixelflut/internal/stats"
)

func main() {
	os.Exit(run())
}

func run() int {
	host := flag.String("host", "", "listen address HOST:PORT (overrides config)")
	width := flag.Int("width", 0, "canvas width in pixels (overrides config)")
	height := flag.Int("height", 0, "canvas height in pixels (overrides config)")
	noBinary := flag.Bool("no-binary", false, "disable the PB binary command")
	configPath := flag.String("config", "", "path to an optional YAML config file")
	jsonLogs := flag.Bool("json-logs", false, "emit structured logs as JSON instead of text")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	snapshotPath := flag.String("snapshot", "", "PNG path to load at startup and save at shutdown (overrides config)")
	statsScreenInterval := flag.Duration("stats-screen-interval", 0, "how often an external reporter should poll stats (overrides config)")
	statsSaveIntervalMS := flag.Int("stats-save-interval-ms", 0, "legacy stats save cadence in milliseconds (overrides config)")
	idleTimeout := flag.Duration("idle-timeout", 0, "per-connection idle read timeout, 0 disables (overrides config)")
	bwLimit := flag.Int("bw-limit", 0, "per-connection bandwidth cap in bits/sec, 0 disables (overrides config)")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if *jsonLogs {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	applyFlagOverrides(&cfg, *host, *width, *height, *noBinary, *snapshotPath, *statsScreenInterval, *statsSaveIntervalMS, *idleTimeout, *bwLimit)
	if err := config.Validate(&cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	pix, err := pixmap.New(cfg.Width, cfg.Height)
	if err != nil {
		slog.Error("failed to create canvas", "error", err)
		return 1
	}
	if cfg.SnapshotPath != "" {
		if err := snapshot.Load(pix, cfg.SnapshotPath); err != nil {
			slog.Warn("no snapshot loaded at startup", "path", cfg.SnapshotPath, "error", err)
		} else {
			slog.Info("loaded canvas snapshot", "path", cfg.SnapshotPath)
		}
	}

	counters := &stats.Counters{}

	l, err := listener.New(cfg, pix, counters)
	if err != nil {
		slog.Error("failed to bind listener", "error", err)
		return 1
	}

	slog.Info("pixelflut server starting",
		"addr", l.Addr().String(),
		"width", cfg.Width,
		"height", cfg.Height,
		"binary_enabled", cfg.BinaryEnabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		if err != nil {
			slog.Error("listener exited with error", "error", err)
			return 1
		}
	}

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("listener exited with error during shutdown", "error", err)
			return 1
		}
	case <-time.After(10 * time.Second):
		slog.Warn("connections did not drain within shutdown grace period")
	}

	if cfg.SnapshotPath != "" {
		if err := snapshot.Save(pix, cfg.SnapshotPath); err != nil {
			slog.Error("failed to save canvas snapshot", "error", err)
			return 1
		}
		slog.Info("saved canvas snapshot", "path", cfg.SnapshotPath)
	}

	slog.Info("pixelflut server stopped")
	return 0
}

func applyFlagOverrides(cfg *config.Config, host string, width, height int, noBinary bool, snapshotPath string, statsScreenInterval time.Duration, statsSaveIntervalMS int, idleTimeout time.Duration, bwLimit int) {
	if host != "" {
		cfg.Host = host
	}
	if width > 0 {
		cfg.Width = width
	}
	if height > 0 {
		cfg.Height = height
	}
	if noBinary {
		cfg.BinaryEnabled = false
	}
	if snapshotPath != "" {
		cfg.SnapshotPath = snapshotPath
	}
	if statsScreenInterval > 0 {
		cfg.StatsScreenInterval = statsScreenInterval
	}
	if statsSaveIntervalMS > 0 {
		cfg.StatsSaveIntervalMS = statsSaveIntervalMS
	}
	if idleTimeout > 0 {
		cfg.IdleTimeout = idleTimeout
	}
	if bwLimit > 0 {
		cfg.BWLimitBps = bwLimit
	}
}

