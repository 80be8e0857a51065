package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaz8081/timeflip-logger/internal/ble"
	"github.com/chaz8081/timeflip-logger/internal/config"
	"github.com/chaz8081/timeflip-logger/internal/intervals"
	"github.com/chaz8081/timeflip-logger/internal/mqtt"
	"github.com/chaz8081/timeflip-logger/internal/session"
	"github.com/chaz8081/timeflip-logger/internal/store"
)

// loadConfig loads the config file, applies explicitly set flags on top and
// validates the result.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := loadConfigFile(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadConfigFile loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfigFile(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	return config.Default(), nil
}

func applyFlags(cmd *cobra.Command, f flags, cfg *config.Config) {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("address") {
		cfg.Address = f.address
	}
	if changed("password") {
		cfg.Password = f.password
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	cfg.ExpandPaths()
}

func setupLogging(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLogLevel(level)})
	slog.SetDefault(slog.New(handler))
}

// run wires the logger pipeline and blocks until SIGINT/SIGTERM.
func run(parent context.Context, out io.Writer, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	setupLogging(cfg.LogLevel)
	printBanner(out, cfg)

	facets, err := cfg.FacetMap()
	if err != nil {
		return err
	}

	var observers []intervals.Observer
	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewPublisher(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		})
		if err != nil {
			return err
		}
		defer pub.Close()
		observers = append(observers, pub)
	}
	if cfg.SQLite.Path != "" {
		db, err := store.OpenSQLite(cfg.SQLite.Path, cfg.Address)
		if err != nil {
			return err
		}
		defer db.Close()
		observers = append(observers, db)
	}

	sink, err := intervals.OpenFileSink(cfg.Output, cfg.Log.Fsync)
	if err != nil {
		return err
	}
	logger := intervals.NewLogger(sink, intervals.Options{
		Mode:      intervals.RecordMode(cfg.Log.RecordMode),
		Observers: observers,
	})
	defer func() {
		if err := logger.Close(); err != nil {
			slog.Error("[LOG] close", "error", err)
		}
	}()

	mgr, err := session.NewManager(ble.NewTinyGoAdapter(), facets, logger, session.Options{
		Address:        cfg.Address,
		Password:       cfg.Password,
		Backoff:        cfg.Session.Backoff,
		ReconnectDelay: cfg.Session.ReconnectDelay,
		SettleDelay:    cfg.Session.SettleDelay,
		ConnectTimeout: cfg.Session.ConnectTimeout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Ready! Ctrl+C to quit.", "address", cfg.Address, "output", cfg.Output)
	err = mgr.Run(ctx)
	if errors.Is(err, context.Canceled) {
		slog.Info("Closing due to interrupt")
		return nil
	}
	return err
}

// printBanner displays the startup configuration summary.
func printBanner(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "=== timeflip-logger ===")
	fmt.Fprintf(out, "  Device:  %s\n", cfg.Address)
	fmt.Fprintf(out, "  Output:  %s (%s records)\n", cfg.Output, cfg.Log.RecordMode)
	fmt.Fprintf(out, "  Retry:   %s backoff, %s reconnect, %s settle\n", cfg.Session.Backoff, cfg.Session.ReconnectDelay, cfg.Session.SettleDelay)
	if cfg.MQTT.Broker != "" {
		fmt.Fprintf(out, "  MQTT:    %s (%s)\n", cfg.MQTT.Broker, cfg.MQTT.Topic)
	}
	if cfg.SQLite.Path != "" {
		fmt.Fprintf(out, "  SQLite:  %s\n", cfg.SQLite.Path)
	}
	fmt.Fprintf(out, "  Log:     %s\n", cfg.LogLevel)
	fmt.Fprintln(out, "=======================")
}
