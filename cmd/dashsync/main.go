// Package main provides the dashsync binary entry point.
// Dashsync runs the dashboard data synchronization engine for one subject
// and exposes the merged view over a small HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brightpath/dashsync/config"
	"github.com/brightpath/dashsync/dashboard"
	"github.com/brightpath/dashsync/fetch"
	"github.com/brightpath/dashsync/model"
	"github.com/brightpath/dashsync/storage"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "dashsync"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		subjectID  string
		segment    string
		listenAddr string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "dashsync",
		Short: "Dashboard data synchronization engine",
		Long: `Dashsync keeps one subject's dashboard in sync: it fetches ranking,
schedule, tasks, achievements and weekly stats concurrently, caches each with
its own TTL, merges results in segment priority order, retries failed cycles
with exponential backoff, and refreshes periodically while foregrounded.

The merged view is exposed over HTTP for the rendering layer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, subjectID, segment, listenAddr, logLevel)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&subjectID, "subject", "", "Subject (user) identifier to sync")
	cmd.Flags().StringVar(&segment, "segment", string(model.SegmentExplorer), "User segment (explorer, scholar)")
	cmd.Flags().StringVar(&listenAddr, "listen", "0.0.0.0:7070", "HTTP listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func run(configPath, subjectID, segment, listenAddr, logLevel string) error {
	if subjectID == "" {
		return fmt.Errorf("--subject is required")
	}
	seg, err := model.ParseSegment(segment)
	if err != nil {
		return err
	}

	// Load configuration
	loader := config.NewLoader(slog.Default())
	cfg, cfgSource, err := loader.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Configure logging
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(logLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the persistent key-value store
	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	// Remote entity fetchers
	client := fetch.NewClient(cfg.Fetch.BaseURL,
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithLogger(logger))

	// Sync service
	svc := dashboard.NewService(kv, client.Set(),
		dashboard.WithLogger(logger),
		dashboard.WithRetryConfig(dashboard.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BackoffBase: cfg.Retry.BackoffBase,
		}),
		dashboard.WithRefreshInterval(cfg.Refresh.Interval),
		dashboard.WithTTLOverrides(cfg.TTLOverrides()))
	defer svc.Dispose()

	if err := svc.Start(subjectID, seg); err != nil {
		return err
	}

	// Hot-reload the refresh interval when the config file changes
	if cfgSource != "" {
		watcher, err := config.NewWatcher(config.WatcherConfig{
			Path:   cfgSource,
			Logger: logger,
			OnChange: func(next *config.Config) {
				svc.SetRefreshInterval(next.Refresh.Interval)
			},
		})
		if err != nil {
			logger.Warn("Config watcher unavailable", "error", err)
		} else if err := watcher.Start(ctx); err != nil {
			logger.Warn("Config watcher failed to start", "error", err)
		}
	}

	// HTTP surface for the rendering layer
	server := newServer(listenAddr, svc)

	logger.Info("Dashsync ready",
		"version", Version,
		"subject", subjectID,
		"segment", seg,
		"listen", listenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		return server.Stop()
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.KeyValue, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemory(), nil
	default:
		kv, err := storage.OpenNATSKV(ctx, cfg.Storage.URL)
		if err != nil {
			return nil, fmt.Errorf("open NATS KV: %w", err)
		}
		return kv, nil
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
