package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	apphttp "github.com/amakane-hakari/reapset/internal/api/http"
	"github.com/amakane-hakari/reapset/internal/config"
	"github.com/amakane-hakari/reapset/internal/expiryset"
	ilog "github.com/amakane-hakari/reapset/internal/log"
	"github.com/amakane-hakari/reapset/internal/metrics"
	"github.com/amakane-hakari/reapset/internal/reaper"
	"github.com/amakane-hakari/reapset/internal/workload"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reaper and the admin HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "path to a TOML config file")
	serveCmd.Flags().String("addr", "", "admin HTTP listen address (overrides config)")
	serveCmd.Flags().String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	serveCmd.Flags().Bool("workload", false, "enable the synthetic workload (overrides config)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.HTTPAddr = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if cmd.Flags().Changed("workload") {
		cfg.Workload.Enabled, _ = cmd.Flags().GetBool("workload")
	}
	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := ilog.New(cfg.LogLevel, cmd.OutOrStdout())
	mx := metrics.NewProm(cfg.MetricsNamespace, prometheus.DefaultRegisterer)

	rp := reaper.New(reaper.WithLogger(logger.With("component", "reaper")), reaper.WithMetrics(mx))
	if err := rp.Start(); err != nil {
		return fmt.Errorf("start reaper: %w", err)
	}
	defer rp.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apphttp.NewRouter(apphttp.Deps{Health: rp, Logger: logger}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()
	workDone := make(chan struct{})
	if cfg.Workload.Enabled {
		go func() {
			defer close(workDone)
			runWorkload(workCtx, cfg, rp, mx, logger)
		}()
	} else {
		close(workDone)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("server.start", "addr", cfg.HTTPAddr, "workload", cfg.Workload.Enabled)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("server.signal", "msg", "shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server.error", "err", serveErr)
	}

	apphttp.SetDraining(true)
	cancelWork()
	<-workDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server.shutdown", "err", err)
	} else {
		logger.Info("server.stopped")
	}
	return serveErr
}

func runWorkload(ctx context.Context, cfg *config.Config, rp *reaper.Reaper, mx metrics.Interface, logger *ilog.Slog) {
	w := cfg.Workload
	sets := make([]*expiryset.ExpirySet[string], w.Sets)
	for i := range sets {
		sets[i] = expiryset.New[string](rp,
			expiryset.WithShards(cfg.Shards),
			expiryset.WithMetrics(mx),
			expiryset.WithLogger(logger.With("component", "expiryset", "set", i)),
		)
	}
	d := workload.New(workload.Config{
		Workers:       w.Workers,
		KeysPerWorker: w.KeysPerWorker,
		MinTTL:        w.MinTTL.Duration,
		MaxTTL:        w.MaxTTL.Duration,
		Interval:      w.Interval.Duration,
		Seed:          time.Now().UnixNano(),
	}, sets...)

	logger.Info("workload.start", "sets", w.Sets, "workers", w.Workers)
	rep, err := d.Run(ctx, 0)
	if err != nil {
		logger.Error("workload.error", "err", err)
	}
	logger.Info("workload.stop",
		"adds", rep.Adds, "hits", rep.Hits, "misses", rep.Misses, "removes", rep.Removes,
		"live", rep.LiveAtEnd, "elapsed", rep.Elapsed.String(),
	)
}
