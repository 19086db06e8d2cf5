package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lp-hedge-backtest/internal/app"
	"lp-hedge-backtest/internal/config"
	"lp-hedge-backtest/internal/logging"
	"lp-hedge-backtest/internal/metrics"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	tapePath := flag.String("tape", "", "override tape.path")
	top := flag.Int("top", 0, "override sweep.top")
	workers := flag.Int("workers", 0, "override sweep.workers")
	flag.Parse()

	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *tapePath != "" {
		cfg.Tape.OverridePath(*tapePath)
	}
	if *top > 0 {
		cfg.Sweep.Top = *top
	}
	if *workers > 0 {
		cfg.Sweep.Workers = *workers
	}
	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize app", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.EnabledValue() {
		prom := metrics.NewPrometheus()
		application.SetMetrics(prom.Metrics)
		srv := serveMetrics(cfg.Metrics, prom, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	series, err := application.LoadTape(ctx)
	if err != nil {
		log.Error("tape load failed", zap.Error(err))
		os.Exit(1)
	}
	report, err := application.RunSweep(ctx, series)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("sweep interrupted")
		} else {
			log.Error("sweep failed", zap.Error(err))
		}
		os.Exit(1)
	}
	fmt.Println(app.FormatSweep(report, cfg.Sweep.Top, cfg.Pool.CapitalUSD))
}

func serveMetrics(cfg config.MetricsConfig, prom *metrics.Prometheus, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, prom.Handler())
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics server listening", zap.String("address", cfg.Address), zap.String("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
