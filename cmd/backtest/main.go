package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lp-hedge-backtest/internal/app"
	"lp-hedge-backtest/internal/config"
	"lp-hedge-backtest/internal/logging"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	tapePath := flag.String("tape", "", "override tape.path")
	asJSON := flag.Bool("json", false, "print the result records as JSON")
	flag.Parse()

	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg, err := loadConfig(*configPath, *tapePath)
	if err != nil {
		fatal(err)
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

	series, err := application.LoadTape(ctx)
	if err != nil {
		log.Error("tape load failed", zap.Error(err))
		os.Exit(1)
	}
	report, err := application.RunBacktest(ctx, series)
	if err != nil {
		log.Error("backtest failed", zap.Error(err))
		os.Exit(1)
	}
	if *asJSON {
		out := map[string]any{"baseline": report.Baseline.Summary}
		if report.Hedged != nil {
			out["hedged"] = report.Hedged.Summary
			out["improvement_usd"] = report.Improvement()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fatal(err)
		}
		return
	}
	fmt.Println(app.FormatBacktest(report, cfg.Pool.CapitalUSD))
}

func loadConfig(path, tape string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if tape != "" {
			cfg.Tape.OverridePath(tape)
		}
		return cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if tape != "" {
		cfg.Tape.OverridePath(tape)
	}
	return cfg, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
