package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lp-hedge-backtest/internal/config"
	"lp-hedge-backtest/internal/logging"
	"lp-hedge-backtest/internal/market"

	"go.uber.org/zap"
)

// tapeconv loads any supported tape and writes it as a msgpack series file.
func main() {
	configPath := flag.String("config", "", "optional config path describing the source tape")
	tapePath := flag.String("tape", "", "override tape.path")
	format := flag.String("format", "", "override tape.format (csv, sqlite, timescale, msgpack)")
	outPath := flag.String("out", "", "destination .msgpack file")
	flag.Parse()

	if *outPath == "" {
		fatal(errors.New("-out is required"))
	}
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if *tapePath != "" {
		cfg.Tape.OverridePath(*tapePath)
	}
	if *format != "" {
		cfg.Tape.Format = *format
	}
	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	series, err := market.Load(ctx, cfg.Tape)
	if err != nil {
		log.Error("tape load failed", zap.String("format", cfg.Tape.Format), zap.Error(err))
		os.Exit(1)
	}
	if err := market.WriteSeriesFile(*outPath, series); err != nil {
		log.Error("tape write failed", zap.String("out", *outPath), zap.Error(err))
		os.Exit(1)
	}
	stats := market.Describe(series)
	log.Info("tape converted",
		zap.String("from", cfg.Tape.Format),
		zap.String("out", *outPath),
		zap.Int("samples", stats.Count),
		zap.Time("start", stats.Start),
		zap.Time("end", stats.End),
	)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
