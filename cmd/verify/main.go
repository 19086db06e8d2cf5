package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"lp-hedge-backtest/internal/app"
	"lp-hedge-backtest/internal/config"
	"lp-hedge-backtest/internal/logging"
)

const defaultVerifyEnvFile = ".env"

// verify replays the configured tape once and prints coverage instrumentation:
// sample counts, timestamp gaps and in/out of range counts.
func main() {
	configPath := flag.String("config", "", "optional config path")
	tapePath := flag.String("tape", "", "override tape.path")
	flag.Parse()

	if err := config.LoadEnv(defaultVerifyEnvFile); err != nil {
		fatal(err)
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

	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	application, err := app.New(cfg, log)
	if err != nil {
		fatal(err)
	}
	series, err := application.LoadTape(context.Background())
	if err != nil {
		fatal(err)
	}
	v, err := application.Verify(series)
	if v.Tape.Count > 0 {
		fmt.Println(app.FormatVerification(v))
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
