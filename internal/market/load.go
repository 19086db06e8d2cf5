package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lp-hedge-backtest/internal/config"
)

// Load reads the configured tape, validates it and trims it to the
// [From, To) window when either bound is set.
func Load(ctx context.Context, cfg config.TapeConfig) ([]Sample, error) {
	if cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.QueryTimeout)
		defer cancel()
	}
	var (
		series []Sample
		err    error
	)
	switch cfg.Format {
	case "csv", "":
		series, err = ReadCSVFile(cfg.Path, CSVOptions{
			TimeColumn:         cfg.TimeColumn,
			PriceColumn:        cfg.PriceColumn,
			SqrtPriceX96Column: cfg.SqrtPriceX96Column,
			BaseDecimals:       cfg.BaseDecimals,
			QuoteDecimals:      cfg.QuoteDecimals,
			InvertPrice:        cfg.InvertPrice,
			PoolColumn:         cfg.PoolColumn,
			PoolAddress:        cfg.PoolAddress,
		})
	case "sqlite":
		series, err = LoadSQLite(ctx, cfg.Path, sqlOptions(cfg))
	case "timescale":
		opts := sqlOptions(cfg)
		opts.From, opts.To = cfg.From, cfg.To
		series, err = LoadTimescale(ctx, cfg.DSN, opts)
	case "msgpack":
		series, err = ReadSeriesFile(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported tape format %q", cfg.Format)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(series); err != nil {
		return nil, err
	}
	series = Window(series, cfg.From, cfg.To)
	if len(series) == 0 {
		return nil, fmt.Errorf("tape window %s..%s: %w", formatBound(cfg.From), formatBound(cfg.To), ErrEmptySeries)
	}
	return series, nil
}

// Window returns the sub-slice of an ascending series with from <= t < to. A
// zero bound is open.
func Window(series []Sample, from, to time.Time) []Sample {
	start, end := 0, len(series)
	if !from.IsZero() {
		start = sort.Search(len(series), func(i int) bool { return !series[i].Time.Before(from) })
	}
	if !to.IsZero() {
		end = sort.Search(len(series), func(i int) bool { return !series[i].Time.Before(to) })
	}
	if start >= end {
		return nil
	}
	return series[start:end]
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.UTC().Format(time.RFC3339)
}

func sqlOptions(cfg config.TapeConfig) SQLOptions {
	return SQLOptions{
		Schema:      cfg.Schema,
		Table:       cfg.Table,
		TimeColumn:  cfg.TimeColumn,
		PriceColumn: cfg.PriceColumn,
	}
}
