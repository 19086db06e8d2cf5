package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lp-hedge-backtest/internal/alerts"
	"lp-hedge-backtest/internal/backtest"
	"lp-hedge-backtest/internal/clmm"
	"lp-hedge-backtest/internal/config"
	"lp-hedge-backtest/internal/market"
	"lp-hedge-backtest/internal/metrics"
	"lp-hedge-backtest/internal/strategy"
	"lp-hedge-backtest/internal/sweep"

	"go.uber.org/zap"
)

const notifyTimeout = 15 * time.Second

// App wires configuration, the tape loader and the simulation core for the
// command line tools.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	alerts  *alerts.Telegram
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewNoop(),
		alerts:  alerts.NewTelegram(cfg.Telegram, log),
	}, nil
}

func (a *App) SetMetrics(m *metrics.Metrics) {
	if m != nil {
		a.metrics = m
	}
}

func (a *App) Config() *config.Config {
	return a.cfg
}

// LoadTape reads and validates the configured price tape.
func (a *App) LoadTape(ctx context.Context) ([]market.Sample, error) {
	started := time.Now()
	series, err := market.Load(ctx, a.cfg.Tape)
	if err != nil {
		return nil, fmt.Errorf("load %s tape %q: %w", a.cfg.Tape.Format, tapeSource(a.cfg.Tape), err)
	}
	stats := market.Describe(series)
	a.log.Info("tape loaded",
		zap.String("format", a.cfg.Tape.Format),
		zap.String("source", tapeSource(a.cfg.Tape)),
		zap.Int("samples", stats.Count),
		zap.Time("start", stats.Start),
		zap.Time("end", stats.End),
		zap.Float64("min_price", stats.MinPrice),
		zap.Float64("max_price", stats.MaxPrice),
		zap.Duration("elapsed", time.Since(started)),
	)
	return series, nil
}

// BacktestConfig maps the pool and hedge sections onto a run config. The hedge
// is nil when disabled.
func (a *App) BacktestConfig() (backtest.Config, error) {
	mapper, err := clmm.NewMapper(a.cfg.Pool.TickResolution, clmm.Space(a.cfg.Pool.TickSpace))
	if err != nil {
		return backtest.Config{}, err
	}
	cfg := backtest.Config{
		CapitalUSD:    a.cfg.Pool.CapitalUSD,
		AnnualFeeRate: a.cfg.Pool.AnnualFeeRate,
		RangeWidth:    a.cfg.Pool.RangeWidthFraction,
		Mapper:        mapper,
	}
	if a.cfg.Hedge.EnabledValue() {
		params := a.cfg.Hedge.Params(mapper.Resolution)
		cfg.Hedge = &params
	}
	return cfg, cfg.Validate()
}

// BacktestReport pairs the configured run with its unhedged baseline. Hedged is
// nil when the hedge is disabled.
type BacktestReport struct {
	Hedged   *backtest.Result
	Baseline backtest.Result
}

func (r BacktestReport) Improvement() float64 {
	if r.Hedged == nil {
		return 0
	}
	return r.Hedged.Summary.NetPL - r.Baseline.Summary.NetPL
}

func (a *App) RunBacktest(ctx context.Context, series []market.Sample) (BacktestReport, error) {
	cfg, err := a.BacktestConfig()
	if err != nil {
		return BacktestReport{}, err
	}
	baseline, err := a.run(series, cfg.WithHedge(nil))
	if err != nil {
		return BacktestReport{}, fmt.Errorf("baseline: %w", err)
	}
	report := BacktestReport{Baseline: baseline}
	if cfg.Hedge != nil {
		hedged, err := a.run(series, cfg)
		if err != nil {
			return BacktestReport{}, fmt.Errorf("hedged: %w", err)
		}
		report.Hedged = &hedged
		a.log.Info("backtest finished",
			zap.Int("cycles", hedged.Summary.CycleCount),
			zap.Float64("net_pl", hedged.Summary.NetPL),
			zap.Float64("baseline_net_pl", baseline.Summary.NetPL),
			zap.Float64("il_reduction_pct", hedged.Summary.ILReductionPct),
			zap.Float64("win_rate", hedged.Summary.WinRate),
		)
	} else {
		a.log.Info("baseline backtest finished",
			zap.Int("cycles", baseline.Summary.CycleCount),
			zap.Float64("net_pl", baseline.Summary.NetPL),
		)
	}
	a.notify(ctx, FormatBacktest(report, a.cfg.Pool.CapitalUSD))
	return report, nil
}

func (a *App) run(series []market.Sample, cfg backtest.Config) (backtest.Result, error) {
	res, err := backtest.Run(series, cfg)
	if err != nil {
		a.metrics.RunsFailed.Inc()
		var sampleErr *backtest.SampleError
		if errors.As(err, &sampleErr) {
			a.log.Error("run aborted by bad sample",
				zap.Int("index", sampleErr.Index),
				zap.Time("time", sampleErr.Time),
				zap.Error(sampleErr.Err),
			)
		}
		return backtest.Result{}, err
	}
	a.metrics.RunsCompleted.Inc()
	a.metrics.SamplesProcessed.Add(float64(res.Stats.Samples))
	a.metrics.CyclesCompleted.Add(float64(res.Stats.Rebalances))
	a.metrics.HedgesOpened.Add(float64(res.Stats.HedgesOpened))
	a.metrics.StopOuts.Add(float64(res.Stats.Whipsaws))
	return res, nil
}

// Grid converts the sweep section into a parameter grid.
func (a *App) Grid() sweep.Grid {
	g := sweep.Grid{
		ShortMin: a.cfg.Sweep.ShortMin,
		ShortMax: a.cfg.Sweep.ShortMax,
		LongMin:  a.cfg.Sweep.LongMin,
		LongMax:  a.cfg.Sweep.LongMax,
		Stops:    append([]int(nil), a.cfg.Sweep.Stops...),
	}
	for _, p := range a.cfg.Sweep.Pairs {
		g.Pairs = append(g.Pairs, sweep.Pair{Short: p.Short, Long: p.Long})
	}
	return g
}

func (a *App) RunSweep(ctx context.Context, series []market.Sample) (sweep.Report, error) {
	base, err := a.BacktestConfig()
	if err != nil && !errors.Is(err, strategy.ErrInvalidParameter) {
		return sweep.Report{}, err
	}
	// The configured hedge thresholds are irrelevant here; only its notional is kept.
	if base.Hedge == nil {
		base.Hedge = &strategy.Params{Resolution: base.Mapper.Resolution, NotionalUSD: a.cfg.Hedge.NotionalUSD}
	}
	sweeper := sweep.New(base,
		sweep.WithWorkers(a.cfg.Sweep.Workers),
		sweep.WithLogger(a.log),
		sweep.WithMetrics(a.metrics),
	)
	report, err := sweeper.Run(ctx, series, a.Grid().Combinations())
	if err != nil {
		return sweep.Report{}, err
	}
	a.notify(ctx, FormatSweep(report, a.cfg.Sweep.Top, a.cfg.Pool.CapitalUSD))
	return report, nil
}

func (a *App) notify(ctx context.Context, text string) {
	if !a.alerts.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := a.alerts.Notify(ctx, text); err != nil {
		a.log.Warn("alert send failed", zap.Error(err))
	}
}

func tapeSource(cfg config.TapeConfig) string {
	if cfg.Format == "timescale" {
		return cfg.Schema + "." + cfg.Table
	}
	return cfg.Path
}
