package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lp-hedge-backtest/internal/backtest"
	"lp-hedge-backtest/internal/market"
	"lp-hedge-backtest/internal/metrics"
	"lp-hedge-backtest/internal/strategy"
)

// Sweeper evaluates grid combinations concurrently over one read-only series.
type Sweeper struct {
	base    backtest.Config
	workers int
	log     *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Sweeper)

func WithWorkers(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Sweeper) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New builds a sweeper around base. Each combination replaces base.Hedge; the
// hedge notional is taken from base.Hedge when set and defaults to capital.
func New(base backtest.Config, opts ...Option) *Sweeper {
	s := &Sweeper{
		base:    base,
		workers: runtime.GOMAXPROCS(0),
		log:     zap.NewNop(),
		metrics: metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sweeper) params(c Combination) strategy.Params {
	notional := s.base.CapitalUSD
	if s.base.Hedge != nil && s.base.Hedge.NotionalUSD > 0 {
		notional = s.base.Hedge.NotionalUSD
	}
	return strategy.Params{
		ShortEntryTick:    c.ShortEntryTick,
		LongEntryTick:     c.LongEntryTick,
		StopDistanceTicks: c.StopDistanceTicks,
		Resolution:        s.base.Mapper.Resolution,
		NotionalUSD:       notional,
	}
}

type slot struct {
	summary backtest.Summary
	skip    error
}

// Run evaluates combos and ranks them by net P&L. Combinations with invalid
// parameters are reported in Skipped; any other failure aborts the sweep.
func (s *Sweeper) Run(ctx context.Context, series []market.Sample, combos []Combination) (Report, error) {
	if err := market.Validate(series); err != nil {
		return Report{}, err
	}
	baseline, err := backtest.Run(series, s.base.WithHedge(nil))
	if err != nil {
		s.metrics.RunsFailed.Inc()
		return Report{}, fmt.Errorf("baseline: %w", err)
	}
	s.record(baseline)
	s.log.Info("sweep started",
		zap.Int("combinations", len(combos)),
		zap.Int("workers", s.workers),
		zap.Int("samples", len(series)),
		zap.Float64("baseline_net_pl", baseline.Summary.NetPL),
	)

	slots := make([]slot, len(combos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range combos {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			combo := combos[i]
			params := s.params(combo)
			res, err := backtest.Run(series, s.base.WithHedge(&params))
			if errors.Is(err, strategy.ErrInvalidParameter) {
				s.metrics.CombinationsSkipped.Inc()
				s.log.Debug("combination skipped", zap.Stringer("combination", combo), zap.Error(err))
				slots[i].skip = err
				return nil
			}
			if err != nil {
				s.metrics.RunsFailed.Inc()
				return fmt.Errorf("combination %s: %w", combo, err)
			}
			s.record(res)
			slots[i].summary = res.Summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Baseline: baseline.Summary}
	for i, sl := range slots {
		if sl.skip != nil {
			report.Skipped = append(report.Skipped, Skip{Combination: combos[i], Reason: sl.skip.Error()})
			continue
		}
		report.Ranked = append(report.Ranked, Outcome{Combination: combos[i], Summary: sl.summary})
	}
	rank(report.Ranked)
	report.Spread = spread(report.Ranked)
	report.BestStops = bestStops(report.Ranked)

	if best, ok := report.Best(); ok {
		s.log.Info("sweep finished",
			zap.Int("evaluated", len(report.Ranked)),
			zap.Int("skipped", len(report.Skipped)),
			zap.Stringer("best", best.Combination),
			zap.Float64("best_net_pl", best.Summary.NetPL),
			zap.Float64("spread", report.Spread),
		)
	} else {
		s.log.Warn("sweep finished without a valid combination", zap.Int("skipped", len(report.Skipped)))
	}
	return report, nil
}

func (s *Sweeper) record(res backtest.Result) {
	s.metrics.RunsCompleted.Inc()
	s.metrics.SamplesProcessed.Add(float64(res.Stats.Samples))
	s.metrics.CyclesCompleted.Add(float64(res.Stats.Rebalances))
	s.metrics.HedgesOpened.Add(float64(res.Stats.HedgesOpened))
	s.metrics.StopOuts.Add(float64(res.Stats.Whipsaws))
}
