package backtest

import (
	"time"

	"lp-hedge-backtest/internal/clmm"
	"lp-hedge-backtest/internal/market"
	"lp-hedge-backtest/internal/strategy"
)

var (
	ErrEmptySeries = market.ErrEmptySeries
	ErrOutOfOrder  = market.ErrOutOfOrder
)

// SampleError carries the index and timestamp of the sample that aborted a run.
type SampleError = market.SampleError

type Result struct {
	Config  Config
	Start   time.Time
	End     time.Time
	Stats   RunStats
	Cycles  []CycleStats
	Summary Summary
}

// Run replays series once, in order, through the LP range and the optional
// hedge. Each range exit realizes IL, flattens the hedge and re-centers the
// range on the exit price. The cycle still open at the end of the tape is
// flattened and marked to market but not counted as a rebalance.
func Run(series []market.Sample, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if len(series) == 0 {
		return Result{}, ErrEmptySeries
	}
	r := &runner{cfg: cfg}
	if cfg.Hedge != nil {
		hedge, err := strategy.NewHedgeMachine(*cfg.Hedge)
		if err != nil {
			return Result{}, err
		}
		r.hedge = hedge
	}
	for i := range series {
		var prev *market.Sample
		if i > 0 {
			prev = &series[i-1]
		}
		if err := r.step(i, series[i], prev); err != nil {
			return Result{}, err
		}
	}
	last := len(series) - 1
	if err := r.closeCycle(last, series[last], false); err != nil {
		return Result{}, err
	}
	start, end := series[0].Time, series[last].Time
	return Result{
		Config:  cfg,
		Start:   start,
		End:     end,
		Stats:   r.stats,
		Cycles:  r.cycles,
		Summary: summarize(cfg.CapitalUSD, r.stats, end.Sub(start)),
	}, nil
}

type runner struct {
	cfg    Config
	hedge  *strategy.HedgeMachine
	rng    clmm.Range
	cycle  CycleStats
	cycles []CycleStats
	stats  RunStats
}

func (r *runner) step(i int, s market.Sample, prev *market.Sample) error {
	if err := market.CheckSample(i, s, prev); err != nil {
		return err
	}
	r.stats.Samples++
	if prev == nil {
		if err := r.openCycle(i, s); err != nil {
			return err
		}
	} else {
		r.cycle.Fees += accruedFees(r.cfg.CapitalUSD, r.cfg.AnnualFeeRate, s.Time.Sub(prev.Time))
	}
	r.cycle.Samples++

	if !r.rng.Active(s.Price) {
		r.stats.OutOfRange++
		if err := r.closeCycle(i, s, true); err != nil {
			return err
		}
		return r.openCycle(i, s)
	}
	r.stats.InRange++
	if r.hedge == nil {
		return nil
	}
	tick, err := r.cfg.Mapper.TickOf(s.Price, r.rng)
	if err != nil {
		return &SampleError{Index: i, Time: s.Time, Err: err}
	}
	ev := r.hedge.Step(s.Time, s.Price, tick)
	switch {
	case ev.Opened():
		r.cycle.HedgesOpened++
	case ev.StoppedOut():
		r.cycle.HedgePnL += ev.RealizedPnL
		r.cycle.Trades++
		r.cycle.Whipsaws++
	}
	return nil
}

func (r *runner) openCycle(i int, s market.Sample) error {
	rng, initial, err := clmm.OpenPosition(s.Price, r.cfg.RangeWidth, r.cfg.CapitalUSD)
	if err != nil {
		return &SampleError{Index: i, Time: s.Time, Err: err}
	}
	r.rng = rng
	r.cycle = CycleStats{
		Index:      len(r.cycles),
		StartIndex: i,
		StartTime:  s.Time,
		StartPrice: s.Price,
		Range:      rng,
		Initial:    initial,
	}
	return nil
}

// closeCycle realizes IL against the cycle's opening balances at s and
// flattens any open hedge.
func (r *runner) closeCycle(i int, s market.Sample, exited bool) error {
	exit, err := clmm.BalancesAt(r.rng, s.Price)
	if err != nil {
		return &SampleError{Index: i, Time: s.Time, Err: err}
	}
	il, err := clmm.ImpermanentLoss(r.cycle.Initial, r.cycle.StartPrice, exit, s.Price)
	if err != nil {
		return &SampleError{Index: i, Time: s.Time, Err: err}
	}
	if r.hedge != nil {
		tick, err := r.cfg.Mapper.TickOf(s.Price, r.rng)
		if err != nil {
			return &SampleError{Index: i, Time: s.Time, Err: err}
		}
		if ev, ok := r.hedge.Flatten(s.Time, s.Price, tick); ok {
			r.cycle.HedgePnL += ev.RealizedPnL
			r.cycle.Trades++
			if ev.RealizedPnL > 0 {
				r.cycle.Wins++
			}
		}
	}
	r.cycle.EndIndex = i
	r.cycle.EndTime = s.Time
	r.cycle.ExitPrice = s.Price
	r.cycle.Exit = exit
	r.cycle.IL = il
	r.cycle.Closed = exited
	r.stats.add(r.cycle)
	r.cycles = append(r.cycles, r.cycle)
	return nil
}
