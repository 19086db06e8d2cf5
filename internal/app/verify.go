package app

import (
	"fmt"

	"lp-hedge-backtest/internal/backtest"
	"lp-hedge-backtest/internal/market"
)

// Verification confirms a run consumed the whole tape.
type Verification struct {
	Tape   market.TapeStats
	Result backtest.Result
}

func (v Verification) Complete() bool {
	s := v.Result.Stats
	return s.Samples == v.Tape.Count && s.InRange+s.OutOfRange == s.Samples
}

// Verify replays series with the configured parameters and checks coverage.
func (a *App) Verify(series []market.Sample) (Verification, error) {
	cfg, err := a.BacktestConfig()
	if err != nil {
		return Verification{}, err
	}
	res, err := a.run(series, cfg)
	if err != nil {
		return Verification{}, err
	}
	v := Verification{Tape: market.Describe(series), Result: res}
	if !v.Complete() {
		return v, fmt.Errorf("processed %d of %d samples", res.Stats.Samples, v.Tape.Count)
	}
	return v, nil
}
