package backtest

import (
	"fmt"
	"math"

	"lp-hedge-backtest/internal/clmm"
	"lp-hedge-backtest/internal/strategy"
)

// Config is the immutable input of one run. A nil Hedge runs the unhedged
// baseline.
type Config struct {
	CapitalUSD    float64
	AnnualFeeRate float64
	RangeWidth    float64
	Mapper        clmm.Mapper
	Hedge         *strategy.Params
}

func (c Config) Validate() error {
	if math.IsNaN(c.CapitalUSD) || math.IsInf(c.CapitalUSD, 0) || c.CapitalUSD <= 0 {
		return fmt.Errorf("capital %v must be > 0: %w", c.CapitalUSD, strategy.ErrInvalidParameter)
	}
	if math.IsNaN(c.AnnualFeeRate) || math.IsInf(c.AnnualFeeRate, 0) || c.AnnualFeeRate < 0 {
		return fmt.Errorf("annual fee rate %v must be >= 0: %w", c.AnnualFeeRate, strategy.ErrInvalidParameter)
	}
	if math.IsNaN(c.RangeWidth) || c.RangeWidth <= 0 || c.RangeWidth >= 2 {
		return fmt.Errorf("range width fraction %v: %w", c.RangeWidth, clmm.ErrInvalidRange)
	}
	if _, err := clmm.NewMapper(c.Mapper.Resolution, c.Mapper.Space); err != nil {
		return fmt.Errorf("%v: %w", err, strategy.ErrInvalidParameter)
	}
	if c.Hedge == nil {
		return nil
	}
	if c.Hedge.Resolution != c.Mapper.Resolution {
		return fmt.Errorf("hedge resolution %d differs from tick resolution %d: %w", c.Hedge.Resolution, c.Mapper.Resolution, strategy.ErrInvalidParameter)
	}
	return c.Hedge.Validate()
}

// WithHedge returns a copy of c running params. Passing nil yields the baseline.
func (c Config) WithHedge(params *strategy.Params) Config {
	if params != nil {
		p := *params
		c.Hedge = &p
	} else {
		c.Hedge = nil
	}
	return c
}
