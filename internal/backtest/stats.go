package backtest

import (
	"time"

	"lp-hedge-backtest/internal/clmm"
)

const (
	daysPerYear   = 365.25
	daysPerMonth  = daysPerYear / 12
	secondsPerDay = 24 * 60 * 60
)

// CycleStats is one LP epoch: from the sample that opened the range to the
// sample that left it, or to the end of the tape when Closed is false.
type CycleStats struct {
	Index        int
	StartIndex   int
	EndIndex     int
	StartTime    time.Time
	EndTime      time.Time
	StartPrice   float64
	ExitPrice    float64
	Range        clmm.Range
	Initial      clmm.Balances
	Exit         clmm.Balances
	Samples      int
	Fees         float64
	IL           float64
	HedgePnL     float64
	HedgesOpened int
	Trades       int
	Wins         int
	Whipsaws     int
	Closed       bool
}

// RunStats accumulates every cycle of a run.
type RunStats struct {
	Samples      int
	InRange      int
	OutOfRange   int
	Rebalances   int
	Fees         float64
	ILUnhedged   float64
	HedgePnL     float64
	HedgesOpened int
	Trades       int
	Wins         int
	Whipsaws     int
}

func (s *RunStats) add(c CycleStats) {
	s.Fees += c.Fees
	s.ILUnhedged += c.IL
	s.HedgePnL += c.HedgePnL
	s.HedgesOpened += c.HedgesOpened
	s.Trades += c.Trades
	s.Wins += c.Wins
	s.Whipsaws += c.Whipsaws
	if c.Closed {
		s.Rebalances++
	}
}

// Summary is the result record of a run. Rates are fractions in [0, 1] except
// ILReductionPct, which is a percentage. WinRate and WhipsawRate are taken over
// Wins+Whipsaws, not Trades.
type Summary struct {
	MonthlyReturn    float64 `json:"monthly_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	ILReductionPct   float64 `json:"il_reduction_pct"`
	WinRate          float64 `json:"win_rate"`
	WhipsawRate      float64 `json:"whipsaw_rate"`
	CycleCount       int     `json:"cycle_count"`
	NetPL            float64 `json:"net_pl"`
	NetPLUnhedged    float64 `json:"net_pl_unhedged"`
	Fees             float64 `json:"fees_usd"`
	ILUnhedged       float64 `json:"il_unhedged_usd"`
	ILHedged         float64 `json:"il_hedged_usd"`
	ILAvoided        float64 `json:"il_avoided_usd"`
	HedgePnL         float64 `json:"hedge_pnl_usd"`
	Trades           int     `json:"trades"`
	Wins             int     `json:"wins"`
	Whipsaws         int     `json:"whipsaws"`
}

func summarize(capital float64, stats RunStats, span time.Duration) Summary {
	ilHedged := stats.ILUnhedged - stats.HedgePnL
	if ilHedged < 0 {
		ilHedged = 0
	}
	s := Summary{
		CycleCount:    stats.Rebalances,
		Fees:          stats.Fees,
		ILUnhedged:    stats.ILUnhedged,
		ILHedged:      ilHedged,
		ILAvoided:     stats.ILUnhedged - ilHedged,
		HedgePnL:      stats.HedgePnL,
		NetPL:         stats.Fees - ilHedged,
		NetPLUnhedged: stats.Fees - stats.ILUnhedged,
		Trades:        stats.Trades,
		Wins:          stats.Wins,
		Whipsaws:      stats.Whipsaws,
	}
	if stats.ILUnhedged > 0 {
		s.ILReductionPct = (1 - ilHedged/stats.ILUnhedged) * 100
	}
	// Flattens at a loss are neither wins nor whipsaws and stay out of the rates.
	if decided := stats.Wins + stats.Whipsaws; decided > 0 {
		s.WinRate = float64(stats.Wins) / float64(decided)
		s.WhipsawRate = float64(stats.Whipsaws) / float64(decided)
	}
	if days := span.Seconds() / secondsPerDay; days > 0 {
		s.MonthlyReturn = s.NetPL / capital * daysPerMonth / days
		s.AnnualizedReturn = compound(s.MonthlyReturn, 12)
	}
	return s
}

func compound(rate float64, periods int) float64 {
	growth := 1.0
	for i := 0; i < periods; i++ {
		growth *= 1 + rate
	}
	return growth - 1
}

func accruedFees(capital, annualRate float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return capital * annualRate * elapsed.Seconds() / secondsPerDay / daysPerYear
}
