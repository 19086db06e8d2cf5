package app

import (
	"fmt"
	"strings"
	"time"

	"lp-hedge-backtest/internal/backtest"
	"lp-hedge-backtest/internal/sweep"
)

func FormatBacktest(r BacktestReport, capital float64) string {
	base := r.Baseline
	lines := []string{
		fmt.Sprintf("tape: %s to %s (%d samples)", base.Start.UTC().Format(time.RFC3339), base.End.UTC().Format(time.RFC3339), base.Stats.Samples),
		fmt.Sprintf("capital: $%.2f", capital),
		"",
		"baseline (no hedge)",
		fmt.Sprintf("  rebalances: %d", base.Summary.CycleCount),
		fmt.Sprintf("  fees: $%.2f", base.Summary.Fees),
		fmt.Sprintf("  il: $%.2f", base.Summary.ILUnhedged),
		fmt.Sprintf("  net_pl: $%.2f (%s)", base.Summary.NetPL, pct(base.Summary.NetPL/capital)),
	}
	if r.Hedged == nil {
		return strings.Join(lines, "\n")
	}
	p := r.Hedged.Config.Hedge
	s := r.Hedged.Summary
	lines = append(lines,
		"",
		fmt.Sprintf("hedged: short@%d long@%d stop %d", p.ShortEntryTick, p.LongEntryTick, p.StopDistanceTicks),
		fmt.Sprintf("  rebalances: %d", s.CycleCount),
		fmt.Sprintf("  fees: $%.2f", s.Fees),
		fmt.Sprintf("  il unhedged: $%.2f", s.ILUnhedged),
		fmt.Sprintf("  hedge pnl: $%.2f", s.HedgePnL),
		fmt.Sprintf("  il hedged: $%.2f (avoided $%.2f, %.1f%%)", s.ILHedged, s.ILAvoided, s.ILReductionPct),
		fmt.Sprintf("  trades: %d wins: %d whipsaws: %d", s.Trades, s.Wins, s.Whipsaws),
		fmt.Sprintf("  win_rate: %s whipsaw_rate: %s", pct(s.WinRate), pct(s.WhipsawRate)),
		fmt.Sprintf("  net_pl: $%.2f (%s)", s.NetPL, pct(s.NetPL/capital)),
		fmt.Sprintf("  monthly_return: %s annualized: %s", pct(s.MonthlyReturn), pct(s.AnnualizedReturn)),
		fmt.Sprintf("  improvement vs baseline: $%.2f", r.Improvement()),
	)
	return strings.Join(lines, "\n")
}

func FormatSweep(rep sweep.Report, top int, capital float64) string {
	lines := []string{
		fmt.Sprintf("sweep: %d evaluated, %d skipped", len(rep.Ranked), len(rep.Skipped)),
		fmt.Sprintf("baseline net_pl: $%.2f (%s)", rep.Baseline.NetPL, pct(rep.Baseline.NetPL/capital)),
	}
	if best, ok := rep.Best(); ok {
		lines = append(lines,
			fmt.Sprintf("best: %s net_pl $%.2f, improvement $%.2f", best.Combination, best.Summary.NetPL, rep.Improvement()),
			fmt.Sprintf("spread best-worst: $%.2f", rep.Spread),
		)
	}
	lines = append(lines, "", "rank  short long stop  net_pl     monthly  il_red  win    whipsaw cycles")
	for i, o := range rep.Top(top) {
		lines = append(lines, outcomeLine(i+1, o.Combination, o.Summary))
	}
	if len(rep.BestStops) > 0 {
		lines = append(lines, "", "best stop per pair")
		for _, c := range rep.BestStops {
			lines = append(lines, fmt.Sprintf("  %d/%d: stop %d net_pl $%.2f (%d tried)", c.Short, c.Long, c.StopDistanceTicks, c.NetPL, c.Tried))
		}
	}
	return strings.Join(lines, "\n")
}

func outcomeLine(rank int, c sweep.Combination, s backtest.Summary) string {
	return fmt.Sprintf("%-5d %-5d %-4d %-5d %-10.2f %-8s %-7s %-6s %-7s %d",
		rank, c.ShortEntryTick, c.LongEntryTick, c.StopDistanceTicks,
		s.NetPL, pct(s.MonthlyReturn), fmt.Sprintf("%.1f%%", s.ILReductionPct),
		pct(s.WinRate), pct(s.WhipsawRate), s.CycleCount)
}

func FormatVerification(v Verification) string {
	t := v.Tape
	s := v.Result.Stats
	status := "COMPLETE"
	if !v.Complete() {
		status = "INCOMPLETE"
	}
	lines := []string{
		fmt.Sprintf("samples: %d (unique timestamps %d)", t.Count, t.UniqueTimes),
		fmt.Sprintf("span: %s to %s", t.Start.UTC().Format(time.RFC3339), t.End.UTC().Format(time.RFC3339)),
		fmt.Sprintf("price: %.2f to %.2f", t.MinPrice, t.MaxPrice),
		fmt.Sprintf("gaps: min %s max %s mean %s median %s", t.Gaps.Min, t.Gaps.Max, t.Gaps.Mean, t.Gaps.Median),
		fmt.Sprintf("samples/hour: %.1f", t.SamplesPerHour),
		fmt.Sprintf("processed: %d in_range: %d out_of_range: %d", s.Samples, s.InRange, s.OutOfRange),
		fmt.Sprintf("rebalances: %d hedges opened: %d stops: %d closed: %d", s.Rebalances, s.HedgesOpened, s.Whipsaws, s.Trades),
		fmt.Sprintf("coverage: %s", status),
	}
	return strings.Join(lines, "\n")
}

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
