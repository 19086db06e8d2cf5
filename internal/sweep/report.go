package sweep

import (
	"sort"

	"lp-hedge-backtest/internal/backtest"
)

type Outcome struct {
	Combination
	Summary backtest.Summary
}

// Skip records a combination rejected by parameter validation.
type Skip struct {
	Combination
	Reason string
}

// StopChoice is the best stop distance found for one threshold pair.
type StopChoice struct {
	Pair
	StopDistanceTicks int
	NetPL             float64
	Tried             int
}

type Report struct {
	Ranked   []Outcome
	Skipped  []Skip
	Baseline backtest.Summary
	// Spread is best minus worst net P&L over the ranked outcomes.
	Spread    float64
	BestStops []StopChoice
}

func (r Report) Best() (Outcome, bool) {
	if len(r.Ranked) == 0 {
		return Outcome{}, false
	}
	return r.Ranked[0], true
}

func (r Report) Top(n int) []Outcome {
	if n <= 0 || n >= len(r.Ranked) {
		return r.Ranked
	}
	return r.Ranked[:n]
}

// Improvement is the best outcome's net P&L over the unhedged baseline.
func (r Report) Improvement() float64 {
	best, ok := r.Best()
	if !ok {
		return 0
	}
	return best.Summary.NetPL - r.Baseline.NetPL
}

func rank(outcomes []Outcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if a.Summary.NetPL != b.Summary.NetPL {
			return a.Summary.NetPL > b.Summary.NetPL
		}
		if a.ShortEntryTick != b.ShortEntryTick {
			return a.ShortEntryTick < b.ShortEntryTick
		}
		if a.LongEntryTick != b.LongEntryTick {
			return a.LongEntryTick < b.LongEntryTick
		}
		return a.StopDistanceTicks < b.StopDistanceTicks
	})
}

// bestStops expects ranked input, so the first outcome seen per pair wins.
func bestStops(ranked []Outcome) []StopChoice {
	index := make(map[Pair]int)
	var choices []StopChoice
	for _, o := range ranked {
		if i, ok := index[o.Pair()]; ok {
			choices[i].Tried++
			continue
		}
		index[o.Pair()] = len(choices)
		choices = append(choices, StopChoice{
			Pair:              o.Pair(),
			StopDistanceTicks: o.StopDistanceTicks,
			NetPL:             o.Summary.NetPL,
			Tried:             1,
		})
	}
	return choices
}

func spread(ranked []Outcome) float64 {
	if len(ranked) == 0 {
		return 0
	}
	return ranked[0].Summary.NetPL - ranked[len(ranked)-1].Summary.NetPL
}
