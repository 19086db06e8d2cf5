package market

import (
	"math"
	"sort"
	"time"
)

type GapStats struct {
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	Median time.Duration
}

// TapeStats summarises a series for coverage checks.
type TapeStats struct {
	Count          int
	UniqueTimes    int
	Start          time.Time
	End            time.Time
	MinPrice       float64
	MaxPrice       float64
	Gaps           GapStats
	SamplesPerHour float64
}

func Describe(series []Sample) TapeStats {
	stats := TapeStats{Count: len(series)}
	if len(series) == 0 {
		return stats
	}
	stats.Start = series[0].Time
	stats.End = series[len(series)-1].Time
	stats.MinPrice = math.Inf(1)
	stats.MaxPrice = math.Inf(-1)
	gaps := make([]time.Duration, 0, len(series))
	var total time.Duration
	for i, s := range series {
		stats.MinPrice = math.Min(stats.MinPrice, s.Price)
		stats.MaxPrice = math.Max(stats.MaxPrice, s.Price)
		if i == 0 || !s.Time.Equal(series[i-1].Time) {
			stats.UniqueTimes++
		}
		if i > 0 {
			gap := s.Time.Sub(series[i-1].Time)
			gaps = append(gaps, gap)
			total += gap
		}
	}
	if len(gaps) > 0 {
		sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
		stats.Gaps = GapStats{
			Min:    gaps[0],
			Max:    gaps[len(gaps)-1],
			Mean:   total / time.Duration(len(gaps)),
			Median: median(gaps),
		}
	}
	if span := stats.End.Sub(stats.Start).Hours(); span > 0 {
		stats.SamplesPerHour = float64(len(series)) / span
	}
	return stats
}

func median(sorted []time.Duration) time.Duration {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
