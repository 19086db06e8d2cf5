package market

import (
	"errors"
	"fmt"
	"time"

	"lp-hedge-backtest/internal/clmm"
)

var (
	ErrEmptySeries = errors.New("empty price series")
	ErrOutOfOrder  = errors.New("sample timestamp precedes previous sample")
)

// Sample is one observation of the tape. Series are read-only once loaded.
type Sample struct {
	Time  time.Time
	Price float64
}

// SampleError ties a data-level failure to the offending sample.
type SampleError struct {
	Index int
	Time  time.Time
	Err   error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d at %s: %v", e.Index, e.Time.UTC().Format(time.RFC3339Nano), e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}

// CheckSample validates s against its predecessor prev (nil for the first sample).
func CheckSample(index int, s Sample, prev *Sample) error {
	if err := clmm.CheckPrice(s.Price); err != nil {
		return &SampleError{Index: index, Time: s.Time, Err: err}
	}
	if prev != nil && s.Time.Before(prev.Time) {
		return &SampleError{Index: index, Time: s.Time, Err: ErrOutOfOrder}
	}
	return nil
}

// Validate checks the whole series: non-empty, positive finite prices and
// non-decreasing timestamps.
func Validate(series []Sample) error {
	if len(series) == 0 {
		return ErrEmptySeries
	}
	for i := range series {
		var prev *Sample
		if i > 0 {
			prev = &series[i-1]
		}
		if err := CheckSample(i, series[i], prev); err != nil {
			return err
		}
	}
	return nil
}
