package strategy

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidParameter = errors.New("invalid hedge parameter")

// Params are the tick thresholds of the hedge. NotionalUSD sizes each hedge as
// NotionalUSD/entry price base units.
type Params struct {
	ShortEntryTick    int
	LongEntryTick     int
	StopDistanceTicks int
	Resolution        int
	NotionalUSD       float64
}

func (p Params) ShortStopTick() int {
	return p.ShortEntryTick + p.StopDistanceTicks
}

func (p Params) LongStopTick() int {
	return p.LongEntryTick - p.StopDistanceTicks
}

func (p Params) Validate() error {
	if p.Resolution <= 0 {
		return fmt.Errorf("tick resolution %d must be > 0: %w", p.Resolution, ErrInvalidParameter)
	}
	if p.ShortEntryTick >= p.LongEntryTick {
		return fmt.Errorf("short entry tick %d must be below long entry tick %d: %w", p.ShortEntryTick, p.LongEntryTick, ErrInvalidParameter)
	}
	if p.StopDistanceTicks <= 0 {
		return fmt.Errorf("stop distance %d must be > 0: %w", p.StopDistanceTicks, ErrInvalidParameter)
	}
	if stop := p.ShortStopTick(); stop < 0 || stop > p.Resolution {
		return fmt.Errorf("short stop tick %d outside [0, %d]: %w", stop, p.Resolution, ErrInvalidParameter)
	}
	if stop := p.LongStopTick(); stop < 0 || stop > p.Resolution {
		return fmt.Errorf("long stop tick %d outside [0, %d]: %w", stop, p.Resolution, ErrInvalidParameter)
	}
	if math.IsNaN(p.NotionalUSD) || p.NotionalUSD <= 0 {
		return fmt.Errorf("hedge notional %v must be > 0: %w", p.NotionalUSD, ErrInvalidParameter)
	}
	return nil
}
