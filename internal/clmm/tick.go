package clmm

import (
	"fmt"
	"math"
)

// Space selects the axis along which ticks are evenly spaced.
type Space string

const (
	SpacePrice Space = "price"
	SpaceSqrt  Space = "sqrt"
	SpaceLog   Space = "log"
)

const DefaultResolution = 100

// Mapper converts between prices and integer ticks in [0, Resolution] relative to a
// range. Tick 0 is the lower bound and Resolution the upper bound.
//
// The zero Space spaces ticks linearly in price, as NewMapper does for an empty
// space. SpaceSqrt and SpaceLog space them evenly along the sqrt-price or
// log-price axis the liquidity formulas use; they must be chosen explicitly.
type Mapper struct {
	Resolution int
	Space      Space
}

func NewMapper(resolution int, space Space) (Mapper, error) {
	if resolution <= 0 {
		return Mapper{}, fmt.Errorf("tick resolution %d must be > 0", resolution)
	}
	switch space {
	case "":
		space = SpacePrice
	case SpacePrice, SpaceSqrt, SpaceLog:
	default:
		return Mapper{}, fmt.Errorf("unknown tick space %q", space)
	}
	return Mapper{Resolution: resolution, Space: space}, nil
}

func (m Mapper) resolution() int {
	if m.Resolution <= 0 {
		return DefaultResolution
	}
	return m.Resolution
}

func (m Mapper) axis(price float64) float64 {
	switch m.Space {
	case SpaceSqrt:
		return math.Sqrt(price)
	case SpaceLog:
		return math.Log(price)
	default:
		return price
	}
}

func (m Mapper) fromAxis(v float64) float64 {
	switch m.Space {
	case SpaceSqrt:
		return v * v
	case SpaceLog:
		return math.Exp(v)
	default:
		return v
	}
}

// TickOf floors the position of price within the range; prices at or beyond a
// bound clamp to 0 or Resolution.
func (m Mapper) TickOf(price float64, r Range) (int, error) {
	if err := CheckPrice(price); err != nil {
		return 0, err
	}
	if !validPrice(r.Lower) || !validPrice(r.Upper) || r.Lower >= r.Upper {
		return 0, fmt.Errorf("bounds [%v, %v]: %w", r.Lower, r.Upper, ErrInvalidRange)
	}
	res := m.resolution()
	if price <= r.Lower {
		return 0, nil
	}
	if price >= r.Upper {
		return res, nil
	}
	lo, hi := m.axis(r.Lower), m.axis(r.Upper)
	pos := (m.axis(price) - lo) / (hi - lo) * float64(res)
	// absorb float noise so a price built from an exact tick maps back onto it
	tick := int(math.Floor(pos + 1e-9))
	if tick < 0 {
		return 0, nil
	}
	if tick > res {
		return res, nil
	}
	return tick, nil
}

// PriceOf returns the price at the lower edge of tick.
func (m Mapper) PriceOf(tick int, r Range) (float64, error) {
	if !validPrice(r.Lower) || !validPrice(r.Upper) || r.Lower >= r.Upper {
		return 0, fmt.Errorf("bounds [%v, %v]: %w", r.Lower, r.Upper, ErrInvalidRange)
	}
	res := m.resolution()
	if tick <= 0 {
		return r.Lower, nil
	}
	if tick >= res {
		return r.Upper, nil
	}
	lo, hi := m.axis(r.Lower), m.axis(r.Upper)
	return m.fromAxis(lo + (hi-lo)*float64(tick)/float64(res)), nil
}

// TickWidth is the widest price span covered by a single tick of r.
func (m Mapper) TickWidth(r Range) float64 {
	res := m.resolution()
	if m.Space == SpacePrice || m.Space == "" {
		return (r.Upper - r.Lower) / float64(res)
	}
	lo, hi := m.axis(r.Lower), m.axis(r.Upper)
	return r.Upper - m.fromAxis(hi-(hi-lo)/float64(res))
}
