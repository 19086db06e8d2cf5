package clmm

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidPrice = errors.New("invalid price")
	ErrInvalidRange = errors.New("invalid range")
)

// Range is an active liquidity band. Liquidity is fixed for the life of the range.
type Range struct {
	Lower     float64
	Upper     float64
	Mid       float64
	Liquidity float64
}

func NewRange(lower, upper, liquidity float64) (Range, error) {
	if !validPrice(lower) || !validPrice(upper) || lower >= upper {
		return Range{}, fmt.Errorf("bounds [%v, %v]: %w", lower, upper, ErrInvalidRange)
	}
	if math.IsNaN(liquidity) || math.IsInf(liquidity, 0) || liquidity < 0 {
		return Range{}, fmt.Errorf("liquidity %v: %w", liquidity, ErrInvalidRange)
	}
	return Range{Lower: lower, Upper: upper, Mid: (lower + upper) / 2, Liquidity: liquidity}, nil
}

// RangeAround centers a zero-liquidity range on mid with bounds mid*(1±width/2).
func RangeAround(mid, width float64) (Range, error) {
	if err := CheckPrice(mid); err != nil {
		return Range{}, err
	}
	if math.IsNaN(width) || width <= 0 || width >= 2 {
		return Range{}, fmt.Errorf("width fraction %v: %w", width, ErrInvalidRange)
	}
	r, err := NewRange(mid*(1-width/2), mid*(1+width/2), 0)
	if err != nil {
		return Range{}, err
	}
	r.Mid = mid
	return r, nil
}

// LiquidityForCapital sizes L so the position is worth capital at price.
func LiquidityForCapital(r Range, price, capital float64) (float64, error) {
	if err := r.Check(); err != nil {
		return 0, err
	}
	if err := CheckPrice(price); err != nil {
		return 0, err
	}
	if math.IsNaN(capital) || capital <= 0 {
		return 0, fmt.Errorf("capital %v: %w", capital, ErrInvalidRange)
	}
	unit, err := BalancesAt(Range{Lower: r.Lower, Upper: r.Upper, Mid: r.Mid, Liquidity: 1}, price)
	if err != nil {
		return 0, err
	}
	perUnit := Value(unit, price)
	if perUnit <= 0 {
		return 0, fmt.Errorf("zero value per unit liquidity at %v: %w", price, ErrInvalidRange)
	}
	return capital / perUnit, nil
}

// OpenPosition creates a range centered on mid, funded with capital at mid.
func OpenPosition(mid, width, capital float64) (Range, Balances, error) {
	r, err := RangeAround(mid, width)
	if err != nil {
		return Range{}, Balances{}, err
	}
	liquidity, err := LiquidityForCapital(r, mid, capital)
	if err != nil {
		return Range{}, Balances{}, err
	}
	r.Liquidity = liquidity
	balances, err := BalancesAt(r, mid)
	if err != nil {
		return Range{}, Balances{}, err
	}
	return r, balances, nil
}

func (r Range) Check() error {
	if !validPrice(r.Lower) || !validPrice(r.Upper) || r.Lower >= r.Upper {
		return fmt.Errorf("bounds [%v, %v]: %w", r.Lower, r.Upper, ErrInvalidRange)
	}
	if math.IsNaN(r.Liquidity) || r.Liquidity < 0 {
		return fmt.Errorf("liquidity %v: %w", r.Liquidity, ErrInvalidRange)
	}
	return nil
}

// Active reports whether price is strictly inside the bounds. A touch of either
// bound leaves the position single-sided and counts as an exit.
func (r Range) Active(price float64) bool {
	return price > r.Lower && price < r.Upper
}

func CheckPrice(price float64) error {
	if !validPrice(price) {
		return fmt.Errorf("price %v: %w", price, ErrInvalidPrice)
	}
	return nil
}

func validPrice(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0) && price > 0
}
