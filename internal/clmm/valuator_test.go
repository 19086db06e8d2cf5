package clmm

import (
	"errors"
	"math"
	"testing"
	"testing/quick"
)

func testRange(t *testing.T) Range {
	t.Helper()
	r, err := NewRange(100, 121, 110)
	if err != nil {
		t.Fatalf("new range: %v", err)
	}
	return r
}

func TestBalancesBoundaryInvariant(t *testing.T) {
	r := testRange(t)
	atLower, err := BalancesAt(r, r.Lower)
	if err != nil {
		t.Fatalf("balances at lower: %v", err)
	}
	if atLower.Quote != 0 {
		t.Fatalf("expected zero quote at lower, got %v", atLower.Quote)
	}
	atUpper, err := BalancesAt(r, r.Upper)
	if err != nil {
		t.Fatalf("balances at upper: %v", err)
	}
	if atUpper.Base != 0 {
		t.Fatalf("expected zero base at upper, got %v", atUpper.Base)
	}
	if math.Abs(atLower.Base-110*(0.1-1.0/11)) > 1e-12 {
		t.Fatalf("unexpected base at lower: %v", atLower.Base)
	}
	if math.Abs(atUpper.Quote-110) > 1e-12 {
		t.Fatalf("unexpected quote at upper: %v", atUpper.Quote)
	}
}

func TestBalancesClampOutsideRange(t *testing.T) {
	r := testRange(t)
	below, _ := BalancesAt(r, 50)
	atLower, _ := BalancesAt(r, r.Lower)
	if below != atLower {
		t.Fatalf("expected below-range balances %v, got %v", atLower, below)
	}
	above, _ := BalancesAt(r, 500)
	atUpper, _ := BalancesAt(r, r.Upper)
	if above != atUpper {
		t.Fatalf("expected above-range balances %v, got %v", atUpper, above)
	}
}

func TestBalancesMonotonicInPrice(t *testing.T) {
	r := testRange(t)
	prev, _ := BalancesAt(r, r.Lower)
	for p := r.Lower + 0.5; p <= r.Upper; p += 0.5 {
		cur, err := BalancesAt(r, p)
		if err != nil {
			t.Fatalf("balances at %v: %v", p, err)
		}
		if cur.Base > prev.Base || cur.Quote < prev.Quote {
			t.Fatalf("balances not monotonic at %v: prev %v cur %v", p, prev, cur)
		}
		prev = cur
	}
}

func TestValueContinuousAcrossBounds(t *testing.T) {
	r := testRange(t)
	for _, bound := range []float64{r.Lower, r.Upper} {
		for _, eps := range []float64{-1e-9, 1e-9} {
			p := bound * (1 + eps)
			b, _ := BalancesAt(r, p)
			edge, _ := BalancesAt(r, bound)
			if diff := math.Abs(Value(b, p) - Value(edge, bound)); diff > 1e-6 {
				t.Fatalf("value jumps by %v near bound %v", diff, bound)
			}
		}
	}
}

func TestImpermanentLossHandComputed(t *testing.T) {
	r := testRange(t)
	initial, err := BalancesAt(r, 110.25)
	if err != nil {
		t.Fatalf("initial balances: %v", err)
	}
	exit, _ := BalancesAt(r, 121)
	il, err := ImpermanentLoss(initial, 110.25, exit, 121)
	if err != nil {
		t.Fatalf("impermanent loss: %v", err)
	}
	// base0 = 110*(1/10.5-1/11) = 55/115.5, quote0 = 55; LP exits with 110 quote.
	want := 55.0/115.5*121 + 55 - 110
	if math.Abs(il-want) > 1e-9 {
		t.Fatalf("expected IL %v, got %v", want, il)
	}
}

func TestImpermanentLossZeroWithoutMove(t *testing.T) {
	r, initial, err := OpenPosition(60000, 0.01, 2000)
	if err != nil {
		t.Fatalf("open position: %v", err)
	}
	current, _ := BalancesAt(r, 60000)
	il, err := ImpermanentLoss(initial, 60000, current, 60000)
	if err != nil {
		t.Fatalf("impermanent loss: %v", err)
	}
	if il != 0 {
		t.Fatalf("expected zero IL, got %v", il)
	}
}

func TestImpermanentLossNonNegative(t *testing.T) {
	r, initial, err := OpenPosition(60000, 0.01, 2000)
	if err != nil {
		t.Fatalf("open position: %v", err)
	}
	property := func(raw uint16) bool {
		// exit anywhere from 2% below to 2% above the midpoint
		exitPrice := 60000 * (0.98 + 0.04*float64(raw)/math.MaxUint16)
		current, err := BalancesAt(r, exitPrice)
		if err != nil {
			return false
		}
		il, err := ImpermanentLoss(initial, 60000, current, exitPrice)
		return err == nil && il >= -1e-9
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 500}); err != nil {
		t.Fatalf("IL sign property failed: %v", err)
	}
}

func TestLiquidityForCapitalValuesPosition(t *testing.T) {
	r, initial, err := OpenPosition(109000, 0.01, 2000)
	if err != nil {
		t.Fatalf("open position: %v", err)
	}
	if got := Value(initial, 109000); math.Abs(got-2000) > 1e-6 {
		t.Fatalf("expected position value 2000, got %v", got)
	}
	if r.Mid != 109000 {
		t.Fatalf("expected mid 109000, got %v", r.Mid)
	}
	if math.Abs(r.Lower-109000*0.995) > 1e-9 || math.Abs(r.Upper-109000*1.005) > 1e-9 {
		t.Fatalf("unexpected bounds [%v, %v]", r.Lower, r.Upper)
	}
}

func TestRangeErrors(t *testing.T) {
	if _, err := NewRange(10, 10, 1); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for lower == upper, got %v", err)
	}
	if _, err := NewRange(12, 10, 1); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for lower > upper, got %v", err)
	}
	if _, err := BalancesAt(Range{Lower: 5, Upper: 1, Liquidity: 1}, 3); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange from balances, got %v", err)
	}
	if _, err := BalancesAt(testRange(t), math.NaN()); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := RangeAround(100, 0); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for zero width, got %v", err)
	}
}

func TestZeroLiquidityRange(t *testing.T) {
	r, err := NewRange(100, 121, 0)
	if err != nil {
		t.Fatalf("zero liquidity should be allowed: %v", err)
	}
	b, err := BalancesAt(r, 110)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if b.Base != 0 || b.Quote != 0 {
		t.Fatalf("expected empty balances, got %v", b)
	}
}
