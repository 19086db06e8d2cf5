package clmm

import "math"

// Balances are the token amounts held by a position: Base is the volatile asset
// (BTC), Quote the numeraire (USDC).
type Balances struct {
	Base  float64
	Quote float64
}

// BalancesAt applies the constant-liquidity amount formulas. Prices outside the
// range clamp to the boundary balances: all base below, all quote above.
func BalancesAt(r Range, price float64) (Balances, error) {
	if err := r.Check(); err != nil {
		return Balances{}, err
	}
	if err := CheckPrice(price); err != nil {
		return Balances{}, err
	}
	sqrtLower := math.Sqrt(r.Lower)
	sqrtUpper := math.Sqrt(r.Upper)
	switch {
	case price <= r.Lower:
		return Balances{Base: r.Liquidity * (1/sqrtLower - 1/sqrtUpper)}, nil
	case price >= r.Upper:
		return Balances{Quote: r.Liquidity * (sqrtUpper - sqrtLower)}, nil
	}
	sqrtPrice := math.Sqrt(price)
	base := r.Liquidity * (1/sqrtPrice - 1/sqrtUpper)
	quote := r.Liquidity * (sqrtPrice - sqrtLower)
	return Balances{
		Base:  clamp(base, 0, r.Liquidity*(1/sqrtLower-1/sqrtUpper)),
		Quote: clamp(quote, 0, r.Liquidity*(sqrtUpper-sqrtLower)),
	}, nil
}

func Value(b Balances, price float64) float64 {
	return b.Base*price + b.Quote
}

// HodlValue prices a fixed set of token quantities at price.
func HodlValue(initial Balances, price float64) float64 {
	return Value(initial, price)
}

// ImpermanentLoss is hodl minus LP value at exitPrice. Positive means the LP
// underperformed holding the initial tokens.
func ImpermanentLoss(initial Balances, initialPrice float64, current Balances, exitPrice float64) (float64, error) {
	if err := CheckPrice(initialPrice); err != nil {
		return 0, err
	}
	if err := CheckPrice(exitPrice); err != nil {
		return 0, err
	}
	return HodlValue(initial, exitPrice) - Value(current, exitPrice), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
