package market

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

var q96 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

// PriceFromSqrtX96 converts a pool's sqrtPriceX96 (decimal or 0x hex) into quote
// per base in whole-token units. With invert the base asset is token1.
func PriceFromSqrtX96(raw string, baseDecimals, quoteDecimals int, invert bool) (float64, error) {
	value, ok := math.ParseBig256(strings.TrimSpace(raw))
	if !ok {
		return 0, fmt.Errorf("sqrtPriceX96 %q is not a 256-bit integer", raw)
	}
	if value.Sign() <= 0 {
		return 0, fmt.Errorf("sqrtPriceX96 %q must be positive", raw)
	}
	sqrtPrice := new(big.Float).SetPrec(256).SetInt(value)
	sqrtPrice.Quo(sqrtPrice, q96)
	ratio := new(big.Float).SetPrec(256).Mul(sqrtPrice, sqrtPrice)
	if invert {
		ratio.Quo(new(big.Float).SetPrec(256).SetInt64(1), ratio)
	}
	scale := new(big.Float).SetPrec(256).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(baseDecimals-quoteDecimals))), nil))
	if baseDecimals >= quoteDecimals {
		ratio.Mul(ratio, scale)
	} else {
		ratio.Quo(ratio, scale)
	}
	price, _ := ratio.Float64()
	return price, nil
}

// poolFilter keeps rows belonging to one pool contract.
type poolFilter struct {
	want common.Address
	on   bool
}

func newPoolFilter(address string) (poolFilter, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return poolFilter{}, nil
	}
	if !common.IsHexAddress(address) {
		return poolFilter{}, fmt.Errorf("pool address %q is not a hex address", address)
	}
	return poolFilter{want: common.HexToAddress(address), on: true}, nil
}

func (f poolFilter) keep(raw string) (bool, error) {
	if !f.on {
		return true, nil
	}
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return false, errors.New("pool column is not a hex address")
	}
	return common.HexToAddress(raw) == f.want, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
