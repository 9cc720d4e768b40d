// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package numeric holds the arbitrary precision helpers shared by the ledgers.
// Amounts are *big.Int, rates and fractions are decimal.Decimal. Results converted
// back to amounts are truncated toward zero.
package numeric

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places kept by divisions and powers.
const Precision = 18

var (
	hundred = decimal.NewFromInt(100)
	big1    = big.NewInt(1)
)

// Zero returns a new zero amount.
func Zero() *big.Int { return new(big.Int) }

// Dec converts an amount to a decimal.
func Dec(x *big.Int) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, 0)
}

// Truncate converts d to an amount, dropping the fractional part.
func Truncate(d decimal.Decimal) *big.Int {
	return d.BigInt()
}

// DivTrunc returns num / den truncated to an integer, without intermediate rounding.
func DivTrunc(num, den decimal.Decimal) *big.Int {
	q, _ := num.QuoRem(den, 0)
	return q.BigInt()
}

// MulFrac returns x * f truncated.
func MulFrac(x *big.Int, f decimal.Decimal) *big.Int {
	return Truncate(Dec(x).Mul(f))
}

// Ratio returns num / den. A zero denominator yields zero.
func Ratio(num, den *big.Int) decimal.Decimal {
	if den == nil || den.Sign() == 0 {
		return decimal.Zero
	}
	return Dec(num).DivRound(Dec(den), Precision)
}

// PercentOf returns part / whole * 100, with whole floored to 1.
func PercentOf(part, whole *big.Int) decimal.Decimal {
	return Ratio(part, math.BigMax(whole, big1)).Mul(hundred)
}

// AtLeastPercent reports part / whole * 100 >= pct without rounding, with whole
// floored to 1.
func AtLeastPercent(part, whole *big.Int, pct decimal.Decimal) bool {
	whole = math.BigMax(whole, big1)
	return Dec(part).Mul(hundred).GreaterThanOrEqual(pct.Mul(Dec(whole)))
}

// Bps returns part / whole in basis points, truncated, with whole floored to 1.
func Bps(part, whole *big.Int) uint64 {
	bps := new(big.Int).Mul(part, big.NewInt(10000))
	bps.Quo(bps, math.BigMax(whole, big1))
	if !bps.IsUint64() {
		return 0
	}
	return bps.Uint64()
}

// PowInt returns base^n by squaring, rounding every step to Precision places.
func PowInt(base decimal.Decimal, n uint64) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(Precision)
		}
		base = base.Mul(base).Round(Precision)
		n >>= 1
	}
	return result
}

// Clamp bounds x into [lo, hi]. The result is a new value.
func Clamp(x, lo, hi *big.Int) *big.Int {
	return new(big.Int).Set(math.BigMin(math.BigMax(x, lo), hi))
}

// ClampDec bounds d into [lo, hi].
func ClampDec(d, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(d, lo), hi)
}

// Sum adds all values into a new amount.
func Sum(xs ...*big.Int) *big.Int {
	total := new(big.Int)
	for _, x := range xs {
		if x != nil {
			total.Add(total, x)
		}
	}
	return total
}

// Copy returns a copy of x, treating nil as zero.
func Copy(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}

// Parse parses a base 10 amount.
func Parse(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
