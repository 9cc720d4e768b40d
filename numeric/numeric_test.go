// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package numeric

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMulFrac(t *testing.T) {
	assert.Equal(t, big.NewInt(200), MulFrac(big.NewInt(1000), decimal.RequireFromString("0.2")))
	assert.Equal(t, big.NewInt(65), MulFrac(big.NewInt(657), decimal.RequireFromString("0.1")))
	assert.Equal(t, big.NewInt(0), MulFrac(nil, decimal.NewFromInt(3)))
}

func TestDivTrunc(t *testing.T) {
	num := decimal.NewFromInt(10000).Mul(decimal.RequireFromString("0.08")).Mul(decimal.NewFromInt(30))
	assert.Equal(t, big.NewInt(65), DivTrunc(num, decimal.NewFromInt(365)))
	assert.Equal(t, big.NewInt(3), DivTrunc(decimal.NewFromInt(9), decimal.NewFromInt(3)))
}

func TestRatioAndPercent(t *testing.T) {
	assert.True(t, Ratio(big.NewInt(1), big.NewInt(2)).Equal(decimal.RequireFromString("0.5")))
	assert.True(t, Ratio(big.NewInt(1), big.NewInt(0)).IsZero())

	assert.True(t, PercentOf(big.NewInt(50000), big.NewInt(1000000)).Equal(decimal.NewFromInt(5)))
	assert.True(t, PercentOf(big.NewInt(3), big.NewInt(0)).Equal(decimal.NewFromInt(300)))
}

func TestAtLeastPercent(t *testing.T) {
	tests := []struct {
		part, whole int64
		pct         string
		want        bool
	}{
		{50000, 1000000, "5", true},
		{49999, 1000000, "5", false},
		{40000, 50000, "75", true},
		{2, 3, "66.67", false},
		{2, 3, "66.66", true},
		{0, 0, "0", true},
		{0, 0, "5", false},
	}
	for _, tt := range tests {
		got := AtLeastPercent(big.NewInt(tt.part), big.NewInt(tt.whole), decimal.RequireFromString(tt.pct))
		assert.Equal(t, tt.want, got, "%d/%d >= %s", tt.part, tt.whole, tt.pct)
	}
}

func TestBps(t *testing.T) {
	assert.Equal(t, uint64(500), Bps(big.NewInt(50000), big.NewInt(1000000)))
	assert.Equal(t, uint64(0), Bps(big.NewInt(0), big.NewInt(0)))
}

func TestPowInt(t *testing.T) {
	assert.True(t, PowInt(decimal.NewFromInt(2), 10).Equal(decimal.NewFromInt(1024)))
	assert.True(t, PowInt(decimal.RequireFromString("1.5"), 0).Equal(decimal.NewFromInt(1)))
	assert.True(t, PowInt(decimal.RequireFromString("0.5"), 3).Equal(decimal.RequireFromString("0.125")))
}

func TestClamp(t *testing.T) {
	lo, hi := big.NewInt(0), big.NewInt(10)
	assert.Equal(t, big.NewInt(0), Clamp(big.NewInt(-5), lo, hi))
	assert.Equal(t, big.NewInt(10), Clamp(big.NewInt(50), lo, hi))
	v := big.NewInt(4)
	c := Clamp(v, lo, hi)
	c.SetInt64(9)
	assert.Equal(t, int64(4), v.Int64())

	assert.True(t, ClampDec(decimal.NewFromInt(120), decimal.Zero, decimal.NewFromInt(100)).Equal(decimal.NewFromInt(100)))
}

func TestSumCopyParse(t *testing.T) {
	assert.Equal(t, big.NewInt(6), Sum(big.NewInt(1), nil, big.NewInt(5)))
	assert.Equal(t, big.NewInt(0), Copy(nil))
	v, ok := Parse("12345678901234567890123")
	assert.True(t, ok)
	assert.Equal(t, "12345678901234567890123", v.String())
	_, ok = Parse("x")
	assert.False(t, ok)
}
