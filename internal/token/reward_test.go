package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lodecoin/lodecoin/internal/asset"
)

func TestRewardTruncatesTowardZero(t *testing.T) {
	lode := asset.Symbol{Code: "LODE", Precision: 4}

	cases := []struct {
		supply int64
		want   int64
	}{
		{0, 0},
		{1_000_000, 0},              // 100.0000 LODE: 1%/year over 63M blocks rounds to nothing
		{6_307_199_999, 0},          // one minor unit short of the divisor
		{6_307_200_000, 1},          // exactly one minor unit per block
		{10_000_000_000, 1},         // 1,000,000.0000 LODE
		{100_000_000_000, 15},       // truncated from 15.85...
		{1_000_000_000_000, 158},    // truncated from 158.5...
	}
	for _, tc := range cases {
		got := Reward(asset.Asset{Amount: tc.supply, Symbol: lode})
		require.Equal(t, tc.want, got.Amount, "supply=%d", tc.supply)
		require.Equal(t, lode, got.Symbol)
	}
}

func TestRewardMatchesAnnualBudget(t *testing.T) {
	// A full year of block rewards must never exceed 1% of a constant supply.
	lode := asset.Symbol{Code: "LODE", Precision: 4}
	supply := int64(500_000_000_000)

	perBlock := Reward(asset.Asset{Amount: supply, Symbol: lode}).Amount
	annual := perBlock * int64(blocksPerYear)
	require.LessOrEqual(t, annual, supply/100)
}

func TestBlockTimeSlots(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, BlockTime(base), BlockTime(base.Add(499*time.Millisecond)))
	require.NotEqual(t, BlockTime(base), BlockTime(base.Add(500*time.Millisecond)))
	require.True(t, BlockTime(base.Add(BlockInterval)).After(BlockTime(base)))
}
