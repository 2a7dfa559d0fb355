package token

import (
	"time"

	"github.com/lodecoin/lodecoin/internal/asset"
)

// BlockInterval is the discrete time unit mining is gated on. At most one
// reward per symbol can be claimed per interval.
const BlockInterval = 500 * time.Millisecond

const (
	blocksPerYear = 2 * 60 * 60 * 24 * 365 // half-second blocks
	inflationRate = 100                    // divisor form of 1% nominal annual

	// rewardDivisor spreads the annual inflation budget evenly across all
	// blocks in a year: supply / (100 * 63_072_000).
	rewardDivisor = int64(inflationRate) * blocksPerYear
)

// Reward computes the per-block inflation reward for the current supply.
// Integer division truncates toward zero, so supplies too small relative to
// the symbol precision yield a zero reward; that truncation is deliberate
// and keeps results identical across platforms.
func Reward(supply asset.Asset) asset.Asset {
	return asset.Asset{Amount: supply.Amount / rewardDivisor, Symbol: supply.Symbol}
}

// BlockTime truncates a wall-clock timestamp to its block slot. Two calls
// inside the same slot observe the same block time, which is what makes the
// single-claim-per-block comparison exact.
func BlockTime(t time.Time) time.Time {
	return t.Truncate(BlockInterval).UTC()
}

// Clock supplies the current block-chain-style timestamp. Production uses
// SystemClock; tests substitute a fixed clock to drive the mining guard.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host's wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
