package token

import (
	"time"

	"github.com/lodecoin/lodecoin/internal/asset"
)

// Stat is the per-symbol supply record. Supply only ever increases (issue,
// mine) and never exceeds MaxSupply; LastRewardTime is monotonically
// non-decreasing. The zero LastRewardTime means no reward was ever claimed.
type Stat struct {
	Supply         asset.Asset
	MaxSupply      asset.Asset
	Issuer         string
	LastRewardTime time.Time
}

// Headroom is the remaining mintable amount under the cap.
func (s Stat) Headroom() int64 {
	return s.MaxSupply.Amount - s.Supply.Amount
}

// Account is one (owner, symbol) balance row. Payer records which identity's
// resources were charged when the row was created.
type Account struct {
	Owner   string
	Balance asset.Asset
	Payer   string
}

// MineOutcome distinguishes the two committed results of a mine call.
type MineOutcome string

const (
	// MineSucceeded means a reward was minted and credited.
	MineSucceeded MineOutcome = "success"
	// MineFailed means the per-block guard rejected the claim: a receipt was
	// emitted but no ledger state changed.
	MineFailed MineOutcome = "fail"
)

// MineResult reports the committed outcome of a mine call. A MineFailed
// result is a successful operation, not an error.
type MineResult struct {
	Outcome MineOutcome
	Reward  asset.Asset
	Supply  asset.Asset
	MinedAt time.Time
}
