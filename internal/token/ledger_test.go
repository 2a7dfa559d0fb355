package token

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lodecoin/lodecoin/internal/asset"
	"github.com/lodecoin/lodecoin/internal/auth"
	"github.com/lodecoin/lodecoin/internal/notification"
)

const ledgerOwner = "lode.ledger"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeAccounts map[string]bool

func (f fakeAccounts) IsAccount(_ context.Context, name string) (bool, error) {
	return f[name], nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *captureNotifier) Send(_ context.Context, event notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *captureNotifier) last(t *testing.T) notification.Event {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		t.Fatal("no events captured")
	}
	return n.events[len(n.events)-1]
}

type fixture struct {
	ledger   *Ledger
	store    *MemoryStore
	clock    *fakeClock
	accounts fakeAccounts
	notifier *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMemoryStore(),
		clock:    &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		accounts: fakeAccounts{ledgerOwner: true, "miner.one": true, "bob": true},
		notifier: &captureNotifier{},
	}
	f.ledger = NewLedger(ledgerOwner, f.store, f.clock, f.accounts, f.notifier)
	return f
}

func ownerScope() auth.Scope { return auth.NewScope(ledgerOwner) }

func mustAsset(t *testing.T, s string) asset.Asset {
	t.Helper()
	a, err := asset.Parse(s)
	require.NoError(t, err)
	return a
}

// checkConservation asserts the strict accounting identity: the sum of all
// balance rows for a symbol equals its recorded supply.
func checkConservation(t *testing.T, f *fixture, code string) {
	t.Helper()
	ctx := context.Background()
	st, err := f.ledger.GetSupply(ctx, code)
	require.NoError(t, err)
	rows, err := f.ledger.Holders(ctx, code)
	require.NoError(t, err)
	var sum int64
	for _, row := range rows {
		require.GreaterOrEqual(t, row.Balance.Amount, int64(0))
		sum += row.Balance.Amount
	}
	require.Equal(t, st.Supply.Amount, sum, "balances must sum to supply")
	require.GreaterOrEqual(t, st.Supply.Amount, int64(0))
	require.LessOrEqual(t, st.Supply.Amount, st.MaxSupply.Amount)
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	maxSupply := mustAsset(t, "1000000.0000 TOK")

	require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, maxSupply))

	st, err := f.ledger.GetSupply(ctx, "TOK")
	require.NoError(t, err)
	require.Equal(t, int64(0), st.Supply.Amount)
	require.Equal(t, maxSupply, st.MaxSupply)
	require.Equal(t, ledgerOwner, st.Issuer)
	require.True(t, st.LastRewardTime.IsZero())
}

func TestCreateRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	maxSupply := mustAsset(t, "1000000.0000 TOK")

	t.Run("requires owner authority", func(t *testing.T) {
		err := f.ledger.Create(ctx, auth.NewScope("bob"), ledgerOwner, maxSupply)
		require.ErrorIs(t, err, auth.ErrMissingAuthority)
	})

	t.Run("issuer must be owner", func(t *testing.T) {
		err := f.ledger.Create(ctx, ownerScope(), "bob", maxSupply)
		require.ErrorIs(t, err, ErrIssuerNotOwner)
	})

	t.Run("max supply must be positive", func(t *testing.T) {
		err := f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "0.0000 TOK"))
		require.ErrorIs(t, err, ErrMaxSupplyNotPositive)
	})

	t.Run("cap too small to ever reward", func(t *testing.T) {
		err := f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "100.0000 TINY"))
		require.ErrorIs(t, err, ErrRewardImpossible)
	})

	t.Run("duplicate symbol", func(t *testing.T) {
		require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, maxSupply))
		err := f.ledger.Create(ctx, ownerScope(), ledgerOwner, maxSupply)
		require.ErrorIs(t, err, ErrSymbolExists)
	})
}

func TestIssueGenesisScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1000000.0000 TOK")))

	err := f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "0.0000 TOK"), "genesis")
	require.ErrorIs(t, err, ErrMustIssuePositive)

	require.NoError(t, f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "100.0000 TOK"), "genesis"))

	st, err := f.ledger.GetSupply(ctx, "TOK")
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), st.Supply.Amount)

	balance, err := f.ledger.GetBalance(ctx, ledgerOwner, "TOK")
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), balance.Amount)

	err = f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1.0000 TOK"), "again")
	require.ErrorIs(t, err, ErrSupplyNotZero)

	checkConservation(t, f, "TOK")
}

func TestIssueRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1000000.0000 TOK")))

	t.Run("unknown symbol", func(t *testing.T) {
		err := f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1.0000 NOPE"), "")
		require.ErrorIs(t, err, ErrUnknownSymbol)
	})

	t.Run("requires issuer authority", func(t *testing.T) {
		err := f.ledger.Issue(ctx, auth.NewScope("bob"), ledgerOwner, mustAsset(t, "1.0000 TOK"), "")
		require.ErrorIs(t, err, auth.ErrMissingAuthority)
	})

	t.Run("only to issuer", func(t *testing.T) {
		err := f.ledger.Issue(ctx, ownerScope(), "bob", mustAsset(t, "1.0000 TOK"), "")
		require.ErrorIs(t, err, ErrIssueToNonIssuer)
	})

	t.Run("must stay under max supply", func(t *testing.T) {
		err := f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1000000.0000 TOK"), "")
		require.ErrorIs(t, err, ErrQuantityExceedsMax)
	})

	t.Run("precision mismatch", func(t *testing.T) {
		err := f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1.00 TOK"), "")
		require.ErrorIs(t, err, asset.ErrSymbolMismatch)
	})

	t.Run("oversized memo", func(t *testing.T) {
		memo := make([]byte, maxMemoBytes+1)
		err := f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1.0000 TOK"), string(memo))
		require.ErrorIs(t, err, ErrMemoTooLong)
	})

	// no partial state: every rejection above left supply at zero
	st, err := f.ledger.GetSupply(ctx, "TOK")
	require.NoError(t, err)
	require.Equal(t, int64(0), st.Supply.Amount)
}

// mineORE sets up a zero-precision symbol whose per-block reward is 15 minor
// units, then mines once so a non-issuer account holds tokens to move.
func mineORE(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1000000000000 ORE")))
	require.NoError(t, f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "100000000000 ORE"), "genesis"))

	f.clock.Advance(BlockInterval)
	res, err := f.ledger.Mine(ctx, auth.NewScope("miner.one"), "miner.one", asset.Symbol{Code: "ORE", Precision: 0})
	require.NoError(t, err)
	require.Equal(t, MineSucceeded, res.Outcome)
	require.Equal(t, int64(15), res.Reward.Amount)
}

func TestTransferConserves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mineORE(t, f)

	before, err := f.ledger.GetBalance(ctx, "miner.one", "ORE")
	require.NoError(t, err)

	require.NoError(t, f.ledger.Transfer(ctx, auth.NewScope("miner.one"), "miner.one", "bob", mustAsset(t, "10 ORE"), "share"))

	minerBal, err := f.ledger.GetBalance(ctx, "miner.one", "ORE")
	require.NoError(t, err)
	bobBal, err := f.ledger.GetBalance(ctx, "bob", "ORE")
	require.NoError(t, err)
	require.Equal(t, before.Amount, minerBal.Amount+bobBal.Amount)
	require.Equal(t, int64(10), bobBal.Amount)

	event := f.notifier.last(t)
	require.Equal(t, notification.KindTransfer, event.Kind)
	require.Equal(t, "miner.one", event.From)
	require.Equal(t, "bob", event.To)

	checkConservation(t, f, "ORE")
}

func TestTransferRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mineORE(t, f)
	one := mustAsset(t, "1 ORE")

	t.Run("self transfer", func(t *testing.T) {
		err := f.ledger.Transfer(ctx, auth.NewScope("miner.one"), "miner.one", "miner.one", one, "")
		require.ErrorIs(t, err, ErrSelfTransfer)
	})

	t.Run("requires sender authority", func(t *testing.T) {
		err := f.ledger.Transfer(ctx, auth.NewScope("bob"), "miner.one", "bob", one, "")
		require.ErrorIs(t, err, auth.ErrMissingAuthority)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		err := f.ledger.Transfer(ctx, auth.NewScope("miner.one"), "miner.one", "ghost", one, "")
		require.ErrorIs(t, err, ErrUnknownAccount)
	})

	t.Run("issuer may not transfer", func(t *testing.T) {
		err := f.ledger.Transfer(ctx, ownerScope(), ledgerOwner, "bob", one, "")
		require.ErrorIs(t, err, ErrIssuerTransfer)
	})

	t.Run("overdrawn", func(t *testing.T) {
		err := f.ledger.Transfer(ctx, auth.NewScope("miner.one"), "miner.one", "bob", mustAsset(t, "1000 ORE"), "")
		require.ErrorIs(t, err, ErrOverdrawn)
	})

	t.Run("no balance row", func(t *testing.T) {
		err := f.ledger.Transfer(ctx, auth.NewScope("bob"), "bob", "miner.one", one, "")
		require.ErrorIs(t, err, ErrNoBalance)
	})

	checkConservation(t, f, "ORE")
}

func TestTransferPayerSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mineORE(t, f)

	// recipient co-signed, so the new row is charged to bob
	require.NoError(t, f.ledger.Transfer(ctx, auth.NewScope("miner.one", "bob"), "miner.one", "bob", mustAsset(t, "5 ORE"), ""))

	rows, err := f.ledger.Holders(ctx, "ORE")
	require.NoError(t, err)
	for _, row := range rows {
		if row.Owner == "bob" {
			require.Equal(t, "bob", row.Payer)
			return
		}
	}
	t.Fatal("bob's balance row not found")
}

func TestOpenClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mineORE(t, f)
	ore := asset.Symbol{Code: "ORE", Precision: 0}

	t.Run("close nonzero balance aborts", func(t *testing.T) {
		err := f.ledger.Close(ctx, auth.NewScope("miner.one"), "miner.one", ore)
		require.ErrorIs(t, err, ErrBalanceNotZero)
		if _, err := f.ledger.GetBalance(ctx, "miner.one", "ORE"); err != nil {
			t.Fatalf("balance row must survive a failed close: %v", err)
		}
	})

	t.Run("open is idempotent and close deletes", func(t *testing.T) {
		require.NoError(t, f.ledger.Open(ctx, auth.NewScope("bob"), "bob", ore, "bob"))
		require.NoError(t, f.ledger.Open(ctx, auth.NewScope("bob"), "bob", ore, "bob"))

		balance, err := f.ledger.GetBalance(ctx, "bob", "ORE")
		require.NoError(t, err)
		require.Equal(t, int64(0), balance.Amount)

		require.NoError(t, f.ledger.Close(ctx, auth.NewScope("bob"), "bob", ore))
		_, err = f.ledger.GetBalance(ctx, "bob", "ORE")
		require.ErrorIs(t, err, ErrNoBalance)
	})

	t.Run("close missing row", func(t *testing.T) {
		err := f.ledger.Close(ctx, auth.NewScope("bob"), "bob", ore)
		require.ErrorIs(t, err, ErrBalanceMissing)
	})

	t.Run("open checks precision", func(t *testing.T) {
		err := f.ledger.Open(ctx, auth.NewScope("bob"), "bob", asset.Symbol{Code: "ORE", Precision: 2}, "bob")
		require.ErrorIs(t, err, asset.ErrSymbolMismatch)
	})

	t.Run("open unknown owner", func(t *testing.T) {
		err := f.ledger.Open(ctx, auth.NewScope("bob"), "ghost", ore, "bob")
		require.ErrorIs(t, err, ErrUnknownAccount)
	})
}

func TestMineScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// precision 8: a genesis of 100.00000000 LODE yields exactly one minor
	// unit per block
	lode := asset.Symbol{Code: "LODE", Precision: 8}
	require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1000.00000000 LODE")))
	require.NoError(t, f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "100.00000000 LODE"), "genesis"))

	minerScope := auth.NewScope("miner.one")
	f.clock.Advance(BlockInterval)

	res, err := f.ledger.Mine(ctx, minerScope, "miner.one", lode)
	require.NoError(t, err)
	require.Equal(t, MineSucceeded, res.Outcome)
	require.Equal(t, int64(1), res.Reward.Amount)
	require.Equal(t, notification.KindMiningReward, f.notifier.last(t).Kind)

	stAfterFirst, err := f.ledger.GetSupply(ctx, "LODE")
	require.NoError(t, err)
	require.Equal(t, int64(10_000_000_001), stAfterFirst.Supply.Amount)

	// same block: Fail outcome, receipt emitted, zero mutation
	res, err = f.ledger.Mine(ctx, minerScope, "miner.one", lode)
	require.NoError(t, err)
	require.Equal(t, MineFailed, res.Outcome)
	require.Equal(t, notification.KindMiningFail, f.notifier.last(t).Kind)

	stAfterFail, err := f.ledger.GetSupply(ctx, "LODE")
	require.NoError(t, err)
	require.Equal(t, stAfterFirst.Supply, stAfterFail.Supply)
	require.Equal(t, stAfterFirst.LastRewardTime, stAfterFail.LastRewardTime)

	balance, err := f.ledger.GetBalance(ctx, "miner.one", "LODE")
	require.NoError(t, err)
	require.Equal(t, int64(1), balance.Amount)

	// next block: reward recomputed from the new supply and claimed again
	f.clock.Advance(BlockInterval)
	res, err = f.ledger.Mine(ctx, minerScope, "miner.one", lode)
	require.NoError(t, err)
	require.Equal(t, MineSucceeded, res.Outcome)
	require.True(t, res.MinedAt.After(stAfterFirst.LastRewardTime))

	checkConservation(t, f, "LODE")
}

func TestMineRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	minerScope := auth.NewScope("miner.one")

	t.Run("requires miner authority", func(t *testing.T) {
		_, err := f.ledger.Mine(ctx, auth.NewScope("bob"), "miner.one", asset.Symbol{Code: "ORE", Precision: 0})
		require.ErrorIs(t, err, auth.ErrMissingAuthority)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := f.ledger.Mine(ctx, minerScope, "miner.one", asset.Symbol{Code: "NOPE", Precision: 0})
		require.ErrorIs(t, err, ErrUnknownSymbol)
	})

	t.Run("reward too small before genesis", func(t *testing.T) {
		require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1000000.0000 TOK")))
		f.clock.Advance(BlockInterval)
		_, err := f.ledger.Mine(ctx, minerScope, "miner.one", asset.Symbol{Code: "TOK", Precision: 4})
		require.ErrorIs(t, err, ErrRewardTooSmall)
	})

	t.Run("precision mismatch", func(t *testing.T) {
		_, err := f.ledger.Mine(ctx, minerScope, "miner.one", asset.Symbol{Code: "TOK", Precision: 2})
		require.ErrorIs(t, err, asset.ErrSymbolMismatch)
	})
}

func TestMineEmptyAtCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// headroom of 1 minor unit is below the 158-unit block reward
	require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1000000000000 ORE")))
	require.NoError(t, f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "999999999999 ORE"), "genesis"))

	f.clock.Advance(BlockInterval)
	_, err := f.ledger.Mine(ctx, auth.NewScope("miner.one"), "miner.one", asset.Symbol{Code: "ORE", Precision: 0})
	require.ErrorIs(t, err, ErrMineEmpty)

	st, err := f.ledger.GetSupply(ctx, "ORE")
	require.NoError(t, err)
	require.Equal(t, int64(999_999_999_999), st.Supply.Amount)
	require.True(t, st.LastRewardTime.IsZero())
}

func TestMineSupplyStaysBounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1000000000000 ORE")))
	require.NoError(t, f.ledger.Issue(ctx, ownerScope(), ledgerOwner, mustAsset(t, "100000000000 ORE"), "genesis"))

	minerScope := auth.NewScope("miner.one")
	for i := 0; i < 50; i++ {
		f.clock.Advance(BlockInterval)
		res, err := f.ledger.Mine(ctx, minerScope, "miner.one", asset.Symbol{Code: "ORE", Precision: 0})
		require.NoError(t, err)
		require.Equal(t, MineSucceeded, res.Outcome)
		checkConservation(t, f, "ORE")
	}
}

func TestReceipts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ledger.Create(ctx, ownerScope(), ledgerOwner, mustAsset(t, "1000000.0000 TOK")))

	reward := mustAsset(t, "0.0001 TOK")

	t.Run("miningreward requires issuer authority", func(t *testing.T) {
		err := f.ledger.MiningReward(ctx, auth.NewScope("miner.one"), ledgerOwner, "miner.one", reward, "Success!")
		require.ErrorIs(t, err, auth.ErrMissingAuthority)
	})

	t.Run("miningreward propagates", func(t *testing.T) {
		require.NoError(t, f.ledger.MiningReward(ctx, ownerScope(), ledgerOwner, "miner.one", reward, "Success!"))
		event := f.notifier.last(t)
		require.Equal(t, notification.KindMiningReward, event.Kind)
		require.Equal(t, "miner.one", event.To)
		require.Equal(t, "0.0001 TOK", event.Quantity)
	})

	t.Run("miningfail checks symbol", func(t *testing.T) {
		err := f.ledger.MiningFail(ctx, ownerScope(), ledgerOwner, "miner.one", asset.Symbol{Code: "NOPE", Precision: 0}, "Fail")
		require.ErrorIs(t, err, ErrUnknownSymbol)
	})

	t.Run("miningfail propagates", func(t *testing.T) {
		require.NoError(t, f.ledger.MiningFail(ctx, ownerScope(), ledgerOwner, "miner.one", asset.Symbol{Code: "TOK", Precision: 4}, "Fail"))
		require.Equal(t, notification.KindMiningFail, f.notifier.last(t).Kind)
	})
}

func TestFailedOperationLeavesNoPartialState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mineORE(t, f)

	stBefore, err := f.ledger.GetSupply(ctx, "ORE")
	require.NoError(t, err)
	rowsBefore, err := f.ledger.Holders(ctx, "ORE")
	require.NoError(t, err)

	// overdraw fails after the stat row was read inside the same transaction
	err = f.ledger.Transfer(ctx, auth.NewScope("miner.one"), "miner.one", "bob", mustAsset(t, "999 ORE"), "")
	require.ErrorIs(t, err, ErrOverdrawn)

	stAfter, err := f.ledger.GetSupply(ctx, "ORE")
	require.NoError(t, err)
	rowsAfter, err := f.ledger.Holders(ctx, "ORE")
	require.NoError(t, err)
	require.Equal(t, stBefore, stAfter)
	require.Equal(t, rowsBefore, rowsAfter)
}
