package token

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lodecoin/lodecoin/internal/asset"
	"github.com/lodecoin/lodecoin/internal/auth"
	"github.com/lodecoin/lodecoin/internal/notification"
)

const maxMemoBytes = 256

// AccountOracle answers whether an identity exists. Backed by the identity
// registry in production.
type AccountOracle interface {
	IsAccount(ctx context.Context, name string) (bool, error)
}

// Ledger is the accounting engine: per-symbol supply records, per-account
// balance rows, and the time-gated mining schedule. Every operation
// validates its preconditions against the store, mutates atomically, and may
// emit a receipt event. The owner identity is explicit configuration, not
// ambient state.
type Ledger struct {
	owner    string
	store    Store
	clock    Clock
	accounts AccountOracle
	notifier notification.Notifier
}

// NewLedger builds a ledger around a store and its collaborators.
func NewLedger(owner string, store Store, clock Clock, accounts AccountOracle, notifier notification.Notifier) *Ledger {
	return &Ledger{owner: owner, store: store, clock: clock, accounts: accounts, notifier: notifier}
}

// Owner returns the ledger-owner identity.
func (l *Ledger) Owner() string { return l.owner }

// Create registers a new symbol with a fixed cap and issuer. Only the ledger
// owner may create symbols, and the issuer must be the owner itself. The cap
// must be large enough that mining can ever pay a positive reward.
func (l *Ledger) Create(ctx context.Context, scope auth.Scope, issuer string, maxSupply asset.Asset) error {
	if err := scope.Require(l.owner); err != nil {
		return err
	}
	sym := maxSupply.Symbol
	if !sym.Valid() {
		return asset.ErrInvalidSymbol
	}
	if !maxSupply.Valid() {
		return asset.ErrInvalidAmount
	}
	if !maxSupply.Positive() {
		return ErrMaxSupplyNotPositive
	}
	if issuer != l.owner {
		return ErrIssuerNotOwner
	}
	if !Reward(maxSupply).Positive() {
		return ErrRewardImpossible
	}

	return l.store.Update(ctx, func(tx Tx) error {
		if _, exists, err := tx.Stat(sym.Code); err != nil {
			return err
		} else if exists {
			return ErrSymbolExists
		}
		st := Stat{
			Supply:    asset.Asset{Amount: 0, Symbol: sym},
			MaxSupply: maxSupply,
			Issuer:    issuer,
		}
		return tx.InsertStat(sym.Code, st, l.owner)
	})
}

// Issue performs the one-time genesis mint: the issuer credits itself with
// the starting supply. Every later increase comes from mining.
func (l *Ledger) Issue(ctx context.Context, scope auth.Scope, to string, quantity asset.Asset, memo string) error {
	sym := quantity.Symbol
	if !sym.Valid() {
		return asset.ErrInvalidSymbol
	}
	if len(memo) > maxMemoBytes {
		return ErrMemoTooLong
	}

	return l.store.Update(ctx, func(tx Tx) error {
		st, exists, err := tx.Stat(sym.Code)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: create token before issue", ErrUnknownSymbol)
		}
		if err := scope.Require(st.Issuer); err != nil {
			return err
		}
		if to != st.Issuer {
			return ErrIssueToNonIssuer
		}
		if st.Supply.Amount != 0 {
			return ErrSupplyNotZero
		}
		if !quantity.Valid() {
			return asset.ErrInvalidAmount
		}
		if !quantity.Positive() {
			return ErrMustIssuePositive
		}
		if quantity.Amount >= st.MaxSupply.Amount {
			return ErrQuantityExceedsMax
		}
		if quantity.Symbol != st.Supply.Symbol {
			return asset.ErrSymbolMismatch
		}

		supply, err := st.Supply.Add(quantity)
		if err != nil {
			return err
		}
		st.Supply = supply
		if err := tx.UpdateStat(sym.Code, st); err != nil {
			return err
		}
		return addBalance(tx, st.Issuer, quantity, st.Issuer)
	})
}

// Transfer moves tokens between two non-issuer accounts. The recipient pays
// for a newly created balance row when it co-signed the request, otherwise
// the sender does.
func (l *Ledger) Transfer(ctx context.Context, scope auth.Scope, from, to string, quantity asset.Asset, memo string) error {
	if from == to {
		return ErrSelfTransfer
	}
	if err := scope.Require(from); err != nil {
		return err
	}
	if ok, err := l.accounts.IsAccount(ctx, to); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, to)
	}
	if len(memo) > maxMemoBytes {
		return ErrMemoTooLong
	}

	sym := quantity.Symbol
	err := l.store.Update(ctx, func(tx Tx) error {
		st, exists, err := tx.Stat(sym.Code)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUnknownSymbol
		}
		if from == st.Issuer {
			return ErrIssuerTransfer
		}
		if !quantity.Valid() {
			return asset.ErrInvalidAmount
		}
		if !quantity.Positive() {
			return ErrMustTransferPositive
		}
		if quantity.Symbol != st.Supply.Symbol {
			return asset.ErrSymbolMismatch
		}

		payer := from
		if scope.Has(to) {
			payer = to
		}

		if err := subBalance(tx, from, quantity); err != nil {
			return err
		}
		return addBalance(tx, to, quantity, payer)
	})
	if err != nil {
		return err
	}

	l.emit(ctx, notification.Event{
		Kind:     notification.KindTransfer,
		From:     from,
		To:       to,
		Quantity: quantity.String(),
		Symbol:   sym.String(),
		Memo:     memo,
	})
	return nil
}

// Open creates a zero balance row for owner, paid for by payer. A no-op when
// the row already exists.
func (l *Ledger) Open(ctx context.Context, scope auth.Scope, owner string, sym asset.Symbol, payer string) error {
	if err := scope.Require(payer); err != nil {
		return err
	}
	if ok, err := l.accounts.IsAccount(ctx, owner); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, owner)
	}

	return l.store.Update(ctx, func(tx Tx) error {
		st, exists, err := tx.Stat(sym.Code)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUnknownSymbol
		}
		if st.Supply.Symbol != sym {
			return asset.ErrSymbolMismatch
		}

		if _, found, err := tx.Account(sym.Code, owner); err != nil {
			return err
		} else if found {
			return nil
		}
		acct := Account{Owner: owner, Balance: asset.Asset{Amount: 0, Symbol: sym}}
		return tx.InsertAccount(sym.Code, acct, payer)
	})
}

// Close deletes owner's zero balance row, releasing its storage.
func (l *Ledger) Close(ctx context.Context, scope auth.Scope, owner string, sym asset.Symbol) error {
	if err := scope.Require(owner); err != nil {
		return err
	}

	return l.store.Update(ctx, func(tx Tx) error {
		acct, found, err := tx.Account(sym.Code, owner)
		if err != nil {
			return err
		}
		if !found {
			return ErrBalanceMissing
		}
		if acct.Balance.Amount != 0 {
			return ErrBalanceNotZero
		}
		return tx.DeleteAccount(sym.Code, owner)
	})
}

// Mine claims the inflation reward for the current block. When a reward was
// already claimed in this block the call commits nothing and reports the
// Fail outcome as a receipt; host-serialized execution makes the
// compare-then-update on LastRewardTime race-free.
func (l *Ledger) Mine(ctx context.Context, scope auth.Scope, miner string, sym asset.Symbol) (MineResult, error) {
	if err := scope.Require(miner); err != nil {
		return MineResult{}, err
	}
	if !sym.Valid() {
		return MineResult{}, asset.ErrInvalidSymbol
	}

	var (
		result MineResult
		issuer string
	)
	err := l.store.Update(ctx, func(tx Tx) error {
		st, exists, err := tx.Stat(sym.Code)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUnknownSymbol
		}
		if sym != st.Supply.Symbol {
			return asset.ErrSymbolMismatch
		}
		issuer = st.Issuer

		now := BlockTime(l.clock.Now())
		if !st.LastRewardTime.Before(now) {
			result = MineResult{Outcome: MineFailed, Supply: st.Supply, MinedAt: now}
			return nil
		}

		reward := Reward(st.Supply)
		if !reward.Valid() {
			return asset.ErrInvalidAmount
		}
		if !reward.Positive() {
			return ErrRewardTooSmall
		}
		if reward.Amount > st.Headroom() {
			return ErrMineEmpty
		}

		supply, err := st.Supply.Add(reward)
		if err != nil {
			return err
		}
		st.LastRewardTime = now
		st.Supply = supply
		if err := tx.UpdateStat(sym.Code, st); err != nil {
			return err
		}
		if err := addBalance(tx, miner, reward, miner); err != nil {
			return err
		}

		result = MineResult{Outcome: MineSucceeded, Reward: reward, Supply: supply, MinedAt: now}
		return nil
	})
	if err != nil {
		return MineResult{}, err
	}

	switch result.Outcome {
	case MineSucceeded:
		l.emit(ctx, notification.Event{
			Kind:     notification.KindMiningReward,
			From:     issuer,
			To:       miner,
			Quantity: result.Reward.String(),
			Symbol:   sym.String(),
			Memo:     "Success!",
		})
	case MineFailed:
		l.emit(ctx, notification.Event{
			Kind:   notification.KindMiningFail,
			From:   issuer,
			To:     miner,
			Symbol: sym.String(),
			Memo:   "Fail",
		})
	}
	return result, nil
}

// MiningReward is the issuer-signed receipt for a successful mining claim.
// It validates and propagates the event to both parties without touching
// ledger state.
func (l *Ledger) MiningReward(ctx context.Context, scope auth.Scope, from, to string, reward asset.Asset, memo string) error {
	if err := l.requireIssuer(ctx, scope, reward.Symbol.Code); err != nil {
		return err
	}
	l.emit(ctx, notification.Event{
		Kind:     notification.KindMiningReward,
		From:     from,
		To:       to,
		Quantity: reward.String(),
		Symbol:   reward.Symbol.String(),
		Memo:     memo,
	})
	return nil
}

// MiningFail is the issuer-signed receipt for a rejected mining claim.
func (l *Ledger) MiningFail(ctx context.Context, scope auth.Scope, from, to string, sym asset.Symbol, memo string) error {
	if err := l.requireIssuer(ctx, scope, sym.Code); err != nil {
		return err
	}
	l.emit(ctx, notification.Event{
		Kind:   notification.KindMiningFail,
		From:   from,
		To:     to,
		Symbol: sym.String(),
		Memo:   memo,
	})
	return nil
}

// GetSupply returns the supply record for a symbol code.
func (l *Ledger) GetSupply(ctx context.Context, code string) (Stat, error) {
	var st Stat
	err := l.store.View(ctx, func(tx Tx) error {
		found := false
		var err error
		st, found, err = tx.Stat(code)
		if err != nil {
			return err
		}
		if !found {
			return ErrUnknownSymbol
		}
		return nil
	})
	return st, err
}

// GetBalance returns owner's balance row for a symbol code.
func (l *Ledger) GetBalance(ctx context.Context, owner, code string) (asset.Asset, error) {
	var balance asset.Asset
	err := l.store.View(ctx, func(tx Tx) error {
		acct, found, err := tx.Account(code, owner)
		if err != nil {
			return err
		}
		if !found {
			return ErrNoBalance
		}
		balance = acct.Balance
		return nil
	})
	return balance, err
}

// Holders returns every balance row for a symbol, in owner order.
func (l *Ledger) Holders(ctx context.Context, code string) ([]Account, error) {
	var rows []Account
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		rows, err = tx.AccountsBySymbol(code)
		return err
	})
	return rows, err
}

func (l *Ledger) requireIssuer(ctx context.Context, scope auth.Scope, code string) error {
	return l.store.View(ctx, func(tx Tx) error {
		st, exists, err := tx.Stat(code)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUnknownSymbol
		}
		return scope.Require(st.Issuer)
	})
}

// emit sends a receipt event; delivery is best effort and never fails the
// committed operation.
func (l *Ledger) emit(ctx context.Context, event notification.Event) {
	if l.notifier == nil {
		return
	}
	event.ID = uuid.NewString()
	event.At = l.clock.Now().UTC()
	_ = l.notifier.Send(ctx, event)
}

func subBalance(tx Tx, owner string, value asset.Asset) error {
	acct, found, err := tx.Account(value.Symbol.Code, owner)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoBalance
	}
	if acct.Balance.Amount < value.Amount {
		return ErrOverdrawn
	}
	balance, err := acct.Balance.Sub(value)
	if err != nil {
		return err
	}
	acct.Balance = balance
	return tx.UpdateAccount(value.Symbol.Code, acct)
}

func addBalance(tx Tx, owner string, value asset.Asset, payer string) error {
	acct, found, err := tx.Account(value.Symbol.Code, owner)
	if err != nil {
		return err
	}
	if !found {
		return tx.InsertAccount(value.Symbol.Code, Account{Owner: owner, Balance: value}, payer)
	}
	balance, err := acct.Balance.Add(value)
	if err != nil {
		return err
	}
	acct.Balance = balance
	return tx.UpdateAccount(value.Symbol.Code, acct)
}
