package token

import "errors"

// Every mutation is gated by local precondition checks; any failure aborts
// the whole operation before the store transaction commits. These sentinels
// name the individual invariants.
var (
	ErrUnknownSymbol        = errors.New("token with symbol does not exist")
	ErrSymbolExists         = errors.New("token with symbol already exists")
	ErrIssuerNotOwner       = errors.New("issuer must be the ledger owner")
	ErrIssueToNonIssuer     = errors.New("tokens can only be issued to issuer account")
	ErrSupplyNotZero        = errors.New("issue can only be executed once for a given symbol")
	ErrMustIssuePositive    = errors.New("must issue positive quantity")
	ErrQuantityExceedsMax   = errors.New("quantity must be less than maximum supply")
	ErrMaxSupplyNotPositive = errors.New("max-supply must be positive")
	ErrMemoTooLong          = errors.New("memo has more than 256 bytes")
	ErrSelfTransfer         = errors.New("cannot transfer to self")
	ErrUnknownAccount       = errors.New("account does not exist")
	ErrIssuerTransfer       = errors.New("issuer may not transfer tokens")
	ErrMustTransferPositive = errors.New("must transfer positive quantity")
	ErrNoBalance            = errors.New("no balance object found")
	ErrOverdrawn            = errors.New("overdrawn balance")
	ErrBalanceNotZero       = errors.New("cannot close because the balance is not zero")
	ErrBalanceMissing       = errors.New("balance row already deleted or never existed")
	ErrRewardTooSmall       = errors.New("must reward positive quantity")
	ErrMineEmpty            = errors.New("this mine is empty, time to move on")
	ErrRewardImpossible     = errors.New("positive rewards are impossible: increase the max supply or symbol precision")
)
