package token

import "context"

// Store provides atomic, serialized transactions over the two ledger tables.
// Update runs fn against a writable transaction and commits only if fn
// returns nil; any error discards every staged write, which is what makes a
// failing precondition abort an operation with no residual effects. View
// runs fn read-only.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// Tx is the table access surface inside one transaction. Supply records are
// keyed by symbol code; balance rows by (symbol code, owner). Inserts record
// the payer whose resources fund the row.
type Tx interface {
	Stat(code string) (Stat, bool, error)
	InsertStat(code string, st Stat, payer string) error
	UpdateStat(code string, st Stat) error

	Account(code, owner string) (Account, bool, error)
	InsertAccount(code string, acct Account, payer string) error
	UpdateAccount(code string, acct Account) error
	DeleteAccount(code, owner string) error

	// AccountsBySymbol returns every balance row for a symbol in owner
	// order. Used by audits that verify conservation.
	AccountsBySymbol(code string) ([]Account, error)
}
