package token

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lodecoin/lodecoin/internal/asset"
)

// PostgresStore persists the ledger tables in PostgreSQL. Row locks taken by
// SELECT ... FOR UPDATE inside a transaction give each operation the
// serialized, atomic execution the ledger relies on.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Update runs fn inside a read-write transaction, committing only on nil.
func (s *PostgresStore) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{ctx: ctx, tx: tx, writable: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// View runs fn inside a read-only transaction.
func (s *PostgresStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	ctx      context.Context
	tx       pgx.Tx
	writable bool
}

func (t *pgTx) Stat(code string) (Stat, bool, error) {
	query := `SELECT symbol_code, sym_precision, supply, max_supply, issuer, last_reward_time
        FROM tokens WHERE symbol_code = $1`
	if t.writable {
		query += ` FOR UPDATE`
	}

	var (
		symCode    string
		precision  uint8
		supply     int64
		maxSupply  int64
		issuer     string
		lastReward *time.Time
	)
	err := t.tx.QueryRow(t.ctx, query, code).Scan(&symCode, &precision, &supply, &maxSupply, &issuer, &lastReward)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stat{}, false, nil
	}
	if err != nil {
		return Stat{}, false, err
	}

	sym := asset.Symbol{Code: symCode, Precision: precision}
	st := Stat{
		Supply:    asset.Asset{Amount: supply, Symbol: sym},
		MaxSupply: asset.Asset{Amount: maxSupply, Symbol: sym},
		Issuer:    issuer,
	}
	if lastReward != nil {
		st.LastRewardTime = lastReward.UTC()
	}
	return st, true, nil
}

func (t *pgTx) InsertStat(code string, st Stat, payer string) error {
	_, err := t.tx.Exec(t.ctx, `INSERT INTO tokens
        (symbol_code, sym_precision, supply, max_supply, issuer, last_reward_time, payer, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		code, st.Supply.Symbol.Precision, st.Supply.Amount, st.MaxSupply.Amount,
		st.Issuer, lastRewardParam(st), payer, time.Now().UTC())
	return err
}

func (t *pgTx) UpdateStat(code string, st Stat) error {
	cmd, err := t.tx.Exec(t.ctx, `UPDATE tokens SET supply = $1, last_reward_time = $2
        WHERE symbol_code = $3`, st.Supply.Amount, lastRewardParam(st), code)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUnknownSymbol
	}
	return nil
}

func (t *pgTx) Account(code, owner string) (Account, bool, error) {
	query := `SELECT owner, sym_precision, amount, payer FROM balances
        WHERE symbol_code = $1 AND owner = $2`
	if t.writable {
		query += ` FOR UPDATE`
	}

	var (
		acct      Account
		precision uint8
		amount    int64
	)
	err := t.tx.QueryRow(t.ctx, query, code, owner).Scan(&acct.Owner, &precision, &amount, &acct.Payer)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, false, nil
	}
	if err != nil {
		return Account{}, false, err
	}
	acct.Balance = asset.Asset{Amount: amount, Symbol: asset.Symbol{Code: code, Precision: precision}}
	return acct, true, nil
}

func (t *pgTx) InsertAccount(code string, acct Account, payer string) error {
	_, err := t.tx.Exec(t.ctx, `INSERT INTO balances (symbol_code, owner, sym_precision, amount, payer)
        VALUES ($1, $2, $3, $4, $5)`,
		code, acct.Owner, acct.Balance.Symbol.Precision, acct.Balance.Amount, payer)
	return err
}

func (t *pgTx) UpdateAccount(code string, acct Account) error {
	cmd, err := t.tx.Exec(t.ctx, `UPDATE balances SET amount = $1
        WHERE symbol_code = $2 AND owner = $3`, acct.Balance.Amount, code, acct.Owner)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNoBalance
	}
	return nil
}

func (t *pgTx) DeleteAccount(code, owner string) error {
	_, err := t.tx.Exec(t.ctx, `DELETE FROM balances WHERE symbol_code = $1 AND owner = $2`, code, owner)
	return err
}

func (t *pgTx) AccountsBySymbol(code string) ([]Account, error) {
	rows, err := t.tx.Query(t.ctx, `SELECT owner, sym_precision, amount, payer FROM balances
        WHERE symbol_code = $1 ORDER BY owner`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var (
			acct      Account
			precision uint8
			amount    int64
		)
		if err := rows.Scan(&acct.Owner, &precision, &amount, &acct.Payer); err != nil {
			return nil, err
		}
		acct.Balance = asset.Asset{Amount: amount, Symbol: asset.Symbol{Code: code, Precision: precision}}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// lastRewardParam maps the zero time to NULL so "never rewarded" survives a
// round trip through the database.
func lastRewardParam(st Stat) *time.Time {
	if st.LastRewardTime.IsZero() {
		return nil
	}
	utc := st.LastRewardTime.UTC()
	return &utc
}
