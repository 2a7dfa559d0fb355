package token

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errReadOnlyTx = errors.New("write inside read-only transaction")

type statRow struct {
	Stat  Stat
	Payer string
}

// MemoryStore keeps both ledger tables in process memory. Transactions stage
// writes on cloned maps and swap them in on commit, so a failing operation
// leaves no partial state. Used by tests and dev mode.
type MemoryStore struct {
	mu       sync.RWMutex
	stats    map[string]statRow
	accounts map[string]map[string]Account // symbol code -> owner -> row
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stats:    make(map[string]statRow),
		accounts: make(map[string]map[string]Account),
	}
}

// Update runs fn against staged copies of the tables and commits them only
// when fn returns nil.
func (s *MemoryStore) Update(_ context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		stats:    cloneStats(s.stats),
		accounts: cloneAccounts(s.accounts),
		writable: true,
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.stats = tx.stats
	s.accounts = tx.accounts
	return nil
}

// View runs fn against the live tables with writes rejected.
func (s *MemoryStore) View(_ context.Context, fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{stats: s.stats, accounts: s.accounts})
}

type memTx struct {
	stats    map[string]statRow
	accounts map[string]map[string]Account
	writable bool
}

func (t *memTx) Stat(code string) (Stat, bool, error) {
	row, ok := t.stats[code]
	return row.Stat, ok, nil
}

func (t *memTx) InsertStat(code string, st Stat, payer string) error {
	if !t.writable {
		return errReadOnlyTx
	}
	t.stats[code] = statRow{Stat: st, Payer: payer}
	return nil
}

func (t *memTx) UpdateStat(code string, st Stat) error {
	if !t.writable {
		return errReadOnlyTx
	}
	row, ok := t.stats[code]
	if !ok {
		return ErrUnknownSymbol
	}
	row.Stat = st
	t.stats[code] = row
	return nil
}

func (t *memTx) Account(code, owner string) (Account, bool, error) {
	row, ok := t.accounts[code][owner]
	return row, ok, nil
}

func (t *memTx) InsertAccount(code string, acct Account, payer string) error {
	if !t.writable {
		return errReadOnlyTx
	}
	acct.Payer = payer
	byOwner, ok := t.accounts[code]
	if !ok {
		byOwner = make(map[string]Account)
		t.accounts[code] = byOwner
	}
	byOwner[acct.Owner] = acct
	return nil
}

func (t *memTx) UpdateAccount(code string, acct Account) error {
	if !t.writable {
		return errReadOnlyTx
	}
	byOwner, ok := t.accounts[code]
	if !ok {
		return ErrNoBalance
	}
	existing, ok := byOwner[acct.Owner]
	if !ok {
		return ErrNoBalance
	}
	acct.Payer = existing.Payer
	byOwner[acct.Owner] = acct
	return nil
}

func (t *memTx) DeleteAccount(code, owner string) error {
	if !t.writable {
		return errReadOnlyTx
	}
	delete(t.accounts[code], owner)
	return nil
}

func (t *memTx) AccountsBySymbol(code string) ([]Account, error) {
	byOwner := t.accounts[code]
	owners := make([]string, 0, len(byOwner))
	for owner := range byOwner {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	rows := make([]Account, 0, len(owners))
	for _, owner := range owners {
		rows = append(rows, byOwner[owner])
	}
	return rows, nil
}

func cloneStats(src map[string]statRow) map[string]statRow {
	dst := make(map[string]statRow, len(src))
	for code, row := range src {
		dst[code] = row
	}
	return dst
}

func cloneAccounts(src map[string]map[string]Account) map[string]map[string]Account {
	dst := make(map[string]map[string]Account, len(src))
	for code, byOwner := range src {
		inner := make(map[string]Account, len(byOwner))
		for owner, row := range byOwner {
			inner[owner] = row
		}
		dst[code] = inner
	}
	return dst
}
