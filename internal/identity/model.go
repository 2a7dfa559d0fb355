package identity

import "time"

// Actor represents a registered ledger identity: a miner, a token issuer, or
// the ledger owner itself. The name is the on-ledger account name used in
// balance rows and authority checks.
type Actor struct {
	ID           string
	Name         string
	PINHash      []byte
	TokenVersion int
	CreatedAt    time.Time
}

// Credentials request structure.
type Credentials struct {
	Name string
	PIN  string
}

// ValidName reports whether a string is a usable account name: 1-12
// characters drawn from lowercase letters, digits 1-5 and dots, not starting
// or ending with a dot.
func ValidName(name string) bool {
	if len(name) < 1 || len(name) > 12 {
		return false
	}
	if name[0] == '.' || name[len(name)-1] == '.' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '1' && c <= '5':
		case c == '.':
		default:
			return false
		}
	}
	return true
}
