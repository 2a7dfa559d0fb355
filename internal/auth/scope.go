package auth

import (
	"errors"
	"fmt"
)

// ErrMissingAuthority indicates an operation was attempted without the
// signature of a required identity.
var ErrMissingAuthority = errors.New("missing required authority")

// Scope is the set of identities that signed the current request. The HTTP
// layer builds one per request from the bearer token plus any co-signer
// token; the ledger consults it for every authority check.
type Scope map[string]struct{}

// NewScope builds a scope from signer names.
func NewScope(names ...string) Scope {
	s := make(Scope, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Has reports whether the named identity signed the request.
func (s Scope) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Require returns ErrMissingAuthority unless the named identity signed the
// request.
func (s Scope) Require(name string) error {
	if !s.Has(name) {
		return fmt.Errorf("%w: %s", ErrMissingAuthority, name)
	}
	return nil
}
