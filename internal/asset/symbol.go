package asset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPrecision bounds the number of decimal places a symbol may carry. An
// int64 minor-unit amount overflows long before 18 digits of precision is
// useful, so anything above this is a configuration mistake.
const MaxPrecision = 18

// ErrInvalidSymbol indicates a malformed symbol code or precision.
var ErrInvalidSymbol = errors.New("invalid symbol name")

// Symbol identifies one token type: a short uppercase code plus the fixed
// number of decimal places its amounts are denominated in.
type Symbol struct {
	Code      string
	Precision uint8
}

// NewSymbol validates and builds a symbol.
func NewSymbol(code string, precision uint8) (Symbol, error) {
	s := Symbol{Code: code, Precision: precision}
	if !s.Valid() {
		return Symbol{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, code)
	}
	return s, nil
}

// ParseSymbol reads the "4,LODE" notation: precision, comma, code.
func ParseSymbol(s string) (Symbol, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return Symbol{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	precision, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return NewSymbol(parts[1], uint8(precision))
}

// Valid reports whether the code is 1-7 uppercase letters and the precision
// is within range.
func (s Symbol) Valid() bool {
	if len(s.Code) < 1 || len(s.Code) > 7 {
		return false
	}
	if s.Precision > MaxPrecision {
		return false
	}
	for _, c := range s.Code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// String renders the "4,LODE" notation.
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}
