package asset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxAmount bounds minor-unit amounts so that sums of two valid amounts can
// never overflow int64.
const MaxAmount = (int64(1) << 62) - 1

var (
	// ErrInvalidAmount indicates an amount outside the representable range.
	ErrInvalidAmount = errors.New("invalid quantity")
	// ErrSymbolMismatch indicates arithmetic across different symbols or
	// precisions.
	ErrSymbolMismatch = errors.New("symbol precision mismatch")
)

// Asset is a fixed-point quantity of one symbol, held as a count of minor
// units. 100.0000 LODE at precision 4 is Amount=1000000.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// New builds an asset and validates it.
func New(amount int64, sym Symbol) (Asset, error) {
	a := Asset{Amount: amount, Symbol: sym}
	if !a.Symbol.Valid() {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, sym.Code)
	}
	if !a.Valid() {
		return Asset{}, ErrInvalidAmount
	}
	return a, nil
}

// Parse reads the canonical "100.0000 LODE" form. The number of decimal
// digits fixes the symbol precision.
func Parse(s string) (Asset, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	numeric, code := fields[0], fields[1]

	negative := strings.HasPrefix(numeric, "-")
	if negative {
		numeric = numeric[1:]
	}

	whole := numeric
	frac := ""
	if dot := strings.IndexByte(numeric, '.'); dot >= 0 {
		whole, frac = numeric[:dot], numeric[dot+1:]
	}
	if whole == "" || (frac == "" && strings.Contains(numeric, ".")) {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	sym, err := NewSymbol(code, uint8(len(frac)))
	if err != nil {
		return Asset{}, err
	}

	amount, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if negative {
		amount = -amount
	}
	return New(amount, sym)
}

// Valid reports whether the amount is inside the representable range and the
// symbol is well formed.
func (a Asset) Valid() bool {
	return a.Amount >= -MaxAmount && a.Amount <= MaxAmount && a.Symbol.Valid()
}

// Positive reports whether the amount is strictly greater than zero.
func (a Asset) Positive() bool {
	return a.Amount > 0
}

// Add returns a+b, failing on symbol mismatch or range overflow.
func (a Asset) Add(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, ErrSymbolMismatch
	}
	sum := Asset{Amount: a.Amount + b.Amount, Symbol: a.Symbol}
	if !sum.Valid() {
		return Asset{}, ErrInvalidAmount
	}
	return sum, nil
}

// Sub returns a-b, failing on symbol mismatch or range overflow.
func (a Asset) Sub(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, ErrSymbolMismatch
	}
	diff := Asset{Amount: a.Amount - b.Amount, Symbol: a.Symbol}
	if !diff.Valid() {
		return Asset{}, ErrInvalidAmount
	}
	return diff, nil
}

// String renders the canonical "100.0000 LODE" form.
func (a Asset) String() string {
	amount := a.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	p := int(a.Symbol.Precision)
	if p == 0 {
		return fmt.Sprintf("%s%s %s", sign, digits, a.Symbol.Code)
	}
	if len(digits) <= p {
		digits = strings.Repeat("0", p-len(digits)+1) + digits
	}
	cut := len(digits) - p
	return fmt.Sprintf("%s%s.%s %s", sign, digits[:cut], digits[cut:], a.Symbol.Code)
}
