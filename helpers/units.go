package helpers

import (
	"errors"
	"math/big"
	"regexp"
	"strings"
)

// ErrInvalidAmount is returned when a decimal amount string is malformed.
var ErrInvalidAmount = errors.New("invalid amount")

var amountRe = regexp.MustCompile(`^[0-9]*(\.[0-9]*)?$`)

// ValidDecimalInput reports whether s is acceptable while the user is still
// typing: digits with at most one decimal point, possibly empty on either side.
func ValidDecimalInput(s string) bool {
	return amountRe.MatchString(s)
}

// ToRaw converts a decimal string to the token's raw integer representation.
// The fractional part is right-padded with zeros to decimals digits, or
// truncated (never rounded) when longer. An empty integer part counts as zero.
func ToRaw(display string, decimals int) (*big.Int, error) {
	if !amountRe.MatchString(display) || display == "" || display == "." {
		return nil, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(display, ".")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", decimals-len(fracPart))

	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole.Mul(whole, scale)
	if fracPart != "" {
		frac, ok := new(big.Int).SetString(fracPart, 10)
		if !ok {
			return nil, ErrInvalidAmount
		}
		whole.Add(whole, frac)
	}
	return whole, nil
}

// ToDisplay converts a raw integer token amount to its exact decimal string
// with exactly decimals fractional digits. No floating point is involved.
func ToDisplay(raw *big.Int, decimals int) string {
	if raw == nil {
		raw = new(big.Int)
	}
	s := raw.String()
	if decimals == 0 {
		return s
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	return s[:len(s)-decimals] + "." + s[len(s)-decimals:]
}

// PctOfBalance derives pct percent of balance using integer arithmetic.
// pct is clamped to [0,100]; 100 returns the full balance.
func PctOfBalance(balance *big.Int, pct int) *big.Int {
	if balance == nil {
		return new(big.Int)
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	out := new(big.Int).Mul(balance, big.NewInt(int64(pct)))
	return out.Div(out, big.NewInt(100))
}

// FormatUnits renders a raw amount for display with trailing zeros trimmed.
func FormatUnits(raw *big.Int, decimals int) string {
	return TrimZeros(ToDisplay(raw, decimals))
}
