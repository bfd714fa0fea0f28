// Package amount converts between human decimal token amounts and their
// fixed-point integer representation on chain.
package amount

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the number of decimals of the STRK token.
const Decimals = 18

var (
	// two128 is 2^128, the weight of the high limb of a u256.
	two128 = new(big.Int).Lsh(big.NewInt(1), 128)
)

// pow10 returns 10^n.
func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ToFixedPoint parses a human decimal amount ("1.5", "20000", ".25") and returns
// amount * 10^decimals. Fractional digits beyond decimals are truncated toward zero.
func ToFixedPoint(amount string, decimals int) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative amount: %s", amount)
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, hasDot := strings.Cut(s, ".")
	if strings.Contains(frac, ".") {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	if whole == "" {
		whole = "0"
	}
	if hasDot && frac == "" && whole == "0" && !strings.HasPrefix(s, "0") {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}

	result, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	result.Mul(result, pow10(decimals))

	if len(frac) > decimals {
		frac = frac[:decimals]
	}
	if frac != "" {
		frac += strings.Repeat("0", decimals-len(frac))
		f, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, fmt.Errorf("invalid decimal: %s", amount)
		}
		result.Add(result, f)
	}

	return result, nil
}

// MustFixedPoint is ToFixedPoint for compile-time constants. It panics on malformed input.
func MustFixedPoint(amount string) *big.Int {
	v, err := ToFixedPoint(amount, Decimals)
	if err != nil {
		panic(err)
	}
	return v
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FromFixedPoint renders v / 10^decimals with the fractional part truncated to
// precision digits. When trim is set trailing zeros (and a bare dot) are removed.
func FromFixedPoint(v *big.Int, decimals, precision int, trim bool) string {
	if v == nil {
		v = new(big.Int)
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)

	div := pow10(decimals)
	whole, frac := new(big.Int).QuoRem(abs, div, new(big.Int))

	fracStr := frac.String()
	if len(fracStr) < decimals {
		fracStr = strings.Repeat("0", decimals-len(fracStr)) + fracStr
	}
	if precision < len(fracStr) {
		fracStr = fracStr[:precision]
	}
	if trim {
		fracStr = strings.TrimRight(fracStr, "0")
	}

	out := whole.String()
	if fracStr != "" {
		out += "." + fracStr
	}
	if neg && (whole.Sign() != 0 || strings.Trim(fracStr, "0") != "") {
		out = "-" + out
	}
	return out
}

// Format renders an 18-decimal amount with up to 6 fractional digits, trailing zeros removed.
func Format(v *big.Int) string {
	return FromFixedPoint(v, Decimals, 6, true)
}

// FormatFixed renders an 18-decimal amount with exactly 2 fractional digits.
func FormatFixed(v *big.Int) string {
	return FromFixedPoint(v, Decimals, 2, false)
}

// FormatString is Format for a decimal integer string as returned by the chain
// reader. Malformed input renders as "0".
func FormatString(s string) string {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return "0"
	}
	return Format(v)
}

// DecodeTwoLimb joins the two 128-bit halves of a u256: low + high<<128.
// Both limbs must be non-negative; a nil limb counts as zero.
func DecodeTwoLimb(low, high *big.Int) (*big.Int, error) {
	if low == nil {
		low = new(big.Int)
	}
	if high == nil {
		high = new(big.Int)
	}
	if low.Sign() < 0 || high.Sign() < 0 {
		return nil, fmt.Errorf("negative u256 limb")
	}
	out := new(big.Int).Mul(high, two128)
	return out.Add(out, low), nil
}
