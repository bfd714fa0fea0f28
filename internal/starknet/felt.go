// Package starknet is a small Starknet JSON-RPC client: felt encoding,
// entrypoint selectors, u256 calldata and read calls with endpoint failover.
package starknet

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// fieldPrime is the Stark field modulus 2^251 + 17*2^192 + 1.
var fieldPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	p.Add(p, new(big.Int).Lsh(big.NewInt(17), 192))
	return p.Add(p, big.NewInt(1))
}()

// ZeroAddress is returned when an address cannot be decoded.
const ZeroAddress = "0x0"

var ErrInvalidFelt = errors.New("invalid felt")

// ParseFelt accepts a 0x-prefixed hex or a decimal string and returns its
// value, which must lie in [0, P).
func ParseFelt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidFelt)
	}

	v := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s) == 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFelt, s)
		}
		_, ok = v.SetString(s[2:], 16)
	} else {
		_, ok = v.SetString(s, 10)
	}
	if !ok || v.Sign() < 0 || v.Cmp(fieldPrime) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFelt, s)
	}
	return v, nil
}

// FeltHex renders v as a minimal lowercase 0x-prefixed hex string.
func FeltHex(v *big.Int) string {
	if v == nil {
		return ZeroAddress
	}
	return "0x" + v.Text(16)
}

// FeltDecimal parses a felt and renders it in base 10.
func FeltDecimal(s string) (string, error) {
	v, err := ParseFelt(s)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// NormalizeAddress returns the canonical 0x + 64 hex digit form.
func NormalizeAddress(s string) (string, error) {
	v, err := ParseFelt(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%064x", v), nil
}

// IsAddress reports whether s decodes as a felt.
func IsAddress(s string) bool {
	_, err := ParseFelt(s)
	return err == nil
}

// SameAddress compares two addresses by value, ignoring case and padding.
func SameAddress(a, b string) bool {
	va, err := ParseFelt(a)
	if err != nil {
		return false
	}
	vb, err := ParseFelt(b)
	if err != nil {
		return false
	}
	return va.Cmp(vb) == 0
}
