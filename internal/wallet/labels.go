package wallet

import (
	"strings"

	"github.com/starkstake/starkstake/internal/starknet"
)

// Wallet types understood by the StarkStake backend.
const (
	TypeArgent   = "ARGENT"
	TypeBraavos  = "BRAAVOS"
	TypeMetaMask = "METAMASK"
)

var walletTypes = map[string]string{
	"argentx":         TypeArgent,
	"argent":          TypeArgent,
	"argentwebwallet": TypeArgent,
	"braavos":         TypeBraavos,
	"metamask":        TypeMetaMask,
}

// WalletTypeFor maps a wallet id or name onto the catalog, defaulting to
// ARGENT.
func WalletTypeFor(id string) string {
	norm := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(id))

	if t, ok := walletTypes[norm]; ok {
		return t
	}
	switch {
	case strings.Contains(norm, "argent"):
		return TypeArgent
	case strings.Contains(norm, "braavos"):
		return TypeBraavos
	case strings.Contains(norm, "metamask"):
		return TypeMetaMask
	}
	return TypeArgent
}

// NetworkLabel returns "Mainnet" or "Sepolia" for a chain id.
func NetworkLabel(chainID string) string {
	return starknet.NetworkFromChainID(chainID).Label()
}

// FormatAddress shortens an address to 0x1234...abcd.
func FormatAddress(addr string, chars int) string {
	if addr == "" {
		return ""
	}
	if len(addr) <= 2*chars+2 {
		return addr
	}
	return addr[:chars+2] + "..." + addr[len(addr)-chars:]
}

func isMetaMask(s string) bool {
	return strings.Contains(strings.ToLower(s), "metamask")
}

// sameAddress compares by value, falling back to case-insensitive text.
func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b) || starknet.SameAddress(a, b)
}
