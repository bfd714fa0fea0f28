package starknet

import (
	"math/big"
	"sync"

	"golang.org/x/crypto/sha3"
)

var mask250 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

var selectorCache sync.Map

// Selector returns the entrypoint selector for name: Keccak-256 of the
// ASCII name truncated to its low 250 bits.
func Selector(name string) string {
	if v, ok := selectorCache.Load(name); ok {
		return v.(string)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	v := new(big.Int).SetBytes(h.Sum(nil))
	sel := FeltHex(v.And(v, mask250))

	selectorCache.Store(name, sel)
	return sel
}
