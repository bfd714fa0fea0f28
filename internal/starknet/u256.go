package starknet

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/starkstake/starkstake/internal/amount"
)

var mask128 = new(uint256.Int).SetAllOne().Rsh(new(uint256.Int).SetAllOne(), 128)

// SplitU256 encodes v as (low, high) 128-bit limbs in felt hex.
func SplitU256(v *big.Int) (low, high string, err error) {
	if v == nil || v.Sign() < 0 {
		return "", "", fmt.Errorf("u256 must be non-negative")
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return "", "", fmt.Errorf("u256 overflow: %s", v)
	}
	lo := new(uint256.Int).And(u, mask128)
	hi := new(uint256.Int).Rsh(u, 128)
	return lo.Hex(), hi.Hex(), nil
}

// JoinU256 decodes felt limbs produced by a contract read.
func JoinU256(low, high string) (*big.Int, error) {
	lo, err := ParseFelt(low)
	if err != nil {
		return nil, fmt.Errorf("u256 low limb: %w", err)
	}
	hi, err := ParseFelt(high)
	if err != nil {
		return nil, fmt.Errorf("u256 high limb: %w", err)
	}
	return amount.DecodeTwoLimb(lo, hi)
}

// ReadU256 decodes the first two felts of a call result.
func ReadU256(result []string) (*big.Int, error) {
	if len(result) < 2 {
		return nil, fmt.Errorf("u256 result too short: %d felts", len(result))
	}
	return JoinU256(result[0], result[1])
}
