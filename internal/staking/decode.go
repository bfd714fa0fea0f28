package staking

import (
	"math/big"

	"github.com/starkstake/starkstake/internal/starknet"
)

// optionSome is the tag value the staking contract uses for a present
// Option. The contract inverts the usual Cairo convention: 0 means Some
// and any other value means None.
const optionSome = 0

// feltCursor reads a call result left to right. Reads past the end yield
// zero values instead of failing.
type feltCursor struct {
	felts []string
	pos   int
}

func (c *feltCursor) next() (string, bool) {
	if c.pos >= len(c.felts) {
		c.pos++
		return "", false
	}
	v := c.felts[c.pos]
	c.pos++
	return v, true
}

// present reads an Option tag. A missing tag reads as 0, i.e. present; an
// unparseable one reads as absent.
func (c *feltCursor) present() bool {
	raw, ok := c.next()
	if !ok {
		return true
	}
	v, err := starknet.ParseFelt(raw)
	if err != nil {
		return false
	}
	return v.Cmp(big.NewInt(optionSome)) == 0
}

func (c *feltCursor) address() string {
	raw, ok := c.next()
	if !ok {
		return starknet.ZeroAddress
	}
	v, err := starknet.ParseFelt(raw)
	if err != nil {
		return starknet.ZeroAddress
	}
	return starknet.FeltHex(v)
}

func (c *feltCursor) integer() string {
	raw, ok := c.next()
	if !ok {
		return "0"
	}
	s, err := starknet.FeltDecimal(raw)
	if err != nil {
		return "0"
	}
	return s
}

// DecodeStakerInfo decodes the get_staker_info_v1 result:
//
//	tag, reward, operational,
//	tag, [unstake_time],
//	amount_own, unclaimed_rewards_own,
//	tag, [pool_contract, pooled_amount, commission]
//
// It returns nil when the result is empty or the outer Option is None.
func DecodeStakerInfo(felts []string) *StakerInfo {
	if len(felts) == 0 {
		return nil
	}
	c := &feltCursor{felts: felts}
	if !c.present() {
		return nil
	}

	info := &StakerInfo{
		RewardAddress:      c.address(),
		OperationalAddress: c.address(),
		UnstakeTime:        "0",
		PooledAmount:       "0",
		PoolCommission:     "0",
	}
	if c.present() {
		info.UnstakeTime = c.integer()
	}
	info.AmountOwn = c.integer()
	info.UnclaimedRewardsOwn = c.integer()
	if c.present() {
		info.PoolContract = c.address()
		info.PooledAmount = c.integer()
		info.PoolCommission = c.integer()
	}
	return info
}
