package staking

import (
	"github.com/starkstake/starkstake/internal/amount"
)

// ValidatorStatus summarizes a staking position.
type ValidatorStatus string

const (
	ValidatorActive     ValidatorStatus = "ACTIVE"
	ValidatorExiting    ValidatorStatus = "EXITING"
	ValidatorExited     ValidatorStatus = "EXITED"
	ValidatorNotStaking ValidatorStatus = "NOT_STAKING"
)

// Validator is the display view of a staker record.
type Validator struct {
	StakerAddress       string          `json:"staker_address"`
	OperatorAddress     string          `json:"operator_address"`
	RewardAddress       string          `json:"reward_address"`
	AmountStaked        string          `json:"amount_staked"`
	AmountStakedWei     string          `json:"amount_staked_wei"`
	UnclaimedRewards    string          `json:"unclaimed_rewards"`
	UnclaimedRewardsWei string          `json:"unclaimed_rewards_wei"`
	UnstakeTime         string          `json:"unstake_time"`
	Status              ValidatorStatus `json:"status"`
	PoolContract        string          `json:"pool_contract,omitempty"`
	PooledAmount        string          `json:"pooled_amount,omitempty"`
}

// NewValidator builds the display view, or nil for a missing record.
func NewValidator(staker string, info *StakerInfo) *Validator {
	if info == nil {
		return nil
	}
	v := &Validator{
		StakerAddress:       staker,
		OperatorAddress:     info.OperationalAddress,
		RewardAddress:       info.RewardAddress,
		AmountStaked:        amount.FormatString(info.AmountOwn),
		AmountStakedWei:     info.AmountOwn,
		UnclaimedRewards:    amount.FormatString(info.UnclaimedRewardsOwn),
		UnclaimedRewardsWei: info.UnclaimedRewardsOwn,
		UnstakeTime:         info.UnstakeTime,
		Status:              deriveStatus(info),
	}
	if info.HasPool() {
		v.PoolContract = info.PoolContract
		v.PooledAmount = amount.FormatString(info.PooledAmount)
	}
	return v
}

func deriveStatus(info *StakerInfo) ValidatorStatus {
	own := parseUint(info.AmountOwn).Sign() != 0
	exiting := parseUint(info.UnstakeTime).Sign() != 0

	switch {
	case !own && !exiting:
		return ValidatorNotStaking
	case exiting && !own:
		return ValidatorExited
	case exiting:
		return ValidatorExiting
	}
	return ValidatorActive
}
