// Package staking reads validator positions from the Starknet staking
// contract and sequences the transactions that change them.
package staking

import (
	"math/big"
	"time"
)

// StakerInfo is one staker's on-chain record. Integer fields are decimal
// strings of 18-decimal fixed point amounts; UnstakeTime is unix seconds
// and "0" when no unstake intent was filed.
type StakerInfo struct {
	RewardAddress       string `json:"reward_address"`
	OperationalAddress  string `json:"operational_address"`
	UnstakeTime         string `json:"unstake_time"`
	AmountOwn           string `json:"amount_own"`
	UnclaimedRewardsOwn string `json:"unclaimed_rewards_own"`
	PoolContract        string `json:"pool_contract,omitempty"`
	PooledAmount        string `json:"pooled_amount"`
	PoolCommission      string `json:"pool_commission"`
}

// HasPool reports whether the staker opened a delegation pool.
func (s *StakerInfo) HasPool() bool {
	return s != nil && s.PoolContract != ""
}

// UnstakeStatus is the phase of the two-step unstake flow.
type UnstakeStatus string

const (
	StatusNotInitiated    UnstakeStatus = "NOT_INITIATED"
	StatusWaitingCooldown UnstakeStatus = "WAITING_COOLDOWN"
	StatusReadyToFinalize UnstakeStatus = "READY_TO_FINALIZE"
	StatusCompleted       UnstakeStatus = "COMPLETED"
)

// UnstakeEligibility is derived from StakerInfo at a point in time.
type UnstakeEligibility struct {
	CanUnstake       bool          `json:"can_unstake"`
	EligibleAt       *time.Time    `json:"eligible_at,omitempty"`
	RemainingSeconds int64         `json:"remaining_seconds"`
	Status           UnstakeStatus `json:"status"`
}

// BalanceData is a token balance in fixed point.
type BalanceData struct {
	Address  string   `json:"address"`
	Balance  *big.Int `json:"balance"`
	Decimals int      `json:"decimals"`
	Symbol   string   `json:"symbol"`
}

// Action names one orchestrated transaction step.
type Action string

const (
	ActionIdle                Action = ""
	ActionApprove             Action = "approve"
	ActionStake               Action = "stake"
	ActionIncreaseStake       Action = "increase_stake"
	ActionUnstakeIntent       Action = "unstake_intent"
	ActionUnstakeAction       Action = "unstake_action"
	ActionClaimRewards        Action = "claim_rewards"
	ActionChangeRewardAddress Action = "change_reward_address"
)

// Result is the outcome of one orchestrator operation. TxHash is empty when
// no transaction was needed. Confirmed is false when the transaction was
// submitted but its final status could not be observed; Advisory then
// points at the explorer. Success is false for a transaction that was
// accepted but then REVERTED or REJECTED, even though TxHash is set, and a
// reverted approve stops Stake and IncreaseStake before the second step.
type Result struct {
	Action      Action `json:"action"`
	Success     bool   `json:"success"`
	TxHash      string `json:"tx_hash,omitempty"`
	Error       string `json:"error,omitempty"`
	Confirmed   bool   `json:"confirmed"`
	Advisory    string `json:"advisory,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

// Contracts holds the addresses the package talks to.
type Contracts struct {
	Token   string
	Staking string
}
