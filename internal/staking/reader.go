package staking

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/starkstake/starkstake/internal/amount"
	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/starknet"
)

// TokenSymbol is the staked token.
const TokenSymbol = "STRK"

// Caller performs read-only contract calls.
type Caller interface {
	Call(ctx context.Context, fc starknet.FunctionCall) ([]string, error)
}

// Reader queries the token and staking contracts.
type Reader struct {
	caller    Caller
	contracts Contracts
}

func NewReader(caller Caller, contracts Contracts) *Reader {
	return &Reader{caller: caller, contracts: contracts}
}

// Contracts returns the addresses the reader was built with.
func (r *Reader) Contracts() Contracts {
	return r.contracts
}

func (r *Reader) call(ctx context.Context, contract, entrypoint string, calldata ...string) ([]string, error) {
	return r.caller.Call(ctx, starknet.NewCall(contract, entrypoint, calldata...).FunctionCall())
}

// GetBalance returns the STRK balance of address.
func (r *Reader) GetBalance(ctx context.Context, address string) (*BalanceData, error) {
	out, err := r.call(ctx, r.contracts.Token, "balanceOf", address)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	bal, err := starknet.ReadU256(out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode balance: %w", err)
	}

	logging.Debug("balance fetched",
		logging.Address(address),
		"balance", bal.String())

	return &BalanceData{
		Address:  address,
		Balance:  bal,
		Decimals: amount.Decimals,
		Symbol:   TokenSymbol,
	}, nil
}

// GetAllowance returns how much the staking contract may spend on behalf
// of owner. Failures are logged and read as zero so that callers approve
// rather than skip.
func (r *Reader) GetAllowance(ctx context.Context, owner string) *big.Int {
	out, err := r.call(ctx, r.contracts.Token, "allowance", owner, r.contracts.Staking)
	if err == nil {
		var v *big.Int
		if v, err = starknet.ReadU256(out); err == nil {
			return v
		}
	}
	logging.Warn("allowance check failed, assuming zero",
		logging.Address(owner),
		logging.Err(err))
	return new(big.Int)
}

// GetStakerInfo returns the staker record, or nil when address has no
// staking position. Transport failures are returned as errors.
func (r *Reader) GetStakerInfo(ctx context.Context, staker string) (*StakerInfo, error) {
	out, err := r.call(ctx, r.contracts.Staking, "get_staker_info_v1", staker)
	if err != nil {
		return nil, fmt.Errorf("failed to get staker info: %w", err)
	}
	info := DecodeStakerInfo(out)
	if info == nil {
		logging.Debug("no staking position", logging.Address(staker))
	}
	return info, nil
}

// Position bundles everything the status views show for one staker.
type Position struct {
	Staker      string             `json:"staker"`
	Info        *StakerInfo        `json:"info,omitempty"`
	Validator   *Validator         `json:"validator,omitempty"`
	Eligibility UnstakeEligibility `json:"eligibility"`
}

// Position fetches staker info and derives the validator view and unstake
// eligibility at now.
func (r *Reader) Position(ctx context.Context, staker string, now time.Time) (*Position, error) {
	info, err := r.GetStakerInfo(ctx, staker)
	if err != nil {
		return nil, err
	}
	return &Position{
		Staker:      staker,
		Info:        info,
		Validator:   NewValidator(staker, info),
		Eligibility: CheckUnstakeEligibility(info, now),
	}, nil
}
