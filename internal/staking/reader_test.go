package staking

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/starkstake/starkstake/internal/starknet"
)

func TestReader_GetBalance(t *testing.T) {
	caller := newFakeCaller()
	caller.set("balanceOf", "0x4563918244f40000", "0x1")
	r := NewReader(caller, testContracts)

	bal, err := r.GetBalance(context.Background(), stakerAddr)
	if err != nil {
		t.Fatal(err)
	}
	want := new(big.Int).Lsh(big.NewInt(1), 128)
	want.Add(want, big.NewInt(5_000_000_000_000_000_000))
	if bal.Balance.Cmp(want) != 0 {
		t.Errorf("balance = %s, want %s", bal.Balance, want)
	}
	if bal.Decimals != 18 || bal.Symbol != "STRK" {
		t.Errorf("unexpected metadata %+v", bal)
	}
	if got := caller.calls[0]; got.ContractAddress != tokenAddr || got.Calldata[0] != stakerAddr {
		t.Errorf("unexpected call %+v", got)
	}
}

func TestReader_GetBalance_PropagatesError(t *testing.T) {
	caller := newFakeCaller()
	boom := errors.New("connection refused")
	caller.fail("balanceOf", boom)

	_, err := NewReader(caller, testContracts).GetBalance(context.Background(), stakerAddr)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}

func TestReader_GetAllowance(t *testing.T) {
	caller := newFakeCaller()
	caller.setAllowance(1000)
	r := NewReader(caller, testContracts)

	if got := r.GetAllowance(context.Background(), stakerAddr); got.Int64() != 1000 {
		t.Errorf("allowance = %s", got)
	}
	fc := caller.calls[0]
	if len(fc.Calldata) != 2 || fc.Calldata[0] != stakerAddr || fc.Calldata[1] != stakingAddr {
		t.Errorf("allowance calldata = %v", fc.Calldata)
	}
}

func TestReader_GetAllowance_FailureIsZero(t *testing.T) {
	caller := newFakeCaller()
	caller.fail("allowance", errors.New("timeout"))

	if got := NewReader(caller, testContracts).GetAllowance(context.Background(), stakerAddr); got.Sign() != 0 {
		t.Errorf("allowance = %s, want 0", got)
	}

	short := newFakeCaller()
	short.set("allowance", "0x5")
	if got := NewReader(short, testContracts).GetAllowance(context.Background(), stakerAddr); got.Sign() != 0 {
		t.Errorf("short result allowance = %s, want 0", got)
	}
}

func TestReader_GetStakerInfo(t *testing.T) {
	caller := newFakeCaller()
	caller.set("get_staker_info_v1", "0x1")
	r := NewReader(caller, testContracts)

	info, err := r.GetStakerInfo(context.Background(), stakerAddr)
	if err != nil || info != nil {
		t.Errorf("absent position: info=%v err=%v", info, err)
	}

	caller.fail("get_staker_info_v1", &starknet.RPCError{Code: 40, Message: "Contract error"})
	if _, err := r.GetStakerInfo(context.Background(), stakerAddr); err == nil {
		t.Error("transport error must propagate")
	}
}

func TestReader_Position(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	caller := newFakeCaller()
	caller.set("get_staker_info_v1", "0x0", reward, operator, "0x0", "0x6553f0f6", "0x64", "0x0", "0x1")

	pos, err := NewReader(caller, testContracts).Position(context.Background(), stakerAddr, now)
	if err != nil {
		t.Fatal(err)
	}
	if pos.Validator == nil || pos.Validator.Status != ValidatorExiting {
		t.Errorf("validator = %+v", pos.Validator)
	}
	if pos.Eligibility.Status != StatusReadyToFinalize {
		t.Errorf("eligibility = %s", pos.Eligibility.Status)
	}
}
