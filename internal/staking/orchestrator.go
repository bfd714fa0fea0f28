package staking

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/starkstake/starkstake/internal/amount"
	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/starknet"
	"github.com/starkstake/starkstake/internal/util"
)

const (
	DefaultTxRetryInterval = 2 * time.Second
	DefaultTxWaitTimeout   = 30 * time.Second
)

var ErrBusy = errors.New("another action is in progress")

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Signer submits invoke transactions on behalf of a wallet account.
type Signer interface {
	Address() string
	Execute(ctx context.Context, calls ...starknet.Call) (string, error)
}

// TxWaiter observes the outcome of a submitted transaction.
type TxWaiter interface {
	WaitForTransaction(ctx context.Context, hash string, interval, timeout time.Duration) (*starknet.TxStatus, error)
}

// Options configures an Orchestrator.
type Options struct {
	Network         starknet.Network
	TxRetryInterval time.Duration
	TxWaitTimeout   time.Duration
	// MinimumStake is the human-decimal floor for a new stake. Empty
	// disables the check.
	MinimumStake string
	// SkipUnstakePrecondition lets UnstakeAction submit without first
	// checking that the cooldown has passed.
	SkipUnstakePrecondition bool
	Clock                   clock.Clock
}

// Outcome labels used for observers and audit records.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnconfirmed = "unconfirmed"
	OutcomeSkipped     = "skipped"
)

// Observer is told about every finished step.
type Observer func(action Action, outcome string, elapsed time.Duration)

// Orchestrator sequences staking transactions. Every operation returns a
// Result; failures never escape as errors or panics. One operation runs at
// a time.
type Orchestrator struct {
	reader *Reader
	waiter TxWaiter
	opts   Options
	clock  clock.Clock

	inFlight atomic.Bool

	mu         sync.Mutex
	onProgress func(Action)
	observer   Observer
}

// NewOrchestrator fills unset options with defaults.
func NewOrchestrator(reader *Reader, waiter TxWaiter, opts Options) *Orchestrator {
	if opts.TxRetryInterval <= 0 {
		opts.TxRetryInterval = DefaultTxRetryInterval
	}
	if opts.TxWaitTimeout <= 0 {
		opts.TxWaitTimeout = DefaultTxWaitTimeout
	}
	if opts.Network == "" {
		opts.Network = starknet.Sepolia
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Orchestrator{reader: reader, waiter: waiter, opts: opts, clock: clk}
}

// OnProgress registers fn to be told which step is running. It receives
// ActionIdle once the operation finishes.
func (o *Orchestrator) OnProgress(fn func(Action)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onProgress = fn
}

// SetObserver registers a step observer, typically metrics.
func (o *Orchestrator) SetObserver(fn Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observer = fn
}

// Busy reports whether an operation is running.
func (o *Orchestrator) Busy() bool {
	return o.inFlight.Load()
}

func (o *Orchestrator) progress(a Action) {
	o.mu.Lock()
	fn := o.onProgress
	o.mu.Unlock()
	if fn != nil {
		fn(a)
	}
}

func (o *Orchestrator) finish(res Result, start time.Time) Result {
	outcome := OutcomeSuccess
	switch {
	case !res.Success:
		outcome = OutcomeFailure
	case res.TxHash == "":
		outcome = OutcomeSkipped
	case !res.Confirmed:
		outcome = OutcomeUnconfirmed
	}

	o.mu.Lock()
	obs := o.observer
	o.mu.Unlock()
	if obs != nil {
		obs(res.Action, outcome, o.clock.Since(start))
	}
	return res
}

// run guards against re-entrancy and converts panics into a failed Result.
func (o *Orchestrator) run(action Action, fn func() Result) Result {
	if !o.inFlight.CompareAndSwap(false, true) {
		return failure(action, ErrBusy)
	}
	defer o.inFlight.Store(false)
	defer o.progress(ActionIdle)

	var res Result
	if err := util.Recover(func() error {
		res = fn()
		return nil
	}); err != nil {
		res = failure(action, err)
	}
	return res
}

func failure(action Action, err error) Result {
	return Result{Action: action, Error: err.Error()}
}

// submit sends one call and waits for it to settle.
func (o *Orchestrator) submit(ctx context.Context, signer Signer, action Action, call starknet.Call) Result {
	start := o.clock.Now()
	o.progress(action)

	hash, err := signer.Execute(ctx, call)
	if err != nil {
		logging.Warn("transaction submission failed",
			logging.Action(string(action)),
			logging.Address(signer.Address()),
			logging.Err(err))
		return o.finish(failure(action, fmt.Errorf("%s failed: %w", strings.ReplaceAll(string(action), "_", " "), err)), start)
	}

	logging.Info("transaction submitted",
		logging.Action(string(action)),
		logging.Address(signer.Address()),
		logging.TxHash(hash))

	res := o.confirm(ctx, action, hash)
	logging.Audit(logging.AuditEvent{
		Operation: string(action),
		Actor:     signer.Address(),
		Target:    call.ContractAddress,
		TxHash:    hash,
		Result:    outcomeOf(res),
		Details:   res.Error,
	})
	return o.finish(res, start)
}

func outcomeOf(res Result) string {
	switch {
	case !res.Success:
		return OutcomeFailure
	case !res.Confirmed:
		return OutcomeUnconfirmed
	}
	return OutcomeSuccess
}

// confirm waits for hash. A submitted transaction is a success even when
// its status cannot be observed; only a final rejection or revert fails.
func (o *Orchestrator) confirm(ctx context.Context, action Action, hash string) Result {
	explorer := o.opts.Network.ExplorerTxURL(hash)
	res := Result{Action: action, Success: true, TxHash: hash, ExplorerURL: explorer}

	st, err := o.waiter.WaitForTransaction(ctx, hash, o.opts.TxRetryInterval, o.opts.TxWaitTimeout)
	switch {
	case err != nil:
		logging.Warn("transaction confirmation uncertain",
			logging.Action(string(action)),
			logging.TxHash(hash),
			"explorer", explorer,
			logging.Err(err))
		res.Advisory = "transaction submitted but not yet confirmed, check " + explorer
	case st.Failed():
		reason := st.FailureReason
		if reason == "" {
			reason = strings.ToLower(st.FinalityStatus + " " + st.ExecutionStatus)
		}
		res.Success = false
		res.Confirmed = true
		res.Error = fmt.Sprintf("transaction %s failed on chain: %s", hash, strings.TrimSpace(reason))
	default:
		res.Confirmed = true
		logging.Info("transaction confirmed",
			logging.Action(string(action)),
			logging.TxHash(hash),
			"finality", st.FinalityStatus)
	}
	return res
}

func (o *Orchestrator) contracts() Contracts {
	return o.reader.Contracts()
}

// Approve lets the staking contract spend exactly amount STRK, skipping the
// transaction when the current allowance already covers it.
func (o *Orchestrator) Approve(ctx context.Context, signer Signer, amt string) Result {
	return o.run(ActionApprove, func() Result {
		v, err := parseAmount(amt)
		if err != nil {
			return failure(ActionApprove, err)
		}
		return o.approve(ctx, signer, v)
	})
}

func (o *Orchestrator) approve(ctx context.Context, signer Signer, v *big.Int) Result {
	start := o.clock.Now()
	o.progress(ActionApprove)

	allowance := o.reader.GetAllowance(ctx, signer.Address())
	if allowance.Cmp(v) >= 0 {
		logging.Info("allowance sufficient, skipping approval",
			logging.Address(signer.Address()),
			"allowance", allowance.String(),
			"required", v.String())
		return o.finish(Result{Action: ActionApprove, Success: true, Confirmed: true}, start)
	}

	low, high, err := starknet.SplitU256(v)
	if err != nil {
		return o.finish(failure(ActionApprove, err), start)
	}
	c := o.contracts()
	return o.submit(ctx, signer, ActionApprove, starknet.NewCall(c.Token, "approve", c.Staking, low, high))
}

// CheckMinimumStake rejects a stake below the configured network minimum.
func (o *Orchestrator) CheckMinimumStake(amt string) error {
	v, err := parseAmount(amt)
	if err != nil {
		return err
	}
	if o.opts.MinimumStake == "" {
		return nil
	}
	floor, err := amount.ToFixedPoint(o.opts.MinimumStake, amount.Decimals)
	if err != nil {
		return fmt.Errorf("invalid minimum stake %q: %w", o.opts.MinimumStake, err)
	}
	if v.Cmp(floor) < 0 {
		return fmt.Errorf("minimum stake on %s is %s %s", o.opts.Network, o.opts.MinimumStake, TokenSymbol)
	}
	return nil
}

// Stake approves amount then calls stake(reward, operator, amount).
func (o *Orchestrator) Stake(ctx context.Context, signer Signer, amt, operator, reward string) Result {
	return o.run(ActionStake, func() Result {
		if err := o.CheckMinimumStake(amt); err != nil {
			return failure(ActionStake, err)
		}
		v, err := parseAmount(amt)
		if err != nil {
			return failure(ActionStake, err)
		}
		if err := requireAddresses("operator", operator, "reward", reward); err != nil {
			return failure(ActionStake, err)
		}

		if res := o.approve(ctx, signer, v); !res.Success {
			return res
		}
		call := starknet.NewCall(o.contracts().Staking, "stake", reward, operator, starknet.FeltHex(v))
		return o.submit(ctx, signer, ActionStake, call)
	})
}

// IncreaseStake approves amount then calls increase_stake(staker, amount).
func (o *Orchestrator) IncreaseStake(ctx context.Context, signer Signer, staker, amt string) Result {
	return o.run(ActionIncreaseStake, func() Result {
		v, err := parseAmount(amt)
		if err != nil {
			return failure(ActionIncreaseStake, err)
		}
		if err := requireAddresses("staker", staker); err != nil {
			return failure(ActionIncreaseStake, err)
		}

		if res := o.approve(ctx, signer, v); !res.Success {
			return res
		}
		call := starknet.NewCall(o.contracts().Staking, "increase_stake", staker, starknet.FeltHex(v))
		return o.submit(ctx, signer, ActionIncreaseStake, call)
	})
}

// UnstakeIntent starts the exit window for the signer's position.
func (o *Orchestrator) UnstakeIntent(ctx context.Context, signer Signer) Result {
	return o.run(ActionUnstakeIntent, func() Result {
		return o.submit(ctx, signer, ActionUnstakeIntent, starknet.NewCall(o.contracts().Staking, "unstake_intent"))
	})
}

// UnstakeAction withdraws the position once the exit window has passed.
// Unless SkipUnstakePrecondition is set, staker info is re-read and the
// call is refused before READY_TO_FINALIZE.
func (o *Orchestrator) UnstakeAction(ctx context.Context, signer Signer, staker string) Result {
	return o.run(ActionUnstakeAction, func() Result {
		if err := requireAddresses("staker", staker); err != nil {
			return failure(ActionUnstakeAction, err)
		}
		if !o.opts.SkipUnstakePrecondition {
			info, err := o.reader.GetStakerInfo(ctx, staker)
			if err != nil {
				return failure(ActionUnstakeAction, fmt.Errorf("could not verify unstake eligibility: %w", err))
			}
			el := CheckUnstakeEligibility(info, o.clock.Now())
			if !el.CanUnstake {
				return failure(ActionUnstakeAction, notReadyError(el))
			}
		}
		return o.submit(ctx, signer, ActionUnstakeAction, starknet.NewCall(o.contracts().Staking, "unstake_action", staker))
	})
}

func notReadyError(el UnstakeEligibility) error {
	switch el.Status {
	case StatusWaitingCooldown:
		return fmt.Errorf("unstake not ready: cooldown ends in %ds", el.RemainingSeconds)
	case StatusCompleted:
		return fmt.Errorf("unstake already completed")
	}
	return fmt.Errorf("unstake not initiated")
}

// ClaimRewards sends the staker's unclaimed rewards to the reward address.
func (o *Orchestrator) ClaimRewards(ctx context.Context, signer Signer, staker string) Result {
	return o.run(ActionClaimRewards, func() Result {
		if err := requireAddresses("staker", staker); err != nil {
			return failure(ActionClaimRewards, err)
		}
		return o.submit(ctx, signer, ActionClaimRewards, starknet.NewCall(o.contracts().Staking, "claim_rewards", staker))
	})
}

// ChangeRewardAddress points future rewards at addr.
func (o *Orchestrator) ChangeRewardAddress(ctx context.Context, signer Signer, addr string) Result {
	return o.run(ActionChangeRewardAddress, func() Result {
		if err := requireAddresses("reward", addr); err != nil {
			return failure(ActionChangeRewardAddress, err)
		}
		return o.submit(ctx, signer, ActionChangeRewardAddress, starknet.NewCall(o.contracts().Staking, "change_reward_address", addr))
	})
}

// parseAmount converts a human STRK amount into a positive u128.
func parseAmount(s string) (*big.Int, error) {
	v, err := amount.ToFixedPoint(s, amount.Decimals)
	if err != nil {
		return nil, err
	}
	if v.Sign() == 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	if v.Cmp(maxU128) > 0 {
		return nil, fmt.Errorf("amount %s exceeds u128", s)
	}
	return v, nil
}

// requireAddresses checks name/value pairs in order and reports the first
// invalid address.
func requireAddresses(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if !starknet.IsAddress(pairs[i+1]) {
			return fmt.Errorf("invalid %s address %q", pairs[i], pairs[i+1])
		}
	}
	return nil
}
