package staking

import (
	"math/big"
	"time"
)

// maxUnstakeTime is 9999-12-31T23:59:59Z. Later unstake times are clamped to
// it so they still read as a pending cooldown.
var maxUnstakeTime = big.NewInt(253402300799)

// CheckUnstakeEligibility derives the unstake phase of info at now. The
// result depends on the wall clock, so it must be recomputed on every
// refresh.
func CheckUnstakeEligibility(info *StakerInfo, now time.Time) UnstakeEligibility {
	notInitiated := UnstakeEligibility{Status: StatusNotInitiated}
	if info == nil {
		return notInitiated
	}
	unstakeTime := parseUint(info.UnstakeTime)
	if unstakeTime.Sign() == 0 {
		return notInitiated
	}

	// unstake_time already holds the moment the exit window closes.
	if unstakeTime.Cmp(maxUnstakeTime) > 0 {
		unstakeTime = maxUnstakeTime
	}
	eligibleAt := time.Unix(unstakeTime.Int64(), 0)
	if now.Before(eligibleAt) {
		// Sub saturates at the maximum Duration, so round up without adding.
		remaining := eligibleAt.Sub(now)
		secs := int64(remaining / time.Second)
		if remaining%time.Second != 0 {
			secs++
		}
		return UnstakeEligibility{
			EligibleAt:       &eligibleAt,
			RemainingSeconds: secs,
			Status:           StatusWaitingCooldown,
		}
	}

	if parseUint(info.AmountOwn).Sign() == 0 {
		return UnstakeEligibility{EligibleAt: &eligibleAt, Status: StatusCompleted}
	}
	return UnstakeEligibility{CanUnstake: true, EligibleAt: &eligibleAt, Status: StatusReadyToFinalize}
}

// parseUint reads a decimal string; anything malformed is zero.
func parseUint(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return new(big.Int)
	}
	return v
}
