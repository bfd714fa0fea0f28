package starknet

import (
	"context"
	"time"
)

// Finality and execution statuses reported by starknet_getTransactionStatus.
const (
	FinalityReceived     = "RECEIVED"
	FinalityRejected     = "REJECTED"
	FinalityAcceptedOnL2 = "ACCEPTED_ON_L2"
	FinalityAcceptedOnL1 = "ACCEPTED_ON_L1"

	ExecutionSucceeded = "SUCCEEDED"
	ExecutionReverted  = "REVERTED"
)

// TxStatus is the node's view of a submitted transaction.
type TxStatus struct {
	FinalityStatus  string `json:"finality_status"`
	ExecutionStatus string `json:"execution_status,omitempty"`
	FailureReason   string `json:"failure_reason,omitempty"`
}

// Final reports whether the status will no longer change in a way that
// matters to the caller.
func (s *TxStatus) Final() bool {
	switch s.FinalityStatus {
	case FinalityAcceptedOnL2, FinalityAcceptedOnL1, FinalityRejected:
		return true
	}
	return false
}

// Failed reports a rejected or reverted transaction.
func (s *TxStatus) Failed() bool {
	return s.FinalityStatus == FinalityRejected || s.ExecutionStatus == ExecutionReverted
}

// TransactionStatus fetches the status of hash.
func (c *Client) TransactionStatus(ctx context.Context, hash string) (*TxStatus, error) {
	var st TxStatus
	if err := c.request(ctx, &st, "starknet_getTransactionStatus", hash); err != nil {
		return nil, err
	}
	return &st, nil
}

// WaitForTransaction polls every interval until hash is final or timeout
// passes. An unknown hash keeps polling; any other error is returned.
func (c *Client) WaitForTransaction(ctx context.Context, hash string, interval, timeout time.Duration) (*TxStatus, error) {
	deadline := c.clock.Now().Add(timeout)
	for {
		st, err := c.TransactionStatus(ctx, hash)
		if err == nil && st.Final() {
			return st, nil
		}
		if err != nil && !IsTxNotFound(err) {
			return nil, err
		}
		if !c.clock.Now().Add(interval).Before(deadline) {
			return st, ErrWaitTimeout
		}

		timer := c.clock.Timer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
