package staking

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/starkstake/starkstake/internal/starknet"
)

const (
	tokenAddr   = "0x4718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d"
	stakingAddr = "0x3745ab04a431fc02871a139be6b93d9260b0ff3e779ad9c8b377183b23109f1"
	stakerAddr  = "0x5a1"
	operator    = "0x0b0"
	reward      = "0x7e4"
)

var testContracts = Contracts{Token: tokenAddr, Staking: stakingAddr}

// fakeCaller answers contract reads by entrypoint selector.
type fakeCaller struct {
	mu      sync.Mutex
	results map[string][]string
	errs    map[string]error
	calls   []starknet.FunctionCall
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{results: map[string][]string{}, errs: map[string]error{}}
}

func (f *fakeCaller) set(entrypoint string, out ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[starknet.Selector(entrypoint)] = out
}

func (f *fakeCaller) fail(entrypoint string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[starknet.Selector(entrypoint)] = err
}

func (f *fakeCaller) setAllowance(v int64) {
	low, high, _ := starknet.SplitU256(big.NewInt(v))
	f.set("allowance", low, high)
}

func (f *fakeCaller) Call(_ context.Context, fc starknet.FunctionCall) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fc)
	if err := f.errs[fc.EntryPointSelector]; err != nil {
		return nil, err
	}
	return f.results[fc.EntryPointSelector], nil
}

// fakeSigner records submitted calls and fails selected entrypoints.
type fakeSigner struct {
	mu       sync.Mutex
	addr     string
	executed []starknet.Call
	failOn   map[string]error
	block    chan struct{}
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{addr: stakerAddr, failOn: map[string]error{}}
}

func (s *fakeSigner) Address() string { return s.addr }

func (s *fakeSigner) Execute(ctx context.Context, calls ...starknet.Call) (string, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range calls {
		if err := s.failOn[c.EntryPoint]; err != nil {
			return "", err
		}
	}
	s.executed = append(s.executed, calls...)
	return "0xhash" + calls[0].EntryPoint, nil
}

func (s *fakeSigner) entrypoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.executed {
		out = append(out, c.EntryPoint)
	}
	return out
}

// fakeWaiter returns a fixed status or error for every hash.
type fakeWaiter struct {
	status *starknet.TxStatus
	err    error
	waited []string
}

func (w *fakeWaiter) WaitForTransaction(_ context.Context, hash string, _, _ time.Duration) (*starknet.TxStatus, error) {
	w.waited = append(w.waited, hash)
	if w.err != nil {
		return nil, w.err
	}
	if w.status != nil {
		return w.status, nil
	}
	return &starknet.TxStatus{FinalityStatus: starknet.FinalityAcceptedOnL2, ExecutionStatus: starknet.ExecutionSucceeded}, nil
}

var errRejected = errors.New("user rejected the request")
