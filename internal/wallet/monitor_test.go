package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/starkstake/starkstake/internal/starknet"
)

func connectedManager(t *testing.T) (*Manager, *fakeInjected) {
	t.Helper()
	inj := newFakeInjected(addrA)
	m := NewManager(&fakePlatform{session: newMemSession(), injected: inj}, nil, Options{})
	if _, err := m.Connect(context.Background(), "argentX"); err != nil {
		t.Fatal(err)
	}
	return m, inj
}

// makeUnreachable leaves the wallet present but unable to resume silently.
func makeUnreachable(inj *fakeInjected) {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	inj.selected = ""
	inj.preauth = false
	inj.enabledOnce = false
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMonitor_DisconnectsAfterThreeFailures(t *testing.T) {
	m, inj := connectedManager(t)
	var reported []int
	m.opts.OnProbeFailure = func(n int) { reported = append(reported, n) }
	makeUnreachable(inj)

	mon := m.NewMonitor()
	ctx := context.Background()

	mon.Check(ctx)
	mon.Check(ctx)
	if m.State() != StateConnected {
		t.Fatalf("two failures must keep the session, state = %s", m.State())
	}

	mon.Check(ctx)
	if m.State() != StateDisconnected {
		t.Fatalf("third failure must disconnect, state = %s", m.State())
	}
	if len(reported) != 3 || reported[2] != 3 {
		t.Errorf("probe failures reported = %v", reported)
	}
}

func TestMonitor_SuccessResetsFailures(t *testing.T) {
	m, inj := connectedManager(t)
	mon := m.NewMonitor()
	ctx := context.Background()

	makeUnreachable(inj)
	mon.Check(ctx)
	mon.Check(ctx)

	inj.mu.Lock()
	inj.selected = addrA
	inj.mu.Unlock()
	mon.Check(ctx)

	makeUnreachable(inj)
	mon.Check(ctx)
	mon.Check(ctx)
	if m.State() != StateConnected {
		t.Errorf("failure count should have been reset, state = %s", m.State())
	}
}

func TestMonitor_AddressChangeDisconnects(t *testing.T) {
	m, inj := connectedManager(t)
	inj.mu.Lock()
	inj.selected = addrB
	inj.preauth = true
	inj.account = &fakeSigner{addr: addrB, chainID: starknet.ChainIDSepolia}
	inj.mu.Unlock()

	m.NewMonitor().Check(context.Background())
	if m.State() != StateDisconnected {
		t.Errorf("address change must disconnect, state = %s", m.State())
	}
}

func TestMonitor_NetworkChangeKeepsSession(t *testing.T) {
	m, inj := connectedManager(t)
	// Force the full reconnect path by hiding the selected address once.
	inj.mu.Lock()
	inj.selected = ""
	inj.preauth = true
	inj.chainID = starknet.ChainIDMainnet
	inj.mu.Unlock()

	m.NewMonitor().Check(context.Background())

	conn := m.Current()
	if conn == nil || conn.Address != addrA {
		t.Fatalf("session must survive a network change, got %+v", conn)
	}
	if conn.Network() != starknet.Mainnet {
		t.Errorf("network = %s", conn.Network())
	}
}

func TestMonitor_RunHandlesFocusAndEvents(t *testing.T) {
	m, inj := connectedManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	focus := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.NewMonitor().Run(ctx, focus)
	}()

	waitFor(t, func() bool {
		inj.mu.Lock()
		defer inj.mu.Unlock()
		return inj.events.NetworkChanged != nil
	})

	inj.mu.Lock()
	onNetwork := inj.events.NetworkChanged
	inj.mu.Unlock()
	onNetwork(starknet.ChainIDMainnet)
	waitFor(t, func() bool { return m.Current().Network() == starknet.Mainnet })

	focus <- struct{}{} // selected address still matches: no change
	if m.State() != StateConnected {
		t.Fatalf("state = %s", m.State())
	}

	inj.emitAccounts([]string{addrB})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after the account changed")
	}
	if m.State() != StateDisconnected {
		t.Errorf("state = %s", m.State())
	}
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	m, _ := connectedManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.NewMonitor().Run(ctx, make(chan struct{}))
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor ignored cancellation")
	}
}

func TestMonitor_RunWithoutSession(t *testing.T) {
	m := NewManager(&fakePlatform{session: newMemSession()}, nil, Options{})
	// Returns immediately.
	m.NewMonitor().Run(context.Background(), nil)
}
