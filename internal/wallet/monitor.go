package wallet

import (
	"context"

	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/starknet"
	"github.com/starkstake/starkstake/internal/util"
)

// Monitor re-validates the session whenever the user returns to the app.
// Wallets can switch account or network, or revoke access, without telling
// us; the snap backend has no change events at all.
type Monitor struct {
	m        *Manager
	failures int
}

// NewMonitor creates a monitor for the manager's current session.
func (m *Manager) NewMonitor() *Monitor {
	return &Monitor{m: m}
}

// StartMonitor runs a Monitor in the background until ctx is done or the
// session ends. focus delivers one value per focus event.
func (m *Manager) StartMonitor(ctx context.Context, focus <-chan struct{}) {
	mon := m.NewMonitor()
	util.SafeGoWithName("wallet-monitor", func() {
		mon.Run(ctx, focus)
	})
}

// Run processes focus events and injected wallet notifications until ctx
// is done or the manager leaves the connected state.
func (mon *Monitor) Run(ctx context.Context, focus <-chan struct{}) {
	conn := mon.m.Current()
	if conn == nil {
		return
	}

	states, unsubscribeState := mon.m.Subscribe()
	defer unsubscribeState()

	accounts := make(chan []string, 1)
	networks := make(chan string, 1)
	if p, ok := mon.m.platform.Injected(); ok && conn.Backend == BackendInjected {
		unsubscribe := p.Subscribe(Events{
			AccountsChanged: func(a []string) { offer(accounts, a) },
			NetworkChanged:  func(id string) { offer(networks, id) },
		})
		defer unsubscribe()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok || s == StateDisconnected {
				return
			}
		case _, ok := <-focus:
			if !ok {
				return
			}
			mon.Check(ctx)
		case a := <-accounts:
			mon.accountsChanged(ctx, a)
		case id := <-networks:
			mon.networkChanged(id)
		}
	}
}

// offer replaces any pending value so the latest notification wins.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Check runs one liveness probe, cheapest first: snap still installed,
// then injected address unchanged, then a full silent reconnect.
func (mon *Monitor) Check(ctx context.Context) {
	conn := mon.m.Current()
	if conn == nil {
		return
	}

	if conn.Backend == BackendRemoteSnap && mon.snapAlive(ctx) {
		mon.failures = 0
		return
	}
	if p, ok := mon.m.platform.Injected(); ok && conn.Backend == BackendInjected {
		if cur := p.SelectedAddress(); cur != "" && sameAddress(cur, conn.Address) {
			mon.failures = 0
			return
		}
	}

	next := mon.m.resume(ctx)
	if next == nil {
		mon.failures++
		if fn := mon.m.opts.OnProbeFailure; fn != nil {
			fn(mon.failures)
		}
		logging.Warn("wallet liveness probe failed", "consecutive", mon.failures)
		if mon.failures >= mon.m.opts.MaxProbeFailures {
			mon.forceDisconnect(ctx, "wallet unreachable")
		}
		return
	}
	mon.failures = 0

	if !sameAddress(next.Address, conn.Address) {
		mon.forceDisconnect(ctx, "account changed")
		return
	}
	if next.Network() != conn.Network() {
		mon.m.updateNetwork(next.ChainID, next.Signer)
	}
}

func (mon *Monitor) snapAlive(ctx context.Context) bool {
	stored, ok, err := mon.m.platform.Session().Get(SessionKey)
	if err != nil || !ok || stored == "" {
		return false
	}
	host, ok := mon.m.platform.Snap()
	if !ok {
		return false
	}
	installed, err := snapInstalled(ctx, host)
	return err == nil && installed
}

func (mon *Monitor) accountsChanged(ctx context.Context, accounts []string) {
	conn := mon.m.Current()
	if conn == nil {
		return
	}
	if len(accounts) == 0 || !sameAddress(accounts[0], conn.Address) {
		mon.forceDisconnect(ctx, "account changed")
	}
}

func (mon *Monitor) networkChanged(chainID string) {
	conn := mon.m.Current()
	if conn == nil {
		return
	}
	if starknet.NetworkFromChainID(chainID) != conn.Network() {
		mon.m.updateNetwork(chainID, nil)
	}
}

func (mon *Monitor) forceDisconnect(ctx context.Context, reason string) {
	logging.Warn("forcing wallet disconnect", "reason", reason)
	mon.failures = 0
	mon.m.Disconnect(ctx)
}
