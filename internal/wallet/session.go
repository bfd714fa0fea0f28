// Package wallet manages the connection to a Starknet wallet: selection,
// the injected and MetaMask snap connect flows, silent resume and liveness
// monitoring.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/starknet"
)

// State is the session manager state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}

// Options configures a Manager.
type Options struct {
	// Network is the chain new snap accounts are scanned on.
	Network starknet.Network
	// MaxProbeFailures is how many failed liveness probes in a row force
	// a disconnect. Defaults to 3.
	MaxProbeFailures int
	Clock            clock.Clock
	// OnProbeFailure is told the consecutive failure count.
	OnProbeFailure func(consecutive int)
}

// Manager owns the single wallet session.
type Manager struct {
	platform Platform
	prompter Prompter
	opts     Options

	mu    sync.RWMutex
	state State
	conn  *Connection

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

func NewManager(platform Platform, prompter Prompter, opts Options) *Manager {
	if opts.Network == "" {
		opts.Network = starknet.Sepolia
	}
	if opts.MaxProbeFailures <= 0 {
		opts.MaxProbeFailures = 3
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Manager{
		platform: platform,
		prompter: prompter,
		opts:     opts,
		subs:     make(map[int]chan State),
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the active connection or nil.
func (m *Manager) Current() *Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

// Signer returns the active signer or ErrNotConnected.
func (m *Manager) Signer() (Signer, error) {
	conn := m.Current()
	if conn == nil {
		return nil, ErrNotConnected
	}
	return conn.Signer, nil
}

// Subscribe delivers every state change. Slow readers miss intermediate
// states. The returned func unsubscribes.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan State, 8)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

func (m *Manager) setState(s State, conn *Connection) {
	m.mu.Lock()
	m.state = s
	m.conn = conn
	m.mu.Unlock()

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// options lists the wallets the platform can reach.
func (m *Manager) options() []WalletOption {
	var out []WalletOption
	if p, ok := m.platform.Injected(); ok {
		out = append(out, WalletOption{ID: p.ID(), Name: p.Name(), Backend: BackendInjected})
	}
	if _, ok := m.platform.Snap(); ok {
		out = append(out, WalletOption{ID: metaMaskID, Name: metaMaskName, Backend: BackendRemoteSnap})
	}
	return out
}

// Connect establishes a session. Without preferredID the user is prompted
// to pick a wallet. Any failure, including a user rejection, leaves the
// manager disconnected and returns an error wrapping ErrNoWallet.
func (m *Manager) Connect(ctx context.Context, preferredID string) (*Connection, error) {
	m.setState(StateConnecting, nil)

	conn, err := m.connect(ctx, preferredID)
	if err != nil {
		m.setState(StateDisconnected, nil)
		logging.Info("wallet connect aborted", "kind", KindOf(err).String(), logging.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrNoWallet, err)
	}

	m.setState(StateConnected, conn)
	logging.Info("wallet connected",
		logging.Address(conn.Address),
		"wallet", conn.WalletID,
		"network", conn.Network().Label())
	return conn, nil
}

func (m *Manager) connect(ctx context.Context, preferredID string) (*Connection, error) {
	options := m.options()
	if len(options) == 0 {
		return nil, &Error{Kind: KindUnavailable, Message: "no wallet backend reachable"}
	}

	id := preferredID
	if id == "" {
		if m.prompter == nil {
			return nil, errors.New("wallet selection requires a prompt")
		}
		var err error
		if id, err = m.prompter.SelectWallet(ctx, options); err != nil {
			return nil, FromError(err)
		}
	}

	if isMetaMask(id) {
		return m.connectSnap(ctx)
	}
	p, ok := m.platform.Injected()
	if !ok {
		return nil, &Error{Kind: KindUnavailable, Message: "no injected wallet available"}
	}
	if WalletTypeFor(id) != WalletTypeFor(p.ID()) {
		return nil, &Error{Kind: KindUnavailable, Message: fmt.Sprintf("wallet %q is not available, found %s", id, p.Name())}
	}
	return m.connectInjected(ctx, p)
}

// Reconnect silently resumes a previous session: first a stored snap
// account, then a pre-authorized injected wallet. It never prompts and
// returns nil when there is nothing to resume.
func (m *Manager) Reconnect(ctx context.Context) *Connection {
	conn := m.resume(ctx)
	if conn == nil {
		m.setState(StateDisconnected, nil)
		return nil
	}
	m.setState(StateConnected, conn)
	logging.Info("wallet session resumed",
		logging.Address(conn.Address),
		"wallet", conn.WalletID)
	return conn
}

func (m *Manager) resume(ctx context.Context) *Connection {
	if conn := m.resumeSnap(ctx); conn != nil {
		return conn
	}
	return m.resumeInjected(ctx)
}

// Disconnect clears the session marker, tells the wallet and returns to
// Disconnected. Failures are logged, never returned.
func (m *Manager) Disconnect(ctx context.Context) {
	if err := m.platform.Session().Remove(SessionKey); err != nil {
		logging.Warn("failed to clear wallet session", logging.Err(err))
	}
	if p, ok := m.platform.Injected(); ok {
		if err := p.Disconnect(ctx); err != nil {
			logging.Debug("wallet disconnect failed", logging.Err(err))
		}
	}
	m.setState(StateDisconnected, nil)
}

// updateNetwork switches chain in place, keeping the session.
func (m *Manager) updateNetwork(chainID string, signer Signer) {
	cur := m.Current()
	if cur == nil {
		return
	}
	next := *cur
	next.ChainID = chainID
	if signer != nil {
		next.Signer = signer
	}
	logging.Info("wallet network changed", "network", next.Network().Label())
	m.setState(StateConnected, &next)
}
