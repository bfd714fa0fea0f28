// Package dashboard is the live terminal view of a staking position. It
// keeps the wallet session honest while open: terminal focus, session file
// changes and a slow poll all trigger a wallet liveness probe.
package dashboard

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/staking"
	"github.com/starkstake/starkstake/internal/starknet"
	"github.com/starkstake/starkstake/internal/wallet"
)

// PositionSource reads a staker's position. *staking.Reader implements it.
type PositionSource interface {
	Position(ctx context.Context, staker string, now time.Time) (*staking.Position, error)
}

// Session is the wallet session the dashboard follows. *wallet.Manager
// implements it.
type Session interface {
	Current() *wallet.Connection
	State() wallet.State
	Subscribe() (<-chan wallet.State, func())
	StartMonitor(ctx context.Context, focus <-chan struct{})
}

// Options configures the dashboard.
type Options struct {
	Positions PositionSource
	Session   Session
	Network   starknet.Network
	// Staker pins the viewed address; empty follows the connected wallet.
	Staker string
	// SessionChanged fires when the stored session marker changes on disk.
	SessionChanged  <-chan struct{}
	RefreshInterval time.Duration
	// ProbeInterval runs a wallet liveness probe even without focus
	// events. Zero disables it.
	ProbeInterval time.Duration
	RPCTimeout    time.Duration
	// MetricsAddr is shown in the footer when /metrics is served.
	MetricsAddr string
	Clock       clock.Clock
}

// keyMap defines keyboard shortcuts
type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Probe   key.Binding
	Help    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Refresh, k.Probe, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit, k.Refresh}, {k.Probe, k.Help}}
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		Probe: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "check wallet"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h", "toggle help"),
		),
	}
}

type (
	tickMsg      time.Time
	countdownMsg time.Time
	probeMsg     time.Time
	positionMsg  struct {
		staker string
		pos    *staking.Position
	}
	positionErrMsg struct{ err error }
	stateMsg       wallet.State
	sessionMsg     struct{}
	// closedMsg ends a listener whose channel was closed.
	closedMsg struct{}
)

// Dashboard is the Bubble Tea model.
type Dashboard struct {
	opts  Options
	clock clock.Clock

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	width, height int
	showHelp      bool
	loading       bool

	pos    *staking.Position
	err    error
	lastOK time.Time
	now    time.Time
	state  wallet.State
	conn   *wallet.Connection

	states      <-chan wallet.State
	unsubscribe func()
	focus       chan struct{}
	ctx         context.Context
	cancel      context.CancelFunc
	counting    bool
}

// New creates a dashboard and starts the wallet monitor. Call Close when
// the program exits.
func New(opts Options) *Dashboard {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 15 * time.Second
	}
	if opts.RPCTimeout <= 0 {
		opts.RPCTimeout = 10 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		opts:    opts,
		clock:   opts.Clock,
		keys:    newKeyMap(),
		help:    help.New(),
		spinner: s,
		loading: true,
		now:     opts.Clock.Now(),
		focus:   make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	d.states, d.unsubscribe = opts.Session.Subscribe()
	d.state = opts.Session.State()
	d.conn = opts.Session.Current()
	if d.conn != nil {
		opts.Session.StartMonitor(ctx, d.focus)
	}
	return d
}

// Close stops the monitor and the session subscription.
func (m *Dashboard) Close() {
	m.cancel()
	m.unsubscribe()
}

// staker is the address being shown, "" when there is none.
func (m *Dashboard) staker() string {
	if m.opts.Staker != "" {
		return m.opts.Staker
	}
	if m.conn != nil {
		return m.conn.Address
	}
	return ""
}

func (m *Dashboard) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.fetchCmd(),
		tickCmd(m.opts.RefreshInterval),
		waitForState(m.states),
	}
	if m.opts.SessionChanged != nil {
		cmds = append(cmds, waitForSession(m.opts.SessionChanged))
	}
	if m.opts.ProbeInterval > 0 {
		cmds = append(cmds, probeCmd(m.opts.ProbeInterval))
	}
	return tea.Batch(cmds...)
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func countdownCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return countdownMsg(t) })
}

func probeCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return probeMsg(t) })
}

func waitForState(ch <-chan wallet.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return stateMsg(s)
	}
}

func waitForSession(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return closedMsg{}
		}
		return sessionMsg{}
	}
}

// fetchCmd reads the position for the current staker.
func (m *Dashboard) fetchCmd() tea.Cmd {
	staker := m.staker()
	if staker == "" {
		return func() tea.Msg { return positionMsg{} }
	}
	src, timeout, now := m.opts.Positions, m.opts.RPCTimeout, m.clock.Now()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		pos, err := src.Position(ctx, staker, now)
		if err != nil {
			return positionErrMsg{err: err}
		}
		return positionMsg{staker: staker, pos: pos}
	}
}

// requestProbe wakes the monitor; a pending request is enough.
func (m *Dashboard) requestProbe() {
	select {
	case m.focus <- struct{}{}:
	default:
	}
}

func (m *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.FocusMsg:
		m.requestProbe()
		return m, m.fetchCmd()

	case sessionMsg:
		logging.Debug("session marker changed, probing wallet")
		m.requestProbe()
		return m, waitForSession(m.opts.SessionChanged)

	case probeMsg:
		m.requestProbe()
		return m, probeCmd(m.opts.ProbeInterval)

	case stateMsg:
		prev, prevState := m.staker(), m.state
		m.state = wallet.State(msg)
		m.conn = m.opts.Session.Current()
		if m.state == wallet.StateConnected && prevState != wallet.StateConnected {
			m.opts.Session.StartMonitor(m.ctx, m.focus)
		}
		cmds := []tea.Cmd{waitForState(m.states)}
		if m.staker() != prev {
			m.pos = nil
			m.loading = true
			cmds = append(cmds, m.fetchCmd())
		}
		return m, tea.Batch(cmds...)

	case tickMsg:
		// Only tickMsg schedules the next tick.
		return m, tea.Batch(m.fetchCmd(), tickCmd(m.opts.RefreshInterval))

	case positionMsg:
		if msg.staker != m.staker() {
			// stale answer for an address no longer shown
			return m, nil
		}
		m.pos = msg.pos
		m.err = nil
		m.loading = false
		m.now = m.clock.Now()
		m.lastOK = m.now
		return m, m.startCountdown()

	case positionErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case countdownMsg:
		m.counting = false
		m.now = m.clock.Now()
		if !m.coolingDown() {
			return m, nil
		}
		if m.remaining() <= 0 {
			return m, m.fetchCmd()
		}
		return m, m.startCountdown()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// startCountdown ticks every second while an unstake cooldown runs.
func (m *Dashboard) startCountdown() tea.Cmd {
	if m.counting || !m.coolingDown() {
		return nil
	}
	m.counting = true
	return countdownCmd()
}

func (m *Dashboard) coolingDown() bool {
	return m.pos != nil &&
		m.pos.Eligibility.Status == staking.StatusWaitingCooldown &&
		m.pos.Eligibility.EligibleAt != nil
}

// remaining is the live cooldown left in seconds.
func (m *Dashboard) remaining() int64 {
	if !m.coolingDown() {
		return 0
	}
	left := m.pos.Eligibility.EligibleAt.Sub(m.now)
	if left < 0 {
		return 0
	}
	return int64(left / time.Second)
}

func (m *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "q", "h", "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetchCmd()
	case key.Matches(msg, m.keys.Probe):
		m.requestProbe()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	}
	return m, nil
}

// FetchOnce reads the position a single time for the static view.
func (m *Dashboard) FetchOnce(ctx context.Context) error {
	staker := m.staker()
	if staker == "" {
		m.loading = false
		return nil
	}
	pos, err := m.opts.Positions.Position(ctx, staker, m.clock.Now())
	if err != nil {
		return err
	}
	m.pos = pos
	m.loading = false
	m.now = m.clock.Now()
	m.lastOK = m.now
	return nil
}
