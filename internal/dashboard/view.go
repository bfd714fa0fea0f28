package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/starkstake/starkstake/internal/staking"
	"github.com/starkstake/starkstake/internal/wallet"
)

var (
	colorAccent = lipgloss.Color("#ec796b")
	colorOK     = lipgloss.Color("#22c55e")
	colorWarn   = lipgloss.Color("#eab308")
	colorBad    = lipgloss.Color("#ef4444")
	colorMuted  = lipgloss.Color("241")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(colorMuted).Width(16)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func stateColor(s string) lipgloss.Color {
	switch s {
	case "connected", string(staking.ValidatorActive), string(staking.StatusReadyToFinalize):
		return colorOK
	case "connecting", string(staking.ValidatorExiting), string(staking.StatusWaitingCooldown):
		return colorWarn
	case "disconnected", string(staking.ValidatorExited):
		return colorBad
	}
	return colorMuted
}

func colored(s string) string {
	return lipgloss.NewStyle().Foreground(stateColor(s)).Bold(true).Render(s)
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

// View renders the dashboard (Bubble Tea lifecycle)
func (m *Dashboard) View() string {
	if m.width <= 0 || m.height <= 1 {
		return ""
	}
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			fmt.Sprintf("%s Reading staking position...", m.spinner.View()))
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			panelStyle.Padding(1, 2).Render(m.help.FullHelpView(m.keys.FullHelp())))
	}

	half := m.width/2 - 2
	if half < 30 {
		half = m.width - 2
	}
	top := m.headerView(m.width - 2)
	left := panelStyle.Width(half).Render(m.validatorView())
	right := panelStyle.Width(half).Render(m.unstakeView())

	var body string
	if half == m.width-2 {
		body = lipgloss.JoinVertical(lipgloss.Left, left, right)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, body, m.footerView())
}

func (m *Dashboard) headerView(width int) string {
	lines := []string{titleStyle.Render("STARKSTAKE DASHBOARD") + mutedStyle.Render("  "+m.opts.Network.Label())}

	session := row("Wallet", colored(m.state.String()))
	if m.conn != nil {
		session += "  " + m.conn.WalletName + " " + wallet.FormatAddress(m.conn.Address, 4) +
			mutedStyle.Render(" on "+wallet.NetworkLabel(m.conn.ChainID))
	}
	lines = append(lines, session)

	updated := "never"
	if !m.lastOK.IsZero() {
		updated = m.lastOK.Format("15:04:05")
		if m.clock.Since(m.lastOK) > 2*m.opts.RefreshInterval {
			updated += " (STALE)"
		}
	}
	lines = append(lines, row("Last update", updated))
	if m.err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorBad).Render("⚠ "+m.err.Error()))
	}
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Dashboard) validatorView() string {
	lines := []string{titleStyle.Render("Validator")}
	if m.staker() == "" {
		return strings.Join(append(lines, mutedStyle.Render("No wallet connected. Run 'starkstake connect'.")), "\n")
	}
	v := validatorOf(m.pos)
	if v == nil {
		return strings.Join(append(lines,
			row("Staker", wallet.FormatAddress(m.staker(), 6)),
			row("Status", colored(string(staking.ValidatorNotStaking))),
		), "\n")
	}
	lines = append(lines,
		row("Staker", wallet.FormatAddress(v.StakerAddress, 6)),
		row("Status", colored(string(v.Status))),
		row("Staked", v.AmountStaked+" "+staking.TokenSymbol),
		row("Unclaimed", v.UnclaimedRewards+" "+staking.TokenSymbol),
		row("Operator", wallet.FormatAddress(v.OperatorAddress, 6)),
		row("Rewards to", wallet.FormatAddress(v.RewardAddress, 6)),
	)
	if v.PoolContract != "" {
		lines = append(lines,
			row("Pool", wallet.FormatAddress(v.PoolContract, 6)),
			row("Pooled", v.PooledAmount+" "+staking.TokenSymbol))
	}
	return strings.Join(lines, "\n")
}

func validatorOf(p *staking.Position) *staking.Validator {
	if p == nil {
		return nil
	}
	return p.Validator
}

func (m *Dashboard) unstakeView() string {
	lines := []string{titleStyle.Render("Unstake")}
	if m.pos == nil {
		return strings.Join(append(lines, mutedStyle.Render("-")), "\n")
	}
	el := m.pos.Eligibility
	lines = append(lines, row("Status", colored(string(el.Status))))
	if el.EligibleAt != nil {
		lines = append(lines, row("Eligible at", el.EligibleAt.Local().Format(time.DateTime)))
	}
	switch el.Status {
	case staking.StatusWaitingCooldown:
		lines = append(lines, row("Remaining", FormatRemaining(m.remaining())))
	case staking.StatusReadyToFinalize:
		lines = append(lines, mutedStyle.Render("Ready: run 'starkstake unstake action'"))
	}
	return strings.Join(lines, "\n")
}

func (m *Dashboard) footerView() string {
	footer := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.opts.MetricsAddr != "" {
		footer += mutedStyle.Render("  metrics: http://" + m.opts.MetricsAddr + "/metrics")
	}
	return footer
}

// RenderStatic is the plain snapshot printed when stdout is not a terminal.
func (m *Dashboard) RenderStatic() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "StarkStake Dashboard (%s)\n", m.opts.Network.Label())
	fmt.Fprintf(&sb, "%-14s %s\n", "Wallet:", m.state.String())
	if m.conn != nil {
		fmt.Fprintf(&sb, "%-14s %s (%s)\n", "Account:", m.conn.Address, m.conn.WalletName)
	}
	if m.staker() == "" {
		sb.WriteString("No wallet connected.\n")
		return sb.String()
	}
	v := validatorOf(m.pos)
	if v == nil {
		fmt.Fprintf(&sb, "%-14s %s\n", "Status:", staking.ValidatorNotStaking)
		return sb.String()
	}
	fmt.Fprintf(&sb, "%-14s %s\n", "Status:", v.Status)
	fmt.Fprintf(&sb, "%-14s %s %s\n", "Staked:", v.AmountStaked, staking.TokenSymbol)
	fmt.Fprintf(&sb, "%-14s %s %s\n", "Unclaimed:", v.UnclaimedRewards, staking.TokenSymbol)
	fmt.Fprintf(&sb, "%-14s %s\n", "Unstake:", m.pos.Eligibility.Status)
	if m.coolingDown() {
		fmt.Fprintf(&sb, "%-14s %s\n", "Remaining:", FormatRemaining(m.remaining()))
	}
	return sb.String()
}

// FormatRemaining renders seconds as e.g. "6d 23h 59m 59s".
func FormatRemaining(secs int64) string {
	if secs <= 0 {
		return "0s"
	}
	d := secs / 86400
	h := secs % 86400 / 3600
	mins := secs % 3600 / 60
	s := secs % 60
	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", d, h, mins, s)
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, mins, s)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, s)
	}
	return fmt.Sprintf("%ds", s)
}
