package commands

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/starkstake/starkstake/internal/staking"
)

// Brand colors
var (
	ColorAccent  = lipgloss.Color("#ec796b") // Starknet orange
	ColorSuccess = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#eab308")
	ColorError   = lipgloss.Color("#ef4444")
	ColorInfo    = lipgloss.Color("#0c0c4f")
	ColorMuted   = lipgloss.Color("#6b7280")
	ColorDim     = lipgloss.Color("#4b5563")
	ColorWhite   = lipgloss.Color("#f9fafb")
)

// isTTY reports whether stdout is a terminal.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Semantic text styles
var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	StyleSubheader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMuted)

	StyleAccent = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleInfo = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: string(ColorInfo), Dark: "#8c8cff"})

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleDim = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Width(18)

	StyleValue = lipgloss.NewStyle().
			Foreground(ColorWhite)
)

// Box styles
var (
	StyleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim).
			Padding(0, 1)

	StyleBoxAccent = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1)
)

func badge(bg lipgloss.Color, text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#000000")).
		Background(bg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// StatusBadge colors validator, unstake and session states.
func StatusBadge(status string) string {
	if !isTTY() {
		return status
	}
	switch status {
	case string(staking.ValidatorActive), string(staking.StatusReadyToFinalize), "connected", "confirmed":
		return badge(ColorSuccess, status)
	case string(staking.ValidatorExited), "disconnected", "failed":
		return badge(ColorError, status)
	case string(staking.ValidatorExiting), string(staking.StatusWaitingCooldown), "connecting", "unconfirmed":
		return badge(ColorWarning, status)
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#000000")).
		Background(ColorMuted).
		Padding(0, 1).
		Render(status)
}

// Logo returns the styled brand text
func Logo() string {
	return StyleAccent.Render("starkstake")
}
