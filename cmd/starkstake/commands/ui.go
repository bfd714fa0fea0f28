package commands

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/starkstake/starkstake/internal/amount"
	"github.com/starkstake/starkstake/internal/staking"
)

// StatusBox renders a titled box with key-value fields.
//
//	StatusBox("Wallet", [][2]string{{"Address", "0x0471...938d"}})
func StatusBox(title string, fields [][2]string) string {
	if !isTTY() {
		return statusBoxPlain(title, fields)
	}

	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(title))
	sb.WriteString("\n")
	for _, f := range fields {
		sb.WriteString(StyleLabel.Render(f[0]) + StyleValue.Render(f[1]) + "\n")
	}
	return StyleBox.Render(strings.TrimRight(sb.String(), "\n"))
}

func statusBoxPlain(title string, fields [][2]string) string {
	var sb strings.Builder
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", len(title)) + "\n")
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf("%-18s %s\n", f[0]+":", f[1]))
	}
	return sb.String()
}

// RenderTable renders a styled table with headers and rows.
func RenderTable(headers []string, rows [][]string) string {
	if !isTTY() {
		return renderTablePlain(headers, rows)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorDim)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(ColorWhite).Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

func renderTablePlain(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		sb.WriteString(fmt.Sprintf("%-*s  ", widths[i], h))
	}
	sb.WriteString("\n")
	for i, w := range widths {
		sb.WriteString(strings.Repeat("-", w))
		if i < len(widths)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				sb.WriteString(fmt.Sprintf("%-*s  ", widths[i], cell))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Success prints a success message.
func Success(msg string) {
	if isTTY() {
		fmt.Println(StyleSuccess.Render("  " + msg))
	} else {
		fmt.Println("[OK] " + msg)
	}
}

// Error prints an error message.
func Error(msg string) {
	if isTTY() {
		fmt.Println(StyleError.Render("  " + msg))
	} else {
		fmt.Println("[ERROR] " + msg)
	}
}

// Warning prints a warning message.
func Warning(msg string) {
	if isTTY() {
		fmt.Println(StyleWarning.Render("  " + msg))
	} else {
		fmt.Println("[WARN] " + msg)
	}
}

// Info prints an informational message.
func Info(msg string) {
	if isTTY() {
		fmt.Println(StyleInfo.Render("  " + msg))
	} else {
		fmt.Println("[INFO] " + msg)
	}
}

// WithSpinner runs fn while showing a spinner with the given message.
func WithSpinner(msg string, fn func() error) error {
	if !isTTY() || jsonOutput() {
		if !jsonOutput() {
			fmt.Printf("%s...\n", msg)
		}
		return fn()
	}

	var fnErr error
	err := spinner.New().
		Title(msg).
		Action(func() {
			fnErr = fn()
		}).
		Run()
	if err != nil {
		return err
	}
	return fnErr
}

var actionLabels = map[staking.Action]string{
	staking.ActionApprove:             "Approving STRK",
	staking.ActionStake:               "Staking",
	staking.ActionIncreaseStake:       "Increasing stake",
	staking.ActionUnstakeIntent:       "Signalling unstake intent",
	staking.ActionUnstakeAction:       "Withdrawing stake",
	staking.ActionClaimRewards:        "Claiming rewards",
	staking.ActionChangeRewardAddress: "Changing reward address",
}

// ActionLabel is the busy text for an orchestrator step.
func ActionLabel(a staking.Action) string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

// FormatSTRK formats an 18-decimal amount with thousands separators.
func FormatSTRK(v *big.Int) string {
	if v == nil {
		return "0 " + staking.TokenSymbol
	}
	s := amount.Format(v)
	whole, frac, _ := strings.Cut(s, ".")
	out := addThousandsSep(whole)
	if frac != "" {
		out += "." + frac
	}
	return out + " " + staking.TokenSymbol
}

// FormatSTRKString formats a decimal wei string.
func FormatSTRKString(s string) string {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return "0 " + staking.TokenSymbol
	}
	return FormatSTRK(v)
}

func addThousandsSep(s string) string {
	if len(s) <= 3 {
		return s
	}

	negative := false
	if s[0] == '-' {
		negative = true
		s = s[1:]
	}

	var result strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}

	if negative {
		return "-" + result.String()
	}
	return result.String()
}

// SectionHeader renders a section header with a divider.
func SectionHeader(title string) string {
	if !isTTY() {
		return "\n" + title + "\n" + strings.Repeat("-", len(title))
	}
	return "\n" + StyleSubheader.Render(title)
}

// KeyValue renders a single key-value line with consistent alignment.
func KeyValue(key, value string) string {
	if !isTTY() {
		return fmt.Sprintf("  %-18s %s", key+":", value)
	}
	return "  " + StyleLabel.Render(key) + StyleValue.Render(value)
}

// Hint renders a dim hint/suggestion message.
func Hint(msg string) string {
	if !isTTY() {
		return "  " + msg
	}
	return "  " + StyleDim.Render(msg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult reports an orchestrator outcome. A failed result becomes the
// command's error so the exit code reflects it.
func printResult(res staking.Result) error {
	if jsonOutput() {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		switch {
		case !res.Success:
			Error(fmt.Sprintf("%s failed: %s", ActionLabel(res.Action), res.Error))
		case res.TxHash == "":
			Success(fmt.Sprintf("%s: nothing to submit", ActionLabel(res.Action)))
		case res.Confirmed:
			Success(fmt.Sprintf("%s confirmed", ActionLabel(res.Action)))
		default:
			Warning(fmt.Sprintf("%s submitted, not yet confirmed", ActionLabel(res.Action)))
		}
		if res.TxHash != "" {
			fmt.Println(KeyValue("Transaction", res.TxHash))
		}
		if res.ExplorerURL != "" {
			fmt.Println(KeyValue("Explorer", res.ExplorerURL))
		}
		if res.Advisory != "" {
			fmt.Println(Hint(res.Advisory))
		}
	}
	if !res.Success {
		return errActionFailed
	}
	return nil
}
