package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/starkstake/starkstake/internal/dashboard"
	"github.com/starkstake/starkstake/internal/staking"
	"github.com/starkstake/starkstake/internal/starknet"
)

func NewStatusCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the staking position and unstake eligibility",
		Long: `Show the validator record of the connected wallet, or of --address,
and whether an unstake can be finalized.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			staker, err := resolveAddress(app, cmd, address)
			if err != nil {
				return err
			}

			var pos *staking.Position
			err = WithSpinner("Reading staking position", func() error {
				var readErr error
				pos, readErr = app.Reader.Position(ctx, staker, time.Now())
				return readErr
			})
			if err != nil {
				return fmt.Errorf("failed to read staking position: %w", err)
			}

			if jsonOutput() {
				return printJSON(pos)
			}
			fmt.Println(renderPosition(pos, app.Network))
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Staker address (default: connected wallet)")
	return cmd
}

// resolveAddress returns a validated --address or the connected account.
func resolveAddress(app *App, cmd *cobra.Command, address string) (string, error) {
	if address != "" {
		norm, err := starknet.NormalizeAddress(address)
		if err != nil {
			return "", fmt.Errorf("invalid --address: %w", err)
		}
		return norm, nil
	}
	conn, err := app.RequireWallet(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("%w (pass --address to inspect any staker)", err)
	}
	return conn.Address, nil
}

func renderPosition(pos *staking.Position, network starknet.Network) string {
	v := pos.Validator
	if v == nil {
		return StatusBox("Validator", [][2]string{
			{"Staker", pos.Staker},
			{"Status", StatusBadge(string(staking.ValidatorNotStaking))},
			{"Network", network.Label()},
		}) + "\n" + Hint("No staking position. Run 'starkstake stake' to create one.")
	}

	fields := [][2]string{
		{"Staker", v.StakerAddress},
		{"Status", StatusBadge(string(v.Status))},
		{"Network", network.Label()},
		{"Staked", v.AmountStaked + " " + staking.TokenSymbol},
		{"Unclaimed", v.UnclaimedRewards + " " + staking.TokenSymbol},
		{"Operator", v.OperatorAddress},
		{"Reward address", v.RewardAddress},
	}
	if v.PoolContract != "" {
		fields = append(fields,
			[2]string{"Pool", v.PoolContract},
			[2]string{"Pooled", v.PooledAmount + " " + staking.TokenSymbol},
		)
	}
	out := StatusBox("Validator", fields)
	out += "\n" + SectionHeader("Unstake")
	out += "\n" + KeyValue("Status", StatusBadge(string(pos.Eligibility.Status)))
	if at := pos.Eligibility.EligibleAt; at != nil {
		out += "\n" + KeyValue("Eligible at", at.Local().Format(time.RFC1123))
	}
	switch pos.Eligibility.Status {
	case staking.StatusWaitingCooldown:
		out += "\n" + KeyValue("Remaining", dashboard.FormatRemaining(pos.Eligibility.RemainingSeconds))
	case staking.StatusReadyToFinalize:
		out += "\n" + Hint("Run 'starkstake unstake action' to withdraw")
	case staking.StatusNotInitiated:
		out += "\n" + Hint("Run 'starkstake unstake intent' to start the exit window")
	}
	return out
}

func NewBalanceCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "STRK token balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			owner, err := resolveAddress(app, cmd, address)
			if err != nil {
				return err
			}

			var bal *staking.BalanceData
			err = WithSpinner("Reading balance", func() error {
				var readErr error
				bal, readErr = app.Reader.GetBalance(ctx, owner)
				return readErr
			})
			if err != nil {
				return fmt.Errorf("failed to get balance: %w", err)
			}
			allowance := app.Reader.GetAllowance(ctx, owner)

			if jsonOutput() {
				return printJSON(map[string]any{
					"address":   bal.Address,
					"balance":   bal.Balance.String(),
					"allowance": allowance.String(),
					"decimals":  bal.Decimals,
					"symbol":    bal.Symbol,
				})
			}
			fmt.Println(StatusBox("STRK Balance", [][2]string{
				{"Address", bal.Address},
				{"Available", FormatSTRK(bal.Balance)},
				{"Staking allowance", FormatSTRK(allowance)},
				{"Network", app.Network.Label()},
			}))
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Account address (default: connected wallet)")
	return cmd
}
