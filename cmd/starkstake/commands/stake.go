package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starkstake/starkstake/internal/staking"
	"github.com/starkstake/starkstake/internal/wallet"
)

// runAction resolves the wallet, shows a spinner keyed to action and
// prints the orchestrator result.
func runAction(cmd *cobra.Command, action staking.Action, fn func(ctx context.Context, app *App, conn *wallet.Connection) staking.Result) error {
	app, err := NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	conn, err := app.RequireWallet(ctx)
	if err != nil {
		return err
	}

	if !isTTY() && !jsonOutput() {
		app.Orchestrator.OnProgress(func(a staking.Action) {
			if a != staking.ActionIdle && a != action {
				fmt.Printf("%s...\n", ActionLabel(a))
			}
		})
	}

	var res staking.Result
	err = WithSpinner(ActionLabel(action)+" (confirm in your wallet)", func() error {
		res = fn(ctx, app, conn)
		return nil
	})
	if err != nil {
		return err
	}
	return printResult(res)
}

func NewStakeCmd() *cobra.Command {
	var (
		amountFlag string
		operator   string
		reward     string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "stake",
		Short: "Become a validator by staking STRK",
		Long: `Approve the staking contract for --amount STRK, then stake it.

The operational and reward addresses default to the connected account.
The amount must meet the network minimum (20,000 STRK on mainnet).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if amountFlag == "" {
				return fmt.Errorf("--amount is required")
			}
			ok, err := confirm(fmt.Sprintf("Stake %s STRK?", amountFlag), "This approves and stakes in two wallet confirmations", yes)
			if err != nil || !ok {
				return err
			}
			return runAction(cmd, staking.ActionStake, func(ctx context.Context, app *App, conn *wallet.Connection) staking.Result {
				op, rw := operator, reward
				if op == "" {
					op = conn.Address
				}
				if rw == "" {
					rw = conn.Address
				}
				return app.Orchestrator.Stake(ctx, conn.Signer, amountFlag, op, rw)
			})
		},
	}

	cmd.Flags().StringVar(&amountFlag, "amount", "", "STRK amount, e.g. 20000 or 1.5")
	cmd.Flags().StringVar(&operator, "operator", "", "Operational address (default: connected account)")
	cmd.Flags().StringVar(&reward, "reward", "", "Reward address (default: connected account)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func NewIncreaseCmd() *cobra.Command {
	var (
		amountFlag string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "increase",
		Short: "Add STRK to an existing stake",
		RunE: func(cmd *cobra.Command, args []string) error {
			if amountFlag == "" {
				return fmt.Errorf("--amount is required")
			}
			ok, err := confirm(fmt.Sprintf("Increase stake by %s STRK?", amountFlag), "", yes)
			if err != nil || !ok {
				return err
			}
			return runAction(cmd, staking.ActionIncreaseStake, func(ctx context.Context, app *App, conn *wallet.Connection) staking.Result {
				return app.Orchestrator.IncreaseStake(ctx, conn.Signer, conn.Address, amountFlag)
			})
		},
	}

	cmd.Flags().StringVar(&amountFlag, "amount", "", "STRK amount to add")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
