package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/starkstake/starkstake/internal/staking"
	"github.com/starkstake/starkstake/internal/wallet"
)

func NewUnstakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unstake",
		Short: "Exit the validator set in two steps",
		Long: `Unstaking is two transactions. 'unstake intent' starts the exit window;
once it has passed, 'unstake action' withdraws the stake.
Check progress with 'starkstake status'.`,
	}

	cmd.AddCommand(newUnstakeIntentCmd())
	cmd.AddCommand(newUnstakeActionCmd())
	return cmd
}

func newUnstakeIntentCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "intent",
		Short: "Signal the intent to unstake",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm("Start unstaking?", "Your stake stops earning and is locked until the exit window passes", yes)
			if err != nil || !ok {
				return err
			}
			return runAction(cmd, staking.ActionUnstakeIntent, func(ctx context.Context, app *App, conn *wallet.Connection) staking.Result {
				return app.Orchestrator.UnstakeIntent(ctx, conn.Signer)
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newUnstakeActionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "action",
		Short: "Withdraw the stake after the exit window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, staking.ActionUnstakeAction, func(ctx context.Context, app *App, conn *wallet.Connection) staking.Result {
				return app.Orchestrator.UnstakeAction(ctx, conn.Signer, conn.Address)
			})
		},
	}
}

func NewClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim",
		Short: "Claim unclaimed staking rewards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, staking.ActionClaimRewards, func(ctx context.Context, app *App, conn *wallet.Connection) staking.Result {
				return app.Orchestrator.ClaimRewards(ctx, conn.Signer, conn.Address)
			})
		},
	}
}

func NewRewardAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reward-address [address]",
		Short: "Change where rewards are paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, staking.ActionChangeRewardAddress, func(ctx context.Context, app *App, conn *wallet.Connection) staking.Result {
				return app.Orchestrator.ChangeRewardAddress(ctx, conn.Signer, args[0])
			})
		},
	}
}
