package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/starkstake/starkstake/cmd/starkstake/commands"
)

var rootCmd = &cobra.Command{
	Use:           "starkstake",
	Short:         "Starknet validator staking from the terminal",
	Long:          "Connect a Starknet wallet, inspect your staking position and run stake, unstake and reward operations.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return commands.SetupLogging()
	},
}

func init() {
	commands.RegisterGlobalFlags(rootCmd)
}

func main() {
	rootCmd.AddCommand(commands.NewConnectCmd())
	rootCmd.AddCommand(commands.NewDisconnectCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewSignInCmd())
	rootCmd.AddCommand(commands.NewStatusCmd())
	rootCmd.AddCommand(commands.NewBalanceCmd())
	rootCmd.AddCommand(commands.NewStakeCmd())
	rootCmd.AddCommand(commands.NewIncreaseCmd())
	rootCmd.AddCommand(commands.NewUnstakeCmd())
	rootCmd.AddCommand(commands.NewClaimCmd())
	rootCmd.AddCommand(commands.NewRewardAddressCmd())
	rootCmd.AddCommand(commands.NewDashboardCmd())
	rootCmd.AddCommand(commands.NewConfigCmd())
	rootCmd.AddCommand(commands.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
