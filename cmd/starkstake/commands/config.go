package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/starkstake/starkstake/internal/config"
	"github.com/starkstake/starkstake/internal/sessionstore"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after the config file, .env and environment overrides are applied.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if jsonOutput() {
				return printJSON(cfg)
			}
			if !isTTY() {
				return yaml.NewEncoder(os.Stdout).Encode(cfg)
			}

			rows := [][]string{
				{"network", cfg.Network},
				{"rpc urls", strings.Join(cfg.ResolvedRPCURLs(), ", ")},
				{"token", cfg.Contracts.TokenAddress},
				{"staking contract", cfg.StakingAddress()},
				{"minimum stake", cfg.MinimumStake() + " STRK"},
				{"injected bridge", orNone(cfg.Wallet.InjectedBridge)},
				{"injected wallet", cfg.Wallet.InjectedWallet},
				{"snap bridge", orNone(cfg.Wallet.SnapBridge)},
				{"session backend", cfg.Wallet.SessionBackend},
				{"tx wait timeout", cfg.TxWaitTimeout().String()},
				{"metrics", orNone(cfg.Metrics.ListenAddr)},
			}
			fmt.Println(RenderTable([]string{"Setting", "Value"}, rows))
			fmt.Println(Hint("File: " + configPath()))
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func newConfigInitCmd() *cobra.Command {
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard",
		Long: `Write ~/.starkstake/config.yaml with a guided wizard.

Use --non-interactive to write the defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if existing := loadConfigQuiet(); existing != nil {
				cfg = existing
			}

			if !nonInteractive {
				if !isTTY() {
					return fmt.Errorf("the setup wizard needs a terminal, pass --non-interactive")
				}
				if err := runConfigWizard(cfg); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						Warning("Setup cancelled")
						return nil
					}
					return err
				}
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			path := configPath()
			if err := cfg.Save(path); err != nil {
				return err
			}
			Success("Configuration written to " + path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Write defaults without prompting")
	return cmd
}

func runConfigWizard(cfg *config.Config) error {
	maxFailures := strconv.Itoa(cfg.Wallet.MaxProbeFailures)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Network").
				Options(
					huh.NewOption("Sepolia testnet", "sepolia"),
					huh.NewOption("Mainnet", "mainnet"),
				).
				Value(&cfg.Network),
			huh.NewInput().
				Title("RPC endpoint").
				Description("Leave empty for the public node of the network").
				Value(&cfg.RPC.RPCURL).
				Validate(validateURL("http://", "https://")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Injected wallet").
				Options(
					huh.NewOption("Argent X", "argentX"),
					huh.NewOption("Braavos", "braavos"),
				).
				Value(&cfg.Wallet.InjectedWallet),
			huh.NewInput().
				Title("Injected wallet bridge").
				Description("ws:// URL of the wallet bridge, empty to disable").
				Value(&cfg.Wallet.InjectedBridge).
				Validate(validateURL("ws://", "wss://")),
			huh.NewInput().
				Title("MetaMask snap bridge").
				Description("http(s):// or ws:// URL, empty to disable").
				Value(&cfg.Wallet.SnapBridge).
				Validate(validateURL("http://", "https://", "ws://", "wss://")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Session storage").
				Description("Where the wallet session lives until you log out").
				Options(
					huh.NewOption("Runtime directory", sessionstore.BackendRuntime),
					huh.NewOption("Kernel session keyring (Linux)", sessionstore.BackendKernel),
					huh.NewOption("Platform keyring", sessionstore.BackendKeyring),
				).
				Value(&cfg.Wallet.SessionBackend),
			huh.NewInput().
				Title("Failed probes before disconnect").
				Value(&maxFailures).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(s); err != nil || n < 1 {
						return fmt.Errorf("must be a positive number")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeBase())

	if err := form.Run(); err != nil {
		return err
	}
	cfg.Wallet.InjectedName = walletName(cfg.Wallet.InjectedWallet)
	cfg.Wallet.MaxProbeFailures, _ = strconv.Atoi(maxFailures)
	return nil
}

func walletName(id string) string {
	if id == "braavos" {
		return "Braavos"
	}
	return "Argent X"
}

func validateURL(schemes ...string) func(string) error {
	return func(s string) error {
		if s == "" {
			return nil
		}
		for _, scheme := range schemes {
			if strings.HasPrefix(s, scheme) {
				return nil
			}
		}
		return fmt.Errorf("must start with %s", strings.Join(schemes, " or "))
	}
}
