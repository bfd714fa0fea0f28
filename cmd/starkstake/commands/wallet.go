package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/starkstake/starkstake/internal/wallet"
)

// huhPrompter asks which wallet to connect with a huh select.
type huhPrompter struct{}

func (huhPrompter) SelectWallet(ctx context.Context, options []wallet.WalletOption) (string, error) {
	if !isTTY() {
		return "", &wallet.Error{Kind: wallet.KindUnavailable, Message: "wallet selection needs a terminal, pass --wallet"}
	}
	if len(options) == 1 {
		return options[0].ID, nil
	}

	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		label := o.Name
		if o.Backend == wallet.BackendRemoteSnap {
			label += " (Starknet snap)"
		}
		opts = append(opts, huh.NewOption(label, o.ID))
	}

	var choice string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Connect a wallet").
				Description("Pick the wallet that holds your staking account").
				Options(opts...).
				Value(&choice),
		),
	).WithTheme(huh.ThemeBase()).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", &wallet.Error{Kind: wallet.KindUserRejected, Message: "wallet selection cancelled", Err: err}
	}
	return choice, err
}

// confirm asks a yes/no question. Without a terminal it assumes yes only
// when assumeYes is set.
func confirm(title, description string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !isTTY() {
		return false, fmt.Errorf("%s: confirmation needs a terminal, pass --yes", title)
	}
	ok := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeBase()).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func connectionFields(conn *wallet.Connection) [][2]string {
	return [][2]string{
		{"Wallet", conn.WalletName},
		{"Type", conn.WalletType()},
		{"Address", wallet.FormatAddress(conn.Address, 4)},
		{"Network", wallet.NetworkLabel(conn.ChainID)},
		{"Backend", string(conn.Backend)},
	}
}

func NewConnectCmd() *cobra.Command {
	var walletID string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect a Starknet wallet",
		Long: `Connect Argent X, Braavos or MetaMask (through the Starknet snap).

Without --wallet you pick from the wallets whose bridge is configured.
The session lasts until you log out or run 'starkstake disconnect'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if conn := app.Wallet.Reconnect(ctx); conn != nil && walletID == "" {
				return printConnection(conn, "Already connected")
			}

			conn, err := app.Wallet.Connect(ctx, walletID)
			if err != nil {
				if wallet.IsRejection(err) {
					Warning("Connection cancelled")
					return nil
				}
				return err
			}
			return printConnection(conn, "Wallet connected")
		},
	}

	cmd.Flags().StringVar(&walletID, "wallet", "", "Wallet to connect: argentX, braavos or metamask")
	return cmd
}

func printConnection(conn *wallet.Connection, msg string) error {
	if jsonOutput() {
		return printJSON(conn)
	}
	Success(msg)
	fmt.Println(StatusBox("Wallet", connectionFields(conn)))
	return nil
}

func NewDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "End the wallet session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			app.Wallet.Disconnect(cmd.Context())
			if jsonOutput() {
				return printJSON(map[string]string{"state": app.Wallet.State().String()})
			}
			Success("Wallet disconnected")
			return nil
		},
	}
}

func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the connected wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			conn := app.Wallet.Reconnect(cmd.Context())
			if conn == nil {
				if jsonOutput() {
					return printJSON(map[string]string{"state": wallet.StateDisconnected.String()})
				}
				Info("No wallet connected")
				fmt.Println(Hint("Run 'starkstake connect' to connect one"))
				return nil
			}
			return printConnection(conn, "Wallet connected")
		},
	}
}

func NewSignInCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "sign-in",
		Short: "Sign a StarkStake authentication message",
		Long:  "Ask the connected wallet to sign the StarkStake typed-data login message.",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			var sig []string
			err = WithSpinner("Waiting for signature", func() error {
				var signErr error
				sig, signErr = wallet.SignAuthMessage(ctx, conn.Signer, message)
				return signErr
			})
			if err != nil {
				if wallet.IsRejection(err) {
					Warning("Signature request rejected")
					return nil
				}
				return err
			}

			if jsonOutput() {
				return printJSON(map[string]any{
					"address":   conn.Address,
					"nonce":     wallet.AuthNonce(message),
					"signature": sig,
				})
			}
			Success("Message signed")
			fmt.Println(KeyValue("Address", conn.Address))
			fmt.Println(KeyValue("Nonce", wallet.AuthNonce(message)))
			for i, part := range sig {
				fmt.Println(KeyValue(fmt.Sprintf("Signature[%d]", i), part))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "Nonce text to sign (default: starkstake-auth)")
	return cmd
}
