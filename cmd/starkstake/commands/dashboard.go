package commands

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/starkstake/starkstake/internal/dashboard"
	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/sessionstore"
	"github.com/starkstake/starkstake/internal/wallet"
)

func NewDashboardCmd() *cobra.Command {
	var (
		address         string
		refreshInterval time.Duration
		rpcTimeout      time.Duration
		metricsAddr     string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live view of the staking position",
		Long: `Launch an interactive terminal dashboard showing:

  • Wallet session state, re-checked whenever the terminal regains focus
  • Validator status, stake and unclaimed rewards
  • Unstake window with a live countdown

For non-interactive environments the dashboard prints a static snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			stopTracking := app.TrackSession()
			defer stopTracking()

			app.Wallet.Reconnect(ctx)

			if metricsAddr == "" {
				metricsAddr = app.Config.Metrics.ListenAddr
			}
			shownAddr := ""
			if metricsAddr != "" {
				addr, err := app.Metrics.Serve(ctx, metricsAddr)
				if err != nil {
					return fmt.Errorf("failed to serve metrics: %w", err)
				}
				shownAddr = addr.String()
			}

			opts := dashboard.Options{
				Positions:       app.Reader,
				Session:         app.Wallet,
				Network:         app.Network,
				Staker:          address,
				SessionChanged:  watchSession(ctx, app.Session),
				RefreshInterval: refreshInterval,
				ProbeInterval:   app.Config.PollInterval(),
				RPCTimeout:      rpcTimeout,
				MetricsAddr:     shownAddr,
			}
			d := dashboard.New(opts)
			defer d.Close()

			if !isTTY() {
				fetchCtx, cancelFetch := context.WithTimeout(ctx, rpcTimeout)
				defer cancelFetch()
				if err := d.FetchOnce(fetchCtx); err != nil {
					return fmt.Errorf("failed to read staking position: %w", err)
				}
				fmt.Print(d.RenderStatic())
				return nil
			}

			p := tea.NewProgram(d,
				tea.WithAltScreen(),
				tea.WithReportFocus(),
				tea.WithContext(ctx),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Staker to show (default: connected wallet)")
	cmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 15*time.Second, "Position refresh interval")
	cmd.Flags().DurationVar(&rpcTimeout, "rpc-timeout", 10*time.Second, "RPC request timeout")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
	return cmd
}

// watchSession reports changes to the stored session marker when the
// session lives in the runtime directory. Other backends return nil.
func watchSession(ctx context.Context, store sessionstore.Store) <-chan struct{} {
	file, ok := store.(*sessionstore.File)
	if !ok {
		return nil
	}
	ch, err := file.Watch(ctx, wallet.SessionKey)
	if err != nil {
		logging.Warn("session watch unavailable", logging.Err(err))
		return nil
	}
	return ch
}
