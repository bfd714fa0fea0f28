package commands

import (
	"context"
	"errors"
	"time"

	"github.com/starkstake/starkstake/internal/config"
	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/metrics"
	"github.com/starkstake/starkstake/internal/sessionstore"
	"github.com/starkstake/starkstake/internal/staking"
	"github.com/starkstake/starkstake/internal/starknet"
	"github.com/starkstake/starkstake/internal/util"
	"github.com/starkstake/starkstake/internal/wallet"
	"github.com/starkstake/starkstake/internal/wallet/bridge"
)

var errActionFailed = errors.New("staking action failed")

// App is everything a command needs, built from the loaded config.
type App struct {
	Config       *config.Config
	Network      starknet.Network
	Client       *starknet.Client
	Reader       *staking.Reader
	Orchestrator *staking.Orchestrator
	Session      sessionstore.Store
	Platform     *bridge.Platform
	Wallet       *wallet.Manager
	Metrics      *metrics.PrometheusCollector
}

// NewApp wires the chain client, wallet manager and orchestrator. The
// caller must Close it.
func NewApp() (*App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newAppWithConfig(cfg, wallet.Prompter(huhPrompter{}))
}

func newAppWithConfig(cfg *config.Config, prompter wallet.Prompter) (*App, error) {
	network := cfg.StarknetNetwork()

	retry := util.DefaultRetryConfig()
	retry.MaxRetries = cfg.RPC.MaxRetries
	client, err := starknet.NewClient(&starknet.ClientConfig{
		RPCURLs:        cfg.ResolvedRPCURLs(),
		RequestTimeout: cfg.RequestTimeout(),
		RateLimit:      cfg.RPC.RateLimit,
		Burst:          cfg.RPC.Burst,
		RetryConfig:    retry,
	})
	if err != nil {
		return nil, err
	}

	session, err := sessionstore.Open(cfg.Wallet.SessionBackend)
	if err != nil {
		client.Close()
		return nil, err
	}

	pc := metrics.NewPrometheusCollector(metrics.NewCollector())
	client.SetObserver(pc.ObserveRPC)

	reader := staking.NewReader(client, staking.Contracts{
		Token:   cfg.Contracts.TokenAddress,
		Staking: cfg.StakingAddress(),
	})
	orch := staking.NewOrchestrator(reader, client, staking.Options{
		Network:                 network,
		TxRetryInterval:         cfg.TxRetryInterval(),
		TxWaitTimeout:           cfg.TxWaitTimeout(),
		MinimumStake:            cfg.MinimumStake(),
		SkipUnstakePrecondition: cfg.Staking.SkipUnstakePrecondition,
	})
	orch.SetObserver(func(a staking.Action, outcome string, elapsed time.Duration) {
		pc.ObserveTx(string(a), outcome, elapsed)
	})
	orch.OnProgress(func(a staking.Action) {
		if a != staking.ActionIdle {
			logging.Debug("staking step started", logging.Action(string(a)))
		}
	})

	platform := bridge.NewPlatform(bridge.Config{
		InjectedURL:  cfg.Wallet.InjectedBridge,
		InjectedID:   cfg.Wallet.InjectedWallet,
		InjectedName: cfg.Wallet.InjectedName,
		SnapURL:      cfg.Wallet.SnapBridge,
	}, session)
	manager := wallet.NewManager(platform, prompter, wallet.Options{
		Network:          network,
		MaxProbeFailures: cfg.Wallet.MaxProbeFailures,
		OnProbeFailure:   pc.ObserveProbeFailure,
	})

	return &App{
		Config:       cfg,
		Network:      network,
		Client:       client,
		Reader:       reader,
		Orchestrator: orch,
		Session:      session,
		Platform:     platform,
		Wallet:       manager,
		Metrics:      pc,
	}, nil
}

// TrackSession mirrors wallet state changes into the metrics collector
// until the returned func is called.
func (a *App) TrackSession() func() {
	states, unsubscribe := a.Wallet.Subscribe()
	a.Metrics.SetSessionState(a.Wallet.State().String())
	util.SafeGoWithName("session-metrics", func() {
		for s := range states {
			a.Metrics.SetSessionState(s.String())
		}
	})
	return unsubscribe
}

// RequireWallet silently resumes the stored session. Commands that sign
// never prompt; the user runs `starkstake connect` first.
func (a *App) RequireWallet(ctx context.Context) (*wallet.Connection, error) {
	if conn := a.Wallet.Current(); conn != nil {
		return conn, nil
	}
	conn := a.Wallet.Reconnect(ctx)
	if conn == nil {
		return nil, wallet.ErrNotConnected
	}
	if conn.Network() != a.Network {
		Warning("Wallet is on " + conn.Network().Label() + " but starkstake is configured for " + a.Network.Label())
	}
	return conn, nil
}

// Close releases bridges and RPC connections.
func (a *App) Close() {
	a.Platform.Close()
	a.Client.Close()
}
