package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starkstake/starkstake/internal/amount"
	"github.com/starkstake/starkstake/internal/logging"
	"github.com/starkstake/starkstake/internal/sessionstore"
	"github.com/starkstake/starkstake/internal/starknet"
)

// Known contract deployments.
const (
	DefaultTokenAddress          = "0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d"
	DefaultStakingAddressMainnet = "0x00ca1702e64c81d9a07b86bd2c540188d92a2c73cf5cc0e508d949015e7e84a7"
	DefaultStakingAddressSepolia = "0x03745ab04a431fc02871a139be6b93d9260b0ff3e779ad9c8b377183b23109f1"

	DefaultMinStakeMainnet = "20000"
	DefaultMinStakeSepolia = "1"
)

// Config is the complete CLI configuration.
type Config struct {
	Network   string          `yaml:"network"` // mainnet or sepolia
	RPC       RPCConfig       `yaml:"rpc"`
	Contracts ContractsConfig `yaml:"contracts"`
	Staking   StakingConfig   `yaml:"staking"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// RPCConfig contains Starknet node settings
type RPCConfig struct {
	RPCURL             string   `yaml:"rpc_url"`  // Primary endpoint; empty uses the network's public node
	RPCURLs            []string `yaml:"rpc_urls"` // Additional endpoints for failover
	RequestTimeoutSecs int      `yaml:"request_timeout_secs"`
	RateLimit          float64  `yaml:"rate_limit"` // Requests per second, 0 = unlimited
	Burst              int      `yaml:"burst"`
	MaxRetries         int      `yaml:"max_retries"`
}

// ContractsConfig holds the token and per-network staking contracts
type ContractsConfig struct {
	TokenAddress          string `yaml:"token_address"`
	StakingAddressMainnet string `yaml:"staking_address_mainnet"`
	StakingAddressSepolia string `yaml:"staking_address_sepolia"`
}

// StakingConfig contains transaction flow settings
type StakingConfig struct {
	MinStakeMainnet         string `yaml:"min_stake_mainnet"` // Human STRK amount
	MinStakeSepolia         string `yaml:"min_stake_sepolia"`
	TxRetryIntervalMillis   int    `yaml:"tx_retry_interval_ms"`
	TxWaitTimeoutSecs       int    `yaml:"tx_wait_timeout_secs"`
	SkipUnstakePrecondition bool   `yaml:"skip_unstake_precondition"`
}

// WalletConfig contains wallet bridge and session settings
type WalletConfig struct {
	InjectedBridge   string `yaml:"injected_bridge"` // ws:// URL of the injected wallet bridge
	InjectedWallet   string `yaml:"injected_wallet"` // Wallet id, e.g. argentX or braavos
	InjectedName     string `yaml:"injected_name"`
	SnapBridge       string `yaml:"snap_bridge"`     // http(s):// or ws:// URL of the MetaMask snap host
	SessionBackend   string `yaml:"session_backend"` // runtime, kernel, keyring, memory
	MaxProbeFailures int    `yaml:"max_probe_failures"`
	PollIntervalSecs int    `yaml:"poll_interval_secs"` // Dashboard liveness probe interval
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// MetricsConfig contains the Prometheus endpoint settings
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"` // Empty disables /metrics
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Network: string(starknet.Sepolia),
		RPC: RPCConfig{
			RequestTimeoutSecs: 15,
			RateLimit:          10,
			Burst:              5,
			MaxRetries:         2,
		},
		Contracts: ContractsConfig{
			TokenAddress:          DefaultTokenAddress,
			StakingAddressMainnet: DefaultStakingAddressMainnet,
			StakingAddressSepolia: DefaultStakingAddressSepolia,
		},
		Staking: StakingConfig{
			MinStakeMainnet:       DefaultMinStakeMainnet,
			MinStakeSepolia:       DefaultMinStakeSepolia,
			TxRetryIntervalMillis: 2000,
			TxWaitTimeoutSecs:     30,
		},
		Wallet: WalletConfig{
			InjectedWallet:   "argentX",
			InjectedName:     "Argent X",
			SessionBackend:   sessionstore.BackendRuntime,
			MaxProbeFailures: 3,
			PollIntervalSecs: 30,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "json",
		},
	}
}

// Load reads the file at path (missing is fine), overlays the environment
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	path = expandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := starknet.ParseNetwork(c.Network); err != nil {
		return err
	}

	addrs := []struct{ name, addr string }{
		{"token_address", c.Contracts.TokenAddress},
		{"staking_address_mainnet", c.Contracts.StakingAddressMainnet},
		{"staking_address_sepolia", c.Contracts.StakingAddressSepolia},
	}
	for _, a := range addrs {
		if err := validateAddress(a.name, a.addr); err != nil {
			return err
		}
	}

	for name, v := range map[string]string{
		"min_stake_mainnet": c.Staking.MinStakeMainnet,
		"min_stake_sepolia": c.Staking.MinStakeSepolia,
	} {
		if v == "" {
			continue
		}
		if _, err := amount.ToFixedPoint(v, amount.Decimals); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.RPC.RequestTimeoutSecs <= 0 {
		return fmt.Errorf("request_timeout_secs must be positive")
	}
	if c.RPC.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if c.RPC.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.Staking.TxRetryIntervalMillis <= 0 {
		return fmt.Errorf("tx_retry_interval_ms must be positive")
	}
	if c.Staking.TxWaitTimeoutSecs <= 0 {
		return fmt.Errorf("tx_wait_timeout_secs must be positive")
	}

	switch c.Wallet.SessionBackend {
	case "", sessionstore.BackendRuntime, sessionstore.BackendKernel, sessionstore.BackendKeyring, sessionstore.BackendMemory:
	default:
		return fmt.Errorf("invalid session_backend: %s", c.Wallet.SessionBackend)
	}
	if c.Wallet.MaxProbeFailures < 1 {
		return fmt.Errorf("max_probe_failures must be at least 1")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// validateAddress checks that addr is a non-zero felt.
func validateAddress(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", name)
	}
	v, err := starknet.ParseFelt(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if v.Sign() == 0 {
		return fmt.Errorf("%s must not be the zero address", name)
	}
	return nil
}

// StarknetNetwork returns the validated network.
func (c *Config) StarknetNetwork() starknet.Network {
	n, err := starknet.ParseNetwork(c.Network)
	if err != nil {
		return starknet.Sepolia
	}
	return n
}

// StakingAddress is the staking contract for the configured network.
func (c *Config) StakingAddress() string {
	if c.StarknetNetwork() == starknet.Mainnet {
		return c.Contracts.StakingAddressMainnet
	}
	return c.Contracts.StakingAddressSepolia
}

// MinimumStake is the stake floor for the configured network.
func (c *Config) MinimumStake() string {
	if c.StarknetNetwork() == starknet.Mainnet {
		return c.Staking.MinStakeMainnet
	}
	return c.Staking.MinStakeSepolia
}

// ResolvedRPCURLs merges the single RPCURL with the RPCURLs list,
// deduplicating, and falls back to the network's public node.
func (c *Config) ResolvedRPCURLs() []string {
	urls := mergeURLs(c.RPC.RPCURL, c.RPC.RPCURLs)
	if len(urls) == 0 {
		urls = []string{c.StarknetNetwork().DefaultRPCURL()}
	}
	return urls
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RPC.RequestTimeoutSecs) * time.Second
}

func (c *Config) TxRetryInterval() time.Duration {
	return time.Duration(c.Staking.TxRetryIntervalMillis) * time.Millisecond
}

func (c *Config) TxWaitTimeout() time.Duration {
	return time.Duration(c.Staking.TxWaitTimeoutSecs) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	if c.Wallet.PollIntervalSecs <= 0 {
		return 0
	}
	return time.Duration(c.Wallet.PollIntervalSecs) * time.Second
}

// mergeURLs combines a primary URL with a list, deduplicating and preserving order.
func mergeURLs(primary string, extras []string) []string {
	seen := make(map[string]bool)
	var result []string

	if primary != "" {
		result = append(result, primary)
		seen[primary] = true
	}
	for _, u := range extras {
		if u != "" && !seen[u] {
			result = append(result, u)
			seen[u] = true
		}
	}
	return result
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".starkstake", "config.yaml")
}
