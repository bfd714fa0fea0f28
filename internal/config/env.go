package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"

	"github.com/starkstake/starkstake/internal/logging"
)

// Environment variables that override the config file.
const (
	EnvNetwork               = "STARKNET_NETWORK"
	EnvRPCURL                = "STARKNET_RPC_URL"
	EnvTokenAddress          = "STRK_TOKEN_ADDRESS"
	EnvStakingAddressMainnet = "STAKING_CONTRACT_ADDRESS_MAINNET"
	EnvStakingAddressSepolia = "STAKING_CONTRACT_ADDRESS_SEPOLIA"
	EnvMinStakeMainnet       = "STAKING_MIN_MAINNET"
	EnvMinStakeSepolia       = "STAKING_MIN_SEPOLIA"
	EnvInjectedBridge        = "STARKSTAKE_INJECTED_BRIDGE"
	EnvSnapBridge            = "STARKSTAKE_SNAP_BRIDGE"
	EnvSessionBackend        = "STARKSTAKE_SESSION_BACKEND"
)

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		err := godotenv.Load(expandPath(p))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		logging.Debug("loaded env file", "path", p)
	}
	return nil
}

// ApplyEnv overlays non-empty variables from getenv onto c.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	if v := strings.TrimSpace(getenv(EnvNetwork)); v != "" {
		c.Network = strings.ToLower(v)
	}
	set(&c.RPC.RPCURL, EnvRPCURL)
	set(&c.Contracts.TokenAddress, EnvTokenAddress)
	set(&c.Contracts.StakingAddressMainnet, EnvStakingAddressMainnet)
	set(&c.Contracts.StakingAddressSepolia, EnvStakingAddressSepolia)
	set(&c.Staking.MinStakeMainnet, EnvMinStakeMainnet)
	set(&c.Staking.MinStakeSepolia, EnvMinStakeSepolia)
	set(&c.Wallet.InjectedBridge, EnvInjectedBridge)
	set(&c.Wallet.SnapBridge, EnvSnapBridge)
	set(&c.Wallet.SessionBackend, EnvSessionBackend)
}
