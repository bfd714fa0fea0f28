package commands

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/starkstake/starkstake/internal/config"
	"github.com/starkstake/starkstake/internal/logging"
)

// Global CLI flags
var (
	// ConfigPath is the config file, default ~/.starkstake/config.yaml
	ConfigPath string

	// NetworkOverride replaces the configured network for one invocation
	NetworkOverride string

	// LogLevel and LogFormat override the config's log section
	LogLevel  string
	LogFormat string

	// OutputFormat controls output format: "" (auto), "json", "plain"
	OutputFormat string
)

// RegisterGlobalFlags installs the persistent flags on the root command.
func RegisterGlobalFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVar(&ConfigPath, "config", "", "Path to config file (default: ~/.starkstake/config.yaml)")
	f.StringVar(&NetworkOverride, "network", "", "Starknet network: mainnet or sepolia")
	f.StringVar(&LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&LogFormat, "log-format", "", "Log format: json or text")
	f.StringVar(&OutputFormat, "output", "", "Output format: json or plain")
}

// SetupLogging installs the global logger from flags, falling back to the
// config file's log section.
func SetupLogging() error {
	level, format := LogLevel, LogFormat
	if cfg := loadConfigQuiet(); cfg != nil {
		if level == "" {
			level = cfg.Log.Level
		}
		if format == "" {
			format = cfg.Log.Format
		}
	}
	return logging.Setup(logging.Options{Level: level, Format: format})
}

func configPath() string {
	if ConfigPath != "" {
		return ConfigPath
	}
	return config.DefaultConfigPath()
}

// loadConfig reads .env, the config file and the --network override.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	if NetworkOverride != "" {
		cfg.Network = strings.ToLower(NetworkOverride)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --network: %w", err)
		}
	}
	return cfg, nil
}

// loadConfigQuiet loads config, returning nil on error.
func loadConfigQuiet() *config.Config {
	cfg, err := loadConfig()
	if err != nil {
		return nil
	}
	return cfg
}

func jsonOutput() bool {
	return strings.EqualFold(OutputFormat, "json")
}

// Version information (set at build time)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// GetVersion returns the version string
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

// GetCommit returns the git commit
func GetCommit() string {
	if Commit != "unknown" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 8 {
					return setting.Value[:8]
				}
				return setting.Value
			}
		}
	}
	return "unknown"
}

// GetGoVersion returns the Go version
func GetGoVersion() string {
	return runtime.Version()
}
