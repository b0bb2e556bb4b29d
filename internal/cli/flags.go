package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ning0612/syncprobe/internal/config"
	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/logger"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	LogLevel   string
	LogFormat  string
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/syncprobe/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"debug logging (same as --log-level debug)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.LogLevel,
		"log-level",
		"",
		"log level: debug, info, warn, error (overrides config)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.LogFormat,
		"log-format",
		"",
		"log format: text, json (overrides config)",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// loadConfig loads configuration from file and applies the logging flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(globalFlags.ConfigFile)
	if err != nil {
		return nil, err
	}

	if globalFlags.LogLevel != "" {
		if !logger.ValidLevel(globalFlags.LogLevel) {
			return nil, fmt.Errorf("%w: invalid --log-level %q", domain.ErrConfigInvalid, globalFlags.LogLevel)
		}
		cfg.Logging.Level = globalFlags.LogLevel
	}
	if globalFlags.Verbose {
		cfg.Logging.Level = logger.LevelDebug.String()
	}

	if globalFlags.LogFormat != "" {
		format := strings.ToLower(globalFlags.LogFormat)
		if format != "text" && format != "json" {
			return nil, fmt.Errorf("%w: invalid --log-format %q", domain.ErrConfigInvalid, globalFlags.LogFormat)
		}
		cfg.Logging.Format = format
	}

	return cfg, nil
}

// setup loads configuration and starts the global logger on the command's
// stderr. Callers must run the returned cleanup.
func setup(cmd *cobra.Command) (*config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.LoggerConfig(cmd.ErrOrStderr())); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Get().Debug("configuration loaded",
		"provider", string(cfg.Provider.Type),
		"config_file", globalFlags.ConfigFile,
	)

	return cfg, func() { _ = logger.Shutdown() }, nil
}
