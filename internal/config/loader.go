package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Ning0612/syncprobe/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. SYNCPROBE_PROVIDER_TYPE
const EnvPrefix = "SYNCPROBE"

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, AppName))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", AppName))
		paths = append(paths, filepath.Join(homeDir, "."+AppName))
	}

	return paths
}

// DefaultDataDir is where the journal database lives unless configured
func DefaultDataDir() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, AppName)
	}
	return "." + AppName
}

// setDefaults registers every key so environment overrides apply to
// keys absent from the file
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.type", string(domain.ProviderNone))
	v.SetDefault("provider.container_id", "")
	v.SetDefault("provider.container_root", "")
	v.SetDefault("provider.documents_dir", "Documents")
	v.SetDefault("provider.local_root", "")
	v.SetDefault("provider.remote_root", "")
	v.SetDefault("provider.partial_suffix", ".part")
	v.SetDefault("provider.probe_timeout", "10s")
	v.SetDefault("provider.gdrive.client_id", "")
	v.SetDefault("provider.gdrive.client_secret", "")
	v.SetDefault("provider.gdrive.token_path", "")
	v.SetDefault("provider.s3.bucket", "")
	v.SetDefault("provider.s3.prefix", "")
	v.SetDefault("provider.s3.region", "")
	v.SetDefault("provider.s3.endpoint", "")
	v.SetDefault("provider.s3.use_path_style", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.compress", false)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.data_dir", DefaultDataDir())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads and parses a configuration file.
// If path is empty, searches default locations for config.yaml; finding
// none is not an error and yields the defaults (provider "none").
// An explicit path that does not exist returns domain.ErrConfigNotFound.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
	}

	return decode(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := newViper()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return decode(v)
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults are always valid unless the environment overrides them
		return &Config{Provider: domain.Provider{Type: domain.ProviderNone}}
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg.Provider.Type = domain.ProviderType(strings.ToLower(string(cfg.Provider.Type)))
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
