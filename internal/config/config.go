package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/logger"
)

// AppName names the config, token and data directories
const AppName = "syncprobe"

// Config represents the complete configuration for syncprobe
type Config struct {
	// Provider selects and configures the metadata backend
	Provider domain.Provider `mapstructure:"provider"`

	Logging Logging `mapstructure:"logging"`
	Journal Journal `mapstructure:"journal"`
}

// Logging configures the global logger
type Logging struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Journal configures the observation journal
type Journal struct {
	// Enabled records every status query, not only --record runs
	Enabled bool   `mapstructure:"enabled"`
	DataDir string `mapstructure:"data_dir"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	p := c.Provider

	if !p.Type.IsValid() {
		return fmt.Errorf("%w: %w: %q", domain.ErrConfigInvalid, domain.ErrUnknownProvider, p.Type)
	}
	if p.ProbeTimeout < 0 {
		return fmt.Errorf("%w: provider.probe_timeout cannot be negative", domain.ErrConfigInvalid)
	}

	switch p.Type {
	case domain.ProviderICloud:
		if p.ContainerID == "" && p.ContainerRoot == "" {
			return fmt.Errorf("%w: icloud provider needs container_id or container_root", domain.ErrConfigInvalid)
		}
	case domain.ProviderDir:
		if p.RemoteRoot == "" {
			return fmt.Errorf("%w: dir provider needs remote_root", domain.ErrConfigInvalid)
		}
	case domain.ProviderGDrive:
		if p.GDrive.ClientID == "" || p.GDrive.ClientSecret == "" {
			return fmt.Errorf("%w: gdrive provider needs gdrive.client_id and gdrive.client_secret", domain.ErrConfigInvalid)
		}
	case domain.ProviderS3:
		if p.S3.Bucket == "" {
			return fmt.Errorf("%w: s3 provider needs s3.bucket", domain.ErrConfigInvalid)
		}
	}

	if p.Type.IsMirror() && p.LocalRoot == "" {
		return fmt.Errorf("%w: %s provider needs local_root", domain.ErrConfigInvalid, p.Type)
	}
	if strings.ContainsAny(p.PartialSuffix, `/\`) {
		return fmt.Errorf("%w: partial_suffix cannot contain a path separator", domain.ErrConfigInvalid)
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: invalid logging.level: %s", domain.ErrConfigInvalid, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: invalid logging.format: %s", domain.ErrConfigInvalid, c.Logging.Format)
	}

	if c.Journal.Enabled && c.Journal.DataDir == "" {
		return fmt.Errorf("%w: journal.data_dir is required when the journal is enabled", domain.ErrConfigInvalid)
	}

	return nil
}

// LoggerConfig converts the logging section; console output goes to w
func (l Logging) LoggerConfig(w io.Writer) logger.Config {
	return logger.Config{
		Level:  logger.ParseLevel(l.Level),
		Format: logger.ParseFormat(l.Format),
		Writer: w,
		File: logger.FileConfig{
			Enabled:    l.File != "",
			Path:       l.File,
			MaxSizeMB:  l.MaxSizeMB,
			MaxAgeDays: l.MaxAgeDays,
			MaxBackups: l.MaxBackups,
			Compress:   l.Compress,
		},
	}
}

// expandPaths resolves ~ and environment variables in local filesystem paths.
// provider.remote_root is only a filesystem path for the dir provider.
func (c *Config) expandPaths() {
	expand := func(s *string) {
		if *s != "" {
			*s = ExpandPath(*s)
		}
	}

	expand(&c.Provider.ContainerRoot)
	expand(&c.Provider.LocalRoot)
	expand(&c.Provider.GDrive.TokenPath)
	if c.Provider.Type == domain.ProviderDir {
		expand(&c.Provider.RemoteRoot)
	}
	expand(&c.Logging.File)
	expand(&c.Journal.DataDir)
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
