package domain

import "time"

// ProviderType identifies the metadata provider backend
type ProviderType string

const (
	// ProviderNone is a platform without cloud provider support
	ProviderNone ProviderType = "none"

	// ProviderICloud reads an iCloud ubiquity container laid out on disk
	ProviderICloud ProviderType = "icloud"

	// ProviderDir mirrors a local root against another directory
	ProviderDir ProviderType = "dir"

	// ProviderGDrive mirrors a local root against a Google Drive folder
	ProviderGDrive ProviderType = "gdrive"

	// ProviderS3 mirrors a local root against an S3 bucket prefix
	ProviderS3 ProviderType = "s3"
)

// IsValid checks if the provider type is a known value
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderNone, ProviderICloud, ProviderDir, ProviderGDrive, ProviderS3:
		return true
	}
	return false
}

// IsMirror reports whether the provider compares a local root with a remote replica
func (p ProviderType) IsMirror() bool {
	switch p {
	case ProviderDir, ProviderGDrive, ProviderS3:
		return true
	}
	return false
}

// Provider defines the metadata provider configuration
type Provider struct {
	// Type identifies the backend
	Type ProviderType `mapstructure:"type"`

	// ContainerID is the ubiquity container identifier (icloud)
	ContainerID string `mapstructure:"container_id"`

	// ContainerRoot overrides the on-disk container location (icloud)
	ContainerRoot string `mapstructure:"container_root"`

	// DocumentsDir is the user-visible subdirectory of the container
	DocumentsDir string `mapstructure:"documents_dir"`

	// LocalRoot is the local side of a mirror provider
	LocalRoot string `mapstructure:"local_root"`

	// RemoteRoot is the replica root (dir path or Drive folder)
	RemoteRoot string `mapstructure:"remote_root"`

	// PartialSuffix marks an in-flight download next to its final path
	PartialSuffix string `mapstructure:"partial_suffix"`

	// ProbeTimeout bounds a single provider attribute fetch
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`

	GDrive GDriveConfig `mapstructure:"gdrive"`
	S3     S3Config     `mapstructure:"s3"`
}

// GDriveConfig holds OAuth client settings for the Drive remote
type GDriveConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenPath    string `mapstructure:"token_path"`
}

// S3Config locates the bucket prefix mirrored by the local root
type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// RemoteObject is the metadata a remote replica reports for one file
type RemoteObject struct {
	// Path is the relative path from the remote root
	Path string

	// Size in bytes
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// MD5 is the hex content hash, empty when the remote cannot provide one
	MD5 string

	// IsDir is true for folders
	IsDir bool
}
