// Package probe captures per-file sync metadata from a provider and
// normalizes it into domain snapshots.
package probe

import (
	"context"

	"github.com/Ning0612/syncprobe/internal/domain"
)

// Provider is a metadata source for one sync container.
// Implementations only read; they never trigger downloads or uploads.
type Provider interface {
	// Name identifies the provider in reports and logs
	Name() string

	// Available reports whether the provider backend is configured and reachable.
	// Cloud attributes are only meaningful when this is true.
	Available(ctx context.Context) bool

	// ManagedDir returns the user-visible directory of the sync container
	ManagedDir() (string, bool)

	// Attributes returns the raw attribute bag for an absolute path.
	// A returned error means the provider call itself failed; the
	// Exists and CloudManaged fields established before the failure are kept.
	Attributes(ctx context.Context, path string) (Attributes, error)

	// Close releases any resources held by the provider
	Close() error
}

// Attributes is the raw, provider-shaped metadata for one path
type Attributes struct {
	Exists       bool
	CloudManaged bool

	// DownloadingStatus is the provider's own spelling, parsed during normalization
	DownloadingStatus string

	IsDownloading     *bool
	DownloadRequested *bool
	IsUploading       *bool
	IsUploaded        *bool
	IsDownloaded      *bool
	PercentDownloaded *float64
	ByteSize          *int64
	IsReadable        *bool
	ContentType       string
}

// Unavailable is the provider for platforms without cloud support.
// Every query falls through to the local, not-cloud-managed branch.
type Unavailable struct{}

func (Unavailable) Name() string                   { return string(domain.ProviderNone) }
func (Unavailable) Available(context.Context) bool { return false }
func (Unavailable) ManagedDir() (string, bool)     { return "", false }
func (Unavailable) Close() error                   { return nil }
func (Unavailable) Attributes(context.Context, string) (Attributes, error) {
	return Attributes{}, domain.ErrProviderUnavailable
}
