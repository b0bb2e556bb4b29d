package adapter

import (
	"context"

	"github.com/Ning0612/syncprobe/internal/domain"
)

// Remote defines the read-only view of a replica that a local root is mirrored to.
// Implementations must handle path normalization internally and return
// domain-level errors for consistent error handling.
type Remote interface {
	// Stat returns metadata for a single file
	// Path is slash-separated and relative to the remote root
	// Returns domain.ErrNotFound if the object doesn't exist
	Stat(ctx context.Context, path string) (domain.RemoteObject, error)

	// Available reports whether the remote root can be reached
	Available(ctx context.Context) bool

	// Close releases any resources held by the remote
	Close() error
}
