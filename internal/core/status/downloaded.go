package status

import (
	"github.com/Ning0612/syncprobe/internal/domain"
)

// IsFullyDownloaded reports whether the complete content is available locally.
// It is stricter than Classify and independent of it: the percentage gate is
// checked before the downloading status, and readability is not consulted
// since a file can be readable while still mid-sync.
func IsFullyDownloaded(snap domain.Snapshot) bool {
	if !snap.Exists {
		return false
	}
	if !snap.CloudManaged {
		return true
	}
	if snap.IsDownloaded != nil && !*snap.IsDownloaded {
		return false
	}
	if snap.PercentDownloaded != nil && *snap.PercentDownloaded < 100.0 {
		return false
	}
	if snap.DownloadingStatus != nil {
		return *snap.DownloadingStatus == domain.DownloadingCurrent
	}
	// No sync signal at all for this item
	return true
}
