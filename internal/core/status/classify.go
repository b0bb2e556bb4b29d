// Package status maps provider metadata snapshots onto the sync status taxonomy.
package status

import (
	"github.com/Ning0612/syncprobe/internal/domain"
)

// Classify returns the sync status for a snapshot. Rules are evaluated in
// order and the first match wins. Informational fields (download/upload
// flags, percentage, size) never take part in the decision.
func Classify(snap domain.Snapshot) domain.SyncStatus {
	if !snap.Exists {
		return domain.StatusNotFound
	}
	if snap.ProviderError != "" {
		return domain.StatusError
	}
	// A purely local file is fully present; no cloud checks apply.
	if !snap.CloudManaged {
		return domain.StatusLocal
	}
	if snap.DownloadingStatus == nil {
		return domain.StatusUnknown
	}

	switch *snap.DownloadingStatus {
	case domain.DownloadingCurrent:
		return domain.StatusCurrent
	case domain.DownloadingDownloaded:
		return domain.StatusDownloaded
	case domain.DownloadingNotDownloaded:
		// Readable bytes mean this cannot be a remote-only placeholder:
		// the content was authored here and has not round-tripped yet.
		if snap.IsReadable != nil && *snap.IsReadable {
			return domain.StatusLocalNotUploaded
		}
		return domain.StatusNotDownloaded
	default:
		return domain.StatusUnknown
	}
}
