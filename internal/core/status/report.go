package status

import (
	"time"

	"github.com/Ning0612/syncprobe/internal/domain"
)

// Evaluate classifies a snapshot and attaches the passthrough diagnostics
func Evaluate(path, provider string, snap domain.Snapshot, observedAt time.Time) domain.StatusReport {
	return domain.StatusReport{
		Path:              path,
		Provider:          provider,
		Status:            Classify(snap),
		FullyDownloaded:   IsFullyDownloaded(snap),
		CloudManaged:      snap.CloudManaged,
		IsDownloading:     snap.IsDownloading,
		DownloadRequested: snap.DownloadRequested,
		IsUploading:       snap.IsUploading,
		IsUploaded:        snap.IsUploaded,
		IsDownloaded:      snap.IsDownloaded,
		PercentDownloaded: snap.PercentDownloaded,
		ByteSize:          snap.ByteSize,
		IsReadable:        snap.IsReadable,
		ContentType:       snap.ContentType,
		Error:             snap.ProviderError,
		ObservedAt:        observedAt,
	}
}
