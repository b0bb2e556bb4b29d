package probe

import (
	"math"

	"github.com/Ning0612/syncprobe/internal/domain"
)

// Normalize converts raw attributes into a snapshot. Missing values stay nil;
// deciding what a missing value means belongs to the classifier.
func Normalize(attrs Attributes, err error) domain.Snapshot {
	snap := domain.Snapshot{
		Exists:       attrs.Exists,
		CloudManaged: attrs.CloudManaged,
	}

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "unknown provider error"
		}
		snap.ProviderError = msg
		return snap
	}

	if st, ok := domain.ParseDownloadingStatus(attrs.DownloadingStatus); ok {
		snap.DownloadingStatus = &st
	}

	snap.IsDownloading = copyPtr(attrs.IsDownloading)
	snap.DownloadRequested = copyPtr(attrs.DownloadRequested)
	snap.IsUploading = copyPtr(attrs.IsUploading)
	snap.IsUploaded = copyPtr(attrs.IsUploaded)
	snap.IsDownloaded = copyPtr(attrs.IsDownloaded)
	snap.IsReadable = copyPtr(attrs.IsReadable)
	snap.ContentType = attrs.ContentType

	if p := attrs.PercentDownloaded; p != nil && !math.IsNaN(*p) {
		v := math.Min(math.Max(*p, 0), 100)
		snap.PercentDownloaded = &v
	}
	if sz := attrs.ByteSize; sz != nil && *sz >= 0 {
		v := *sz
		snap.ByteSize = &v
	}

	return snap
}

// copyPtr detaches the snapshot from the provider's storage
func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
