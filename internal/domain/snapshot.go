package domain

import "time"

// Snapshot is the metadata captured for one path at one point in time.
// Optional fields are nil when the provider did not report them; a nil
// field is never the same thing as false.
type Snapshot struct {
	// Exists is true if the path (or its cloud placeholder) is present
	Exists bool

	// CloudManaged is true if the item belongs to the sync container
	CloudManaged bool

	DownloadingStatus *DownloadingStatus
	IsDownloading     *bool
	DownloadRequested *bool
	IsUploading       *bool
	IsUploaded        *bool

	// IsDownloaded is a separate flag some providers expose, independent of DownloadingStatus
	IsDownloaded *bool

	// PercentDownloaded is in [0, 100]
	PercentDownloaded *float64

	ByteSize *int64

	// IsReadable is the result of reading at least one byte from the local file
	IsReadable *bool

	// ContentType is sniffed from the bytes read by the readability probe
	ContentType string

	// ProviderError is set when the provider attribute fetch failed
	ProviderError string
}

// StatusReport is the diagnostic record returned across the service boundary
type StatusReport struct {
	Path              string     `json:"path" yaml:"path"`
	Provider          string     `json:"provider" yaml:"provider"`
	Status            SyncStatus `json:"status" yaml:"status"`
	FullyDownloaded   bool       `json:"fully_downloaded" yaml:"fully_downloaded"`
	CloudManaged      bool       `json:"cloud_managed" yaml:"cloud_managed"`
	IsDownloading     *bool      `json:"is_downloading,omitempty" yaml:"is_downloading,omitempty"`
	DownloadRequested *bool      `json:"download_requested,omitempty" yaml:"download_requested,omitempty"`
	IsUploading       *bool      `json:"is_uploading,omitempty" yaml:"is_uploading,omitempty"`
	IsUploaded        *bool      `json:"is_uploaded,omitempty" yaml:"is_uploaded,omitempty"`
	IsDownloaded      *bool      `json:"is_downloaded,omitempty" yaml:"is_downloaded,omitempty"`
	PercentDownloaded *float64   `json:"percent_downloaded,omitempty" yaml:"percent_downloaded,omitempty"`
	ByteSize          *int64     `json:"byte_size,omitempty" yaml:"byte_size,omitempty"`
	IsReadable        *bool      `json:"is_readable,omitempty" yaml:"is_readable,omitempty"`
	ContentType       string     `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Error             string     `json:"error,omitempty" yaml:"error,omitempty"`
	ObservedAt        time.Time  `json:"observed_at" yaml:"observed_at"`
}

// Ptr returns a pointer to a copy of v
func Ptr[T any](v T) *T {
	return &v
}
