package domain

import "strings"

// SyncStatus is the classifier's output. Exactly one value is produced per query.
type SyncStatus string

const (
	StatusNotFound         SyncStatus = "not_found"
	StatusLocal            SyncStatus = "local"
	StatusCurrent          SyncStatus = "current"
	StatusDownloaded       SyncStatus = "downloaded"
	StatusNotDownloaded    SyncStatus = "not_downloaded"
	StatusLocalNotUploaded SyncStatus = "local_not_uploaded"
	StatusUnknown          SyncStatus = "unknown"
	StatusError            SyncStatus = "error"
)

// AllStatuses lists every SyncStatus in declaration order
var AllStatuses = []SyncStatus{
	StatusNotFound,
	StatusLocal,
	StatusCurrent,
	StatusDownloaded,
	StatusNotDownloaded,
	StatusLocalNotUploaded,
	StatusUnknown,
	StatusError,
}

// IsValid checks if the status is a known value
func (s SyncStatus) IsValid() bool {
	switch s {
	case StatusNotFound, StatusLocal, StatusCurrent, StatusDownloaded,
		StatusNotDownloaded, StatusLocalNotUploaded, StatusUnknown, StatusError:
		return true
	}
	return false
}

func (s SyncStatus) String() string {
	return string(s)
}

// Undetermined reports whether callers should retry later or fall back to readability
func (s SyncStatus) Undetermined() bool {
	return s == StatusUnknown || s == StatusError
}

// Err maps a status onto the error taxonomy. Statuses that carry a definite
// answer return nil.
func (s SyncStatus) Err() error {
	switch s {
	case StatusNotFound:
		return ErrNotFound
	case StatusError:
		return ErrProbeFailure
	case StatusUnknown:
		return ErrAmbiguous
	}
	return nil
}

// ParseSyncStatus parses a status name, accepting the camelCase spellings
// used by mobile plugins ("localNotUploaded") as well as snake_case.
func ParseSyncStatus(s string) (SyncStatus, bool) {
	key := normalizeEnumKey(s)
	for _, st := range AllStatuses {
		if normalizeEnumKey(string(st)) == key {
			return st, true
		}
	}
	return "", false
}

// DownloadingStatus is the provider's download state for a cloud-managed item
type DownloadingStatus string

const (
	// DownloadingCurrent means the local copy is the latest version
	DownloadingCurrent DownloadingStatus = "current"

	// DownloadingDownloaded means a local copy exists but is not the latest version
	DownloadingDownloaded DownloadingStatus = "downloaded"

	// DownloadingNotDownloaded means the provider does not consider the item downloaded
	DownloadingNotDownloaded DownloadingStatus = "not_downloaded"
)

// IsValid checks if the downloading status is a known value
func (d DownloadingStatus) IsValid() bool {
	switch d {
	case DownloadingCurrent, DownloadingDownloaded, DownloadingNotDownloaded:
		return true
	}
	return false
}

// ParseDownloadingStatus parses raw provider spellings such as
// "NSURLUbiquitousItemDownloadingStatusCurrent", "notDownloaded" or "not_downloaded".
func ParseDownloadingStatus(raw string) (DownloadingStatus, bool) {
	key := normalizeEnumKey(raw)
	key = strings.TrimPrefix(key, "nsurlubiquitousitemdownloadingstatus")
	switch key {
	case "current":
		return DownloadingCurrent, true
	case "downloaded":
		return DownloadingDownloaded, true
	case "notdownloaded":
		return DownloadingNotDownloaded, true
	}
	return "", false
}

// normalizeEnumKey lowercases and drops separators so that camelCase,
// snake_case and kebab-case spellings compare equal
func normalizeEnumKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}
