package domain

import "errors"

// Query errors - classification outcomes expressed as errors for callers that want them
var (
	// ErrNotFound indicates the requested path does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrProviderUnavailable indicates no cloud backend is configured or reachable
	ErrProviderUnavailable = errors.New("cloud provider unavailable")

	// ErrProbeFailure indicates the provider attribute fetch failed
	ErrProbeFailure = errors.New("provider probe failed")

	// ErrAmbiguous indicates the provider gave too little signal to decide
	ErrAmbiguous = errors.New("sync state undetermined")
)

// Adapter errors - remote replica lookups
var (
	// ErrPermissionDenied indicates insufficient permissions or a path escaping its root
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile indicates expected a file but got a directory
	ErrNotFile = errors.New("not a file")

	// ErrNetworkError indicates a network-related failure
	ErrNetworkError = errors.New("network error")

	// ErrTimeout indicates operation timed out
	ErrTimeout = errors.New("operation timed out")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrUnknownProvider indicates the configured provider type is not supported
	ErrUnknownProvider = errors.New("unknown provider type")
)
