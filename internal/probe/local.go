package probe

import (
	"os"

	"github.com/Ning0612/syncprobe/internal/domain"
)

// LocalSnapshot describes a path without consulting any cloud provider.
// It is used when the provider is unavailable, so the result can only ever
// classify as local, not found or error.
func LocalSnapshot(path string) domain.Snapshot {
	attrs, err := LocalAttributes(path)
	if err == nil && attrs.Exists {
		readable, contentType := ReadProbe(path)
		attrs.IsReadable = &readable
		attrs.ContentType = contentType
	}
	return Normalize(attrs, err)
}

// LocalAttributes stats a path that is not cloud-managed
func LocalAttributes(path string) (Attributes, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Attributes{}, nil
		}
		// Existence is unknown; report it so the failure surfaces as an error status.
		return Attributes{Exists: true}, err
	}

	attrs := Attributes{Exists: true}
	if !info.IsDir() {
		size := info.Size()
		attrs.ByteSize = &size
	}
	return attrs, nil
}
