package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

// CreateTestFile creates a file with the given content under dir.
// name may contain slashes; parent directories are created as needed.
func CreateTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	return path
}

// CreateTestFileWithSize creates a file with random content of the given size
func CreateTestFileWithSize(t *testing.T, dir, name string, size int64) string {
	t.Helper()

	buf := make([]byte, size)
	rand.Read(buf)
	return CreateTestFile(t, dir, name, buf)
}

// CreateTestDir creates a directory (and parents) under dir
func CreateTestDir(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}
	return path
}

// ICloudPlaceholder creates the ".<name>.icloud" stub that stands in for an
// evicted file and returns the path of the file it represents
func ICloudPlaceholder(t *testing.T, dir, name string) string {
	t.Helper()

	rel := filepath.FromSlash(name)
	parent := filepath.Join(dir, filepath.Dir(rel))
	base := filepath.Base(rel)
	CreateTestFile(t, parent, "."+base+".icloud", []byte("bplist00"))
	return filepath.Join(parent, base)
}
