package probe

import (
	"path/filepath"
	"strings"
)

// CleanPath returns the absolute, cleaned form of path
func CleanPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// RelWithin returns path relative to root, or false if path lies outside root.
// Both arguments must be absolute and cleaned.
func RelWithin(root, path string) (string, bool) {
	if root == "" {
		return "", false
	}
	// filepath.Rel handles root="/data" against path="/data2"
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
