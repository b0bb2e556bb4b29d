// Package icloud reads sync state from an iCloud ubiquity container laid out
// on disk. Evicted items are represented by a hidden ".<name>.icloud" stub
// next to where the real file would be.
package icloud

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/probe"
)

const (
	// MobileDocumentsDir is where ubiquity containers live under the home directory
	MobileDocumentsDir = "Library/Mobile Documents"
	// DefaultDocumentsDir is the user-visible subdirectory of a container
	DefaultDocumentsDir = "Documents"
	// placeholderExt is appended to the hidden stub of an evicted item
	placeholderExt = ".icloud"
)

// Provider implements probe.Provider for an on-disk ubiquity container
type Provider struct {
	containerID  string
	root         string
	documentsDir string
}

// New creates a provider for the given container identifier.
// root overrides the container location; when empty it is derived from the
// identifier under ~/Library/Mobile Documents.
func New(containerID, root, documentsDir string) (*Provider, error) {
	if root == "" {
		if containerID == "" {
			return nil, fmt.Errorf("%w: icloud provider needs container_id or container_root", domain.ErrConfigInvalid)
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		root = filepath.Join(home, filepath.FromSlash(MobileDocumentsDir), ContainerDirName(containerID))
	}

	absRoot, err := probe.CleanPath(root)
	if err != nil {
		return nil, err
	}

	if documentsDir == "" {
		documentsDir = DefaultDocumentsDir
	}

	return &Provider{
		containerID:  containerID,
		root:         absRoot,
		documentsDir: documentsDir,
	}, nil
}

// ContainerDirName maps "iCloud.com.example.app" to the on-disk
// directory name "iCloud~com~example~app"
func ContainerDirName(containerID string) string {
	return strings.ReplaceAll(containerID, ".", "~")
}

// PlaceholderPath returns the stub path that represents an evicted file
func PlaceholderPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+placeholderExt)
}

// Name implements probe.Provider
func (p *Provider) Name() string {
	return string(domain.ProviderICloud)
}

// Root returns the container root directory
func (p *Provider) Root() string {
	return p.root
}

// Available reports whether the container exists on this machine, which is
// the on-disk equivalent of being signed in with the container enabled
func (p *Provider) Available(ctx context.Context) bool {
	info, err := os.Stat(p.root)
	return err == nil && info.IsDir()
}

// ManagedDir returns the container's Documents directory
func (p *Provider) ManagedDir() (string, bool) {
	if !p.Available(context.Background()) {
		return "", false
	}
	return filepath.Join(p.root, p.documentsDir), true
}

// Attributes implements probe.Provider
func (p *Provider) Attributes(ctx context.Context, path string) (probe.Attributes, error) {
	if _, managed := probe.RelWithin(p.root, path); !managed {
		return probe.LocalAttributes(path)
	}

	if err := ctx.Err(); err != nil {
		return probe.Attributes{Exists: true, CloudManaged: true}, err
	}

	info, realErr := os.Stat(path)
	realExists := realErr == nil
	if realErr != nil && !os.IsNotExist(realErr) {
		return probe.Attributes{Exists: true, CloudManaged: true}, realErr
	}

	_, stubErr := os.Stat(PlaceholderPath(path))
	stubExists := stubErr == nil
	if stubErr != nil && !os.IsNotExist(stubErr) {
		return probe.Attributes{Exists: true, CloudManaged: true}, stubErr
	}

	attrs := probe.Attributes{
		Exists:       realExists || stubExists,
		CloudManaged: true,
	}

	switch {
	case realExists && stubExists:
		// The stub outlives the materializing file until the download finishes
		attrs.DownloadingStatus = string(domain.DownloadingDownloaded)
		attrs.IsDownloading = domain.Ptr(true)
		attrs.DownloadRequested = domain.Ptr(true)
		attrs.IsDownloaded = domain.Ptr(false)
	case realExists:
		attrs.DownloadingStatus = string(domain.DownloadingCurrent)
		attrs.IsDownloading = domain.Ptr(false)
		attrs.IsDownloaded = domain.Ptr(true)
	case stubExists:
		attrs.DownloadingStatus = string(domain.DownloadingNotDownloaded)
		attrs.IsDownloaded = domain.Ptr(false)
	}

	if realExists && !info.IsDir() {
		size := info.Size()
		attrs.ByteSize = &size
	}

	return attrs, nil
}

// Close implements probe.Provider
func (p *Provider) Close() error {
	return nil
}

var _ probe.Provider = (*Provider)(nil)
