// Package mirror derives sync state for a local directory tree that is
// mirrored to a remote replica, by comparing the local copy, the remote
// object and any in-flight partial download.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Ning0612/syncprobe/internal/adapter"
	"github.com/Ning0612/syncprobe/internal/core/checksum"
	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/probe"
)

// DefaultPartialSuffix marks a download still being written next to its final path
const DefaultPartialSuffix = ".part"

// Provider implements probe.Provider over a local root and its remote replica
type Provider struct {
	name          string
	localRoot     string
	remote        adapter.Remote
	partialSuffix string
	calc          *checksum.DefaultCalculator
}

// New creates a mirror provider. name is reported as the provider name
// (dir, gdrive or s3).
func New(name, localRoot string, remote adapter.Remote, partialSuffix string) (*Provider, error) {
	if localRoot == "" {
		return nil, fmt.Errorf("%w: mirror provider needs local_root", domain.ErrConfigInvalid)
	}
	if remote == nil {
		return nil, fmt.Errorf("%w: mirror provider needs a remote", domain.ErrConfigInvalid)
	}

	root, err := probe.CleanPath(localRoot)
	if err != nil {
		return nil, err
	}
	if partialSuffix == "" {
		partialSuffix = DefaultPartialSuffix
	}

	return &Provider{
		name:          name,
		localRoot:     root,
		remote:        remote,
		partialSuffix: partialSuffix,
		calc:          checksum.NewDefaultCalculator(),
	}, nil
}

// Name implements probe.Provider
func (p *Provider) Name() string {
	return p.name
}

// LocalRoot returns the mirrored local directory
func (p *Provider) LocalRoot() string {
	return p.localRoot
}

// Available requires both the local root and the remote to be reachable
func (p *Provider) Available(ctx context.Context) bool {
	if !p.localRootExists() {
		return false
	}
	return p.remote.Available(ctx)
}

// ManagedDir returns the local root; the remote is not contacted
func (p *Provider) ManagedDir() (string, bool) {
	if !p.localRootExists() {
		return "", false
	}
	return p.localRoot, true
}

func (p *Provider) localRootExists() bool {
	info, err := os.Stat(p.localRoot)
	return err == nil && info.IsDir()
}

// Attributes implements probe.Provider
func (p *Provider) Attributes(ctx context.Context, path string) (probe.Attributes, error) {
	rel, managed := probe.RelWithin(p.localRoot, path)
	if !managed {
		return probe.LocalAttributes(path)
	}

	local, localErr := os.Stat(path)
	localExists := localErr == nil
	if localErr != nil && !os.IsNotExist(localErr) {
		return probe.Attributes{Exists: true, CloudManaged: true}, localErr
	}

	if rel == "." {
		// The root itself is the container
		return probe.Attributes{
			Exists:            true,
			CloudManaged:      true,
			DownloadingStatus: string(domain.DownloadingCurrent),
			IsDownloaded:      domain.Ptr(true),
			IsReadable:        domain.Ptr(true),
		}, nil
	}

	remote, remoteErr := p.remote.Stat(ctx, rel)
	remoteExists := remoteErr == nil
	if remoteErr != nil && !errors.Is(remoteErr, domain.ErrNotFound) {
		// Existence on the remote side is unknown
		return probe.Attributes{Exists: true, CloudManaged: true}, remoteErr
	}

	attrs := probe.Attributes{
		Exists:       localExists || remoteExists,
		CloudManaged: true,
	}

	switch {
	case localExists && local.IsDir():
		attrs.IsReadable = domain.Ptr(true)
		attrs.IsDownloaded = domain.Ptr(true)
		attrs.IsUploaded = domain.Ptr(remoteExists)
		if remoteExists {
			attrs.DownloadingStatus = string(domain.DownloadingCurrent)
		} else {
			attrs.DownloadingStatus = string(domain.DownloadingNotDownloaded)
		}

	case localExists && remoteExists:
		same, err := p.sameContent(ctx, path, local.Size(), remote)
		if err != nil {
			return probe.Attributes{Exists: true, CloudManaged: true}, err
		}
		attrs.IsDownloading = domain.Ptr(false)
		attrs.IsDownloaded = domain.Ptr(true)
		attrs.IsUploaded = domain.Ptr(same)
		if same {
			attrs.DownloadingStatus = string(domain.DownloadingCurrent)
			attrs.IsUploading = domain.Ptr(false)
		} else {
			// A newer revision exists on the remote
			attrs.DownloadingStatus = string(domain.DownloadingDownloaded)
		}
		attrs.ByteSize = domain.Ptr(local.Size())

	case localExists:
		attrs.DownloadingStatus = string(domain.DownloadingNotDownloaded)
		attrs.IsUploaded = domain.Ptr(false)
		attrs.ByteSize = domain.Ptr(local.Size())

	case remoteExists:
		attrs.DownloadingStatus = string(domain.DownloadingNotDownloaded)
		attrs.IsDownloaded = domain.Ptr(false)
		attrs.IsUploaded = domain.Ptr(true)
		attrs.IsReadable = domain.Ptr(false)
		attrs.ByteSize = domain.Ptr(remote.Size)
		p.applyPartial(path, remote.Size, &attrs)
	}

	return attrs, nil
}

// applyPartial records an in-flight download of a remote-only file
func (p *Provider) applyPartial(path string, remoteSize int64, attrs *probe.Attributes) {
	info, err := os.Stat(path + p.partialSuffix)
	if err != nil || info.IsDir() {
		attrs.IsDownloading = domain.Ptr(false)
		return
	}

	attrs.IsDownloading = domain.Ptr(true)
	attrs.DownloadRequested = domain.Ptr(true)
	if remoteSize > 0 {
		attrs.PercentDownloaded = domain.Ptr(float64(info.Size()) / float64(remoteSize) * 100)
	}
}

// sameContent compares by MD5 when the remote has one, otherwise by size
func (p *Provider) sameContent(ctx context.Context, path string, localSize int64, remote domain.RemoteObject) (bool, error) {
	if remote.IsDir {
		return false, nil
	}
	if localSize != remote.Size {
		return false, nil
	}
	if remote.MD5 == "" {
		return true, nil
	}

	sum, err := p.calc.CalculateFile(ctx, path, checksum.MD5)
	if errors.Is(err, checksum.ErrTooLarge) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return checksum.Equal(sum, remote.MD5), nil
}

// Close releases the remote
func (p *Provider) Close() error {
	return p.remote.Close()
}

var _ probe.Provider = (*Provider)(nil)
