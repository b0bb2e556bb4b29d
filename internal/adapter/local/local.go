package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Ning0612/syncprobe/internal/core/checksum"
	"github.com/Ning0612/syncprobe/internal/domain"
)

// Adapter implements adapter.Remote for a replica kept in another directory
// (a mounted share or a second disk)
type Adapter struct {
	root string
	calc checksum.Calculator
}

// New creates a new directory replica adapter
// root must be an existing directory
func New(root string) (*Adapter, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, domain.ErrNotDirectory
	}

	return &Adapter{
		root: absRoot,
		calc: checksum.NewDefaultCalculator(),
	}, nil
}

// resolvePath safely resolves a relative path to absolute path within root
// Returns error if path attempts to escape root directory
func (a *Adapter) resolvePath(relPath string) (string, error) {
	if relPath == "" || relPath == "." {
		return a.root, nil
	}

	relPath = filepath.Clean(filepath.FromSlash(relPath))

	if filepath.IsAbs(relPath) {
		return "", domain.ErrPermissionDenied
	}

	fullPath := filepath.Join(a.root, relPath)

	// filepath.Rel handles root="C:\root" against fullPath="C:\root2"
	rel, err := filepath.Rel(a.root, fullPath)
	if err != nil {
		return "", domain.ErrPermissionDenied
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.ErrPermissionDenied
	}

	return fullPath, nil
}

// Stat returns metadata for a single path, including the MD5 of regular
// files small enough for the checksum calculator
func (a *Adapter) Stat(ctx context.Context, path string) (domain.RemoteObject, error) {
	fullPath, err := a.resolvePath(path)
	if err != nil {
		return domain.RemoteObject{}, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return domain.RemoteObject{}, a.mapError(err)
	}

	obj := domain.RemoteObject{
		Path:    filepath.ToSlash(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
	if obj.IsDir {
		obj.Size = 0
		return obj, nil
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return domain.RemoteObject{}, a.mapError(err)
	}
	defer f.Close()

	// Too-large files keep an empty checksum; callers fall back to size
	if sum, err := a.calc.Calculate(ctx, f, checksum.MD5); err == nil {
		obj.MD5 = sum
	} else if ctx.Err() != nil {
		return domain.RemoteObject{}, ctx.Err()
	}

	return obj, nil
}

// Available reports whether the replica root is still a reachable directory
func (a *Adapter) Available(ctx context.Context) bool {
	info, err := os.Stat(a.root)
	return err == nil && info.IsDir()
}

// Close releases any resources (no-op for directory replicas)
func (a *Adapter) Close() error {
	return nil
}

// Root returns the root path of this adapter
func (a *Adapter) Root() string {
	return a.root
}

// mapError converts OS errors to domain errors
func (a *Adapter) mapError(err error) error {
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return domain.ErrNotFound
	}
	if os.IsPermission(err) {
		return domain.ErrPermissionDenied
	}
	return err
}
