package gdrive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Ning0612/syncprobe/internal/domain"
)

const (
	// MimeTypeFolder is the MIME type for Google Drive folders
	MimeTypeFolder = "application/vnd.google-apps.folder"

	statFields = "id, name, mimeType, size, modifiedTime, md5Checksum"
)

// Adapter implements adapter.Remote for a Google Drive folder.
// It never creates or modifies anything in Drive.
type Adapter struct {
	service *drive.Service
	root    string   // Root folder path in Drive (e.g., "/Backups/laptop")
	cache   *idCache // Cache for path -> ID mapping
}

// idCache caches ID lookups with thread-safe access
type idCache struct {
	mu    sync.RWMutex
	paths map[string]string // path -> file ID
}

func newIDCache() *idCache {
	return &idCache{
		paths: make(map[string]string),
	}
}

func (c *idCache) get(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.paths[path]
	return id, ok
}

func (c *idCache) set(path, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths[path] = id
}

func (c *idCache) delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.paths, path)
}

// New creates a Drive adapter from a stored OAuth token.
// Run 'syncprobe auth gdrive' once to create the token.
func New(ctx context.Context, clientID, clientSecret, tokenPath, root string) (*Adapter, error) {
	auth := NewAuthenticator(clientID, clientSecret, tokenPath)

	ts, err := auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	return NewWithOptions(ctx, root, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
}

// NewWithOptions creates an adapter over a Drive service built from opts
func NewWithOptions(ctx context.Context, root string, opts ...option.ClientOption) (*Adapter, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Adapter{
		service: service,
		root:    normalizeRoot(root),
		cache:   newIDCache(),
	}, nil
}

// normalizeRoot normalizes the root path
func normalizeRoot(root string) string {
	root = strings.TrimSpace(root)
	if root == "" || root == "/" {
		return ""
	}
	// Ensure leading slash, no trailing slash
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	return strings.TrimSuffix(root, "/")
}

// Stat returns metadata for a single path, including Drive's MD5
func (a *Adapter) Stat(ctx context.Context, relPath string) (domain.RemoteObject, error) {
	fullPath, err := a.joinPath(relPath)
	if err != nil {
		return domain.RemoteObject{}, err
	}
	fileID, err := a.getFileID(ctx, fullPath)
	if err != nil {
		return domain.RemoteObject{}, err
	}

	file, err := a.service.Files.Get(fileID).
		Fields(statFields).
		Context(ctx).Do()
	if err != nil {
		if errors.Is(a.mapError(err), domain.ErrNotFound) {
			// stale cache entry: the file was removed or replaced
			a.cache.delete(fullPath)
		}
		return domain.RemoteObject{}, a.mapError(err)
	}

	return objectFromDrive(relPath, file), nil
}

// Available reports whether the root folder can be resolved
func (a *Adapter) Available(ctx context.Context) bool {
	_, err := a.getFileID(ctx, a.root)
	return err == nil
}

// Close releases any resources
func (a *Adapter) Close() error {
	return nil
}

// Root returns the root path of this adapter
func (a *Adapter) Root() string {
	return a.root
}

// joinPath joins relative path with root and validates against path traversal
func (a *Adapter) joinPath(relPath string) (string, error) {
	if relPath == "" || relPath == "." {
		return a.root, nil
	}

	cleanPath := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))

	if path.IsAbs(cleanPath) {
		return "", domain.ErrPermissionDenied
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, "../") {
		return "", domain.ErrPermissionDenied
	}

	return path.Join("/", a.root, cleanPath), nil
}

// escapeQueryString escapes special characters in Drive query strings
func escapeQueryString(s string) string {
	// Escape backslash first, then single quote
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	return s
}

// getFileID returns the ID of a file or folder at the given path
func (a *Adapter) getFileID(ctx context.Context, fullPath string) (string, error) {
	if id, ok := a.cache.get(fullPath); ok {
		return id, nil
	}

	// Empty path means root of Drive
	if fullPath == "" {
		return "root", nil
	}

	parts := strings.Split(strings.TrimPrefix(fullPath, "/"), "/")
	currentID := "root"

	for i, part := range parts {
		if part == "" {
			continue
		}

		partialPath := "/" + strings.Join(parts[:i+1], "/")
		if id, ok := a.cache.get(partialPath); ok {
			currentID = id
			continue
		}

		query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQueryString(part), currentID)
		fileList, err := a.service.Files.List().
			Q(query).
			PageSize(1).
			Fields("files(id, mimeType)").
			Context(ctx).Do()
		if err != nil {
			return "", a.mapError(err)
		}

		if len(fileList.Files) == 0 {
			return "", domain.ErrNotFound
		}

		currentID = fileList.Files[0].Id
		a.cache.set(partialPath, currentID)
	}

	return currentID, nil
}

// objectFromDrive converts a Drive file to domain.RemoteObject
func objectFromDrive(relPath string, file *drive.File) domain.RemoteObject {
	modTime := time.Time{}
	if file.ModifiedTime != "" {
		modTime, _ = time.Parse(time.RFC3339, file.ModifiedTime)
	}

	obj := domain.RemoteObject{
		Path:    relPath,
		Size:    file.Size,
		ModTime: modTime,
		MD5:     file.Md5Checksum, // empty for Google Docs formats
		IsDir:   file.MimeType == MimeTypeFolder,
	}
	if obj.IsDir {
		obj.Size = 0
		obj.MD5 = ""
	}
	return obj
}

// mapError converts Google API errors to domain errors
func (a *Adapter) mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if ok := errors.As(err, &apiErr); ok {
		switch apiErr.Code {
		case 404:
			return domain.ErrNotFound
		case 401, 403:
			return domain.ErrPermissionDenied
		case 429:
			// Rate limit - return original error with context
			return fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}

	// Fallback to string matching for non-googleapi errors
	if strings.Contains(err.Error(), "notFound") {
		return domain.ErrNotFound
	}

	return err
}
