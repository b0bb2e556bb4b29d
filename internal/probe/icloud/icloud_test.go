package icloud

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Ning0612/syncprobe/internal/core/status"
	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/probe"
	"github.com/Ning0612/syncprobe/internal/testutil"
)

func TestContainerDirName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"iCloud.com.example.app", "iCloud~com~example~app"},
		{"iCloud.single", "iCloud~single"},
		{"noDots", "noDots"},
	}

	for _, tt := range tests {
		if got := ContainerDirName(tt.input); got != tt.expected {
			t.Errorf("ContainerDirName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPlaceholderPath(t *testing.T) {
	got := PlaceholderPath(filepath.FromSlash("/c/Documents/book.pdf"))
	want := filepath.FromSlash("/c/Documents/.book.pdf.icloud")
	if got != want {
		t.Errorf("PlaceholderPath() = %q, want %q", got, want)
	}
}

func TestNew_RequiresContainer(t *testing.T) {
	_, err := New("", "", "")
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Errorf("New() error = %v, want ErrConfigInvalid", err)
	}
}

func TestNew_DerivesRootFromIdentifier(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := New("iCloud.com.example.app", "", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := filepath.Join(home, "Library", "Mobile Documents", "iCloud~com~example~app")
	if p.Root() != want {
		t.Errorf("Root() = %q, want %q", p.Root(), want)
	}
	if p.Available(context.Background()) {
		t.Error("Available() = true for a container that does not exist")
	}
	if _, ok := p.ManagedDir(); ok {
		t.Error("ManagedDir() should be absent while the container is unavailable")
	}
}

func TestManagedDir(t *testing.T) {
	root := t.TempDir()
	p, err := New("iCloud.x", root, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	dir, ok := p.ManagedDir()
	if !ok {
		t.Fatal("ManagedDir() not available")
	}
	if dir != filepath.Join(root, "Documents") {
		t.Errorf("ManagedDir() = %q", dir)
	}
}

func TestAttributes_Layouts(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	current := testutil.CreateTestFile(t, root, "Documents/current.txt", []byte("synced"))
	evicted := testutil.ICloudPlaceholder(t, root, "Documents/evicted.pdf")
	inflight := testutil.CreateTestFile(t, root, "Documents/inflight.bin", []byte{1, 2})
	testutil.ICloudPlaceholder(t, root, "Documents/inflight.bin")
	local := testutil.CreateTestFile(t, outside, "local.txt", []byte("local"))

	p, err := New("iCloud.x", root, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	prober := probe.NewProber(p, 0)

	tests := []struct {
		name     string
		path     string
		want     domain.SyncStatus
		wantFull bool
	}{
		{"materialized file", current, domain.StatusCurrent, true},
		{"evicted placeholder", evicted, domain.StatusNotDownloaded, false},
		{"download in flight", inflight, domain.StatusDownloaded, false},
		{"missing in container", filepath.Join(root, "Documents", "ghost.txt"), domain.StatusNotFound, false},
		{"outside container", local, domain.StatusLocal, true},
		{"missing outside container", filepath.Join(outside, "nope"), domain.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := prober.Snapshot(context.Background(), tt.path)
			if got := status.Classify(snap); got != tt.want {
				t.Errorf("Classify() = %v, want %v (snapshot %+v)", got, tt.want, snap)
			}
			if got := status.IsFullyDownloaded(snap); got != tt.wantFull {
				t.Errorf("IsFullyDownloaded() = %v, want %v", got, tt.wantFull)
			}
		})
	}
}

func TestAttributes_Placeholder(t *testing.T) {
	root := t.TempDir()
	evicted := testutil.ICloudPlaceholder(t, root, "Documents/evicted.pdf")

	p, err := New("iCloud.x", root, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	attrs, err := p.Attributes(context.Background(), evicted)
	if err != nil {
		t.Fatalf("Attributes() error = %v", err)
	}
	if !attrs.Exists || !attrs.CloudManaged {
		t.Errorf("placeholder should exist and be cloud-managed: %+v", attrs)
	}
	if attrs.ByteSize != nil {
		t.Errorf("placeholder size should be unknown, got %d", *attrs.ByteSize)
	}
	if attrs.IsDownloaded == nil || *attrs.IsDownloaded {
		t.Error("placeholder should report downloaded=false")
	}
}

func TestAttributes_CancelledContext(t *testing.T) {
	root := t.TempDir()
	path := testutil.CreateTestFile(t, root, "Documents/a.txt", []byte("a"))

	p, err := New("iCloud.x", root, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := probe.Normalize(p.Attributes(ctx, path))
	if got := status.Classify(snap); got != domain.StatusError {
		t.Errorf("Classify() = %v, want error", got)
	}
}

func TestAttributes_PlaceholderStatFailureIsError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a 255-byte file name limit")
	}

	root := t.TempDir()
	docs := testutil.CreateTestDir(t, root, "Documents")

	// the file name fits, its ".<name>.icloud" placeholder name does not
	path := filepath.Join(docs, strings.Repeat("a", 250))

	p, err := New("iCloud.x", root, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	attrs, err := p.Attributes(context.Background(), path)
	if err == nil {
		t.Fatal("Attributes() should fail when the placeholder cannot be checked")
	}
	if !attrs.Exists {
		t.Error("Exists = false; an unchecked placeholder must not read as not_found")
	}

	snap := probe.NewProber(p, 0).Snapshot(context.Background(), path)
	if got := status.Classify(snap); got != domain.StatusError {
		t.Errorf("Classify() = %v, want %v", got, domain.StatusError)
	}
}
