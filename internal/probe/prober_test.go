package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/syncprobe/internal/core/status"
	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/testutil"
)

type fakeProvider struct {
	available bool
	attrs     Attributes
	err       error
	calls     int
	deadline  bool
}

func (f *fakeProvider) Name() string                   { return "fake" }
func (f *fakeProvider) Available(context.Context) bool { return f.available }
func (f *fakeProvider) ManagedDir() (string, bool)     { return "/managed", true }
func (f *fakeProvider) Close() error                   { return nil }
func (f *fakeProvider) Attributes(ctx context.Context, _ string) (Attributes, error) {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.attrs, f.err
}

func TestProber_UnavailableNeverReportsCloudStatus(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateTestFile(t, dir, "a.txt", []byte("abc"))

	provider := &fakeProvider{
		available: false,
		attrs: Attributes{
			Exists:            true,
			CloudManaged:      true,
			DownloadingStatus: "current",
		},
	}
	prober := NewProber(provider, time.Second)

	snap := prober.Snapshot(context.Background(), path)
	assert.Equal(t, 0, provider.calls, "provider must not be queried when unavailable")
	assert.False(t, snap.CloudManaged)
	assert.Equal(t, domain.StatusLocal, status.Classify(snap))
	require.NotNil(t, snap.ByteSize)
	assert.Equal(t, int64(3), *snap.ByteSize)
	require.NotNil(t, snap.IsReadable)
	assert.True(t, *snap.IsReadable)

	missing := prober.Snapshot(context.Background(), filepath.Join(dir, "nope"))
	assert.Equal(t, domain.StatusNotFound, status.Classify(missing))
}

func TestProber_ProbesReadabilityWhenProviderDidNot(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateTestFile(t, dir, "draft.txt", []byte("draft"))

	provider := &fakeProvider{
		available: true,
		attrs: Attributes{
			Exists:            true,
			CloudManaged:      true,
			DownloadingStatus: "notDownloaded",
		},
	}
	prober := NewProber(provider, time.Second)

	snap := prober.Snapshot(context.Background(), path)
	require.NotNil(t, snap.IsReadable)
	assert.True(t, *snap.IsReadable)
	assert.Equal(t, domain.StatusLocalNotUploaded, status.Classify(snap))
	assert.True(t, provider.deadline, "provider call should carry a deadline")
}

func TestProber_KeepsProviderReadability(t *testing.T) {
	provider := &fakeProvider{
		available: true,
		attrs: Attributes{
			Exists:            true,
			CloudManaged:      true,
			DownloadingStatus: "notDownloaded",
			IsReadable:        domain.Ptr(false),
		},
	}
	prober := NewProber(provider, 0)
	prober.readProbe = func(string) (bool, string) {
		t.Fatal("readability probe should not run")
		return false, ""
	}

	snap := prober.Snapshot(context.Background(), "/managed/x")
	assert.Equal(t, domain.StatusNotDownloaded, status.Classify(snap))
}

func TestProber_ProviderFailure(t *testing.T) {
	provider := &fakeProvider{
		available: true,
		attrs:     Attributes{Exists: true, CloudManaged: true},
		err:       errors.New("disk I/O error"),
	}
	prober := NewProber(provider, time.Second)
	prober.readProbe = func(string) (bool, string) {
		t.Fatal("readability probe should not run after a provider failure")
		return false, ""
	}

	snap := prober.Snapshot(context.Background(), "/managed/x")
	assert.Equal(t, "disk I/O error", snap.ProviderError)
	assert.Nil(t, snap.IsReadable)
	assert.Equal(t, domain.StatusError, status.Classify(snap))
}

func TestProber_NilProviderIsUnavailable(t *testing.T) {
	prober := NewProber(nil, 0)
	assert.False(t, prober.Available(context.Background()))
	_, ok := prober.ManagedDir()
	assert.False(t, ok)
	assert.Equal(t, "none", prober.Name())
}

// stalledProvider blocks in every call until the context gives up
type stalledProvider struct {
	available bool
}

func (stalledProvider) Name() string               { return "stalled" }
func (stalledProvider) ManagedDir() (string, bool) { return "", false }
func (stalledProvider) Close() error               { return nil }
func (p stalledProvider) Available(ctx context.Context) bool {
	if p.available {
		return true
	}
	<-ctx.Done()
	return false
}
func (stalledProvider) Attributes(ctx context.Context, _ string) (Attributes, error) {
	<-ctx.Done()
	return Attributes{Exists: true, CloudManaged: true}, ctx.Err()
}

func TestProber_TimeoutBoundsAvailabilityCheck(t *testing.T) {
	path := testutil.CreateTestFile(t, t.TempDir(), "a.txt", []byte("abc"))
	prober := NewProber(stalledProvider{}, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	snap := prober.Snapshot(ctx, path)
	assert.Less(t, time.Since(start), 2*time.Second, "Snapshot must not wait for the caller's deadline")
	assert.Equal(t, domain.StatusLocal, status.Classify(snap))

	start = time.Now()
	assert.False(t, prober.Available(ctx))
	assert.Less(t, time.Since(start), 2*time.Second, "Available must not wait for the caller's deadline")
}

func TestProber_TimeoutBoundsAttributeFetch(t *testing.T) {
	prober := NewProber(stalledProvider{available: true}, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	snap := prober.Snapshot(ctx, "/managed/x")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, domain.StatusError, status.Classify(snap))
}

type countingProvider struct {
	fakeProvider
	availCalls atomic.Int32
}

func (c *countingProvider) Available(context.Context) bool {
	c.availCalls.Add(1)
	return c.available
}

func TestProber_ReusesAvailability(t *testing.T) {
	provider := &countingProvider{fakeProvider: fakeProvider{
		available: true,
		attrs:     Attributes{Exists: true, CloudManaged: true, DownloadingStatus: "current", IsReadable: domain.Ptr(true)},
	}}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	prober := NewProber(provider, time.Second, WithAvailabilityTTL(time.Minute))
	prober.now = func() time.Time { return now }

	for range 5 {
		prober.Snapshot(context.Background(), "/managed/x")
	}
	assert.Equal(t, int32(1), provider.availCalls.Load(), "one availability check per TTL window")

	now = now.Add(2 * time.Minute)
	prober.Snapshot(context.Background(), "/managed/x")
	assert.Equal(t, int32(2), provider.availCalls.Load(), "expired answer is refreshed")

	// an explicit availability query always asks the provider
	prober.Available(context.Background())
	assert.Equal(t, int32(3), provider.availCalls.Load())
}

func TestProber_ZeroTTLChecksEveryTime(t *testing.T) {
	provider := &countingProvider{fakeProvider: fakeProvider{available: false}}
	prober := NewProber(provider, time.Second, WithAvailabilityTTL(0))

	dir := t.TempDir()
	for range 3 {
		prober.Snapshot(context.Background(), filepath.Join(dir, "missing"))
	}
	assert.Equal(t, int32(3), provider.availCalls.Load())
}

func TestProber_UnresolvablePathIsError(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("relies on getcwd failing for a removed directory")
	}

	gone := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.Mkdir(gone, 0755))
	t.Chdir(gone)
	require.NoError(t, os.Remove(gone))

	if _, err := os.Getwd(); err == nil {
		t.Skip("working directory still resolves")
	}

	provider := &fakeProvider{available: true}
	snap := NewProber(provider, time.Second).Snapshot(context.Background(), "relative.txt")
	assert.True(t, snap.Exists)
	assert.NotEmpty(t, snap.ProviderError)
	assert.Equal(t, domain.StatusError, status.Classify(snap))
	assert.Equal(t, 0, provider.calls)
}
