package probe

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/logger"
)

const (
	// DefaultTimeout bounds one query against the provider (availability
	// check plus attribute fetch) when none is configured
	DefaultTimeout = 10 * time.Second

	// DefaultAvailabilityTTL is how long Snapshot reuses an availability answer
	DefaultAvailabilityTTL = 30 * time.Second
)

// Prober captures snapshots through a provider
type Prober struct {
	provider  Provider
	timeout   time.Duration
	readProbe func(path string) (bool, string)

	availTTL   time.Duration
	now        func() time.Time
	availGroup singleflight.Group

	mu        sync.Mutex
	availOK   bool
	availAt   time.Time
	availSeen bool
}

// ProberOption configures a Prober
type ProberOption func(*Prober)

// WithAvailabilityTTL sets how long Snapshot reuses an availability answer.
// Zero checks the provider on every Snapshot.
func WithAvailabilityTTL(ttl time.Duration) ProberOption {
	return func(p *Prober) { p.availTTL = ttl }
}

// NewProber wraps a provider. A non-positive timeout selects DefaultTimeout.
func NewProber(provider Provider, timeout time.Duration, opts ...ProberOption) *Prober {
	if provider == nil {
		provider = Unavailable{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p := &Prober{
		provider:  provider,
		timeout:   timeout,
		readProbe: ReadProbe,
		availTTL:  DefaultAvailabilityTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *Prober) Name() string {
	return p.provider.Name()
}

// Available asks the provider whether it can answer cloud queries, bounded
// by the probe timeout. Concurrent callers share one provider call.
func (p *Prober) Available(ctx context.Context) bool {
	return p.checkAvailable(ctx, true)
}

// recentlyAvailable reuses an answer younger than the availability TTL
func (p *Prober) recentlyAvailable(ctx context.Context) bool {
	if ok, fresh := p.cachedAvailability(); fresh {
		return ok
	}
	return p.checkAvailable(ctx, false)
}

func (p *Prober) checkAvailable(ctx context.Context, force bool) bool {
	v, _, _ := p.availGroup.Do("available", func() (any, error) {
		// a flight that just finished may already have answered
		if ok, fresh := p.cachedAvailability(); fresh && !force {
			return ok, nil
		}

		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		ok := p.provider.Available(ctx)

		p.mu.Lock()
		p.availOK, p.availAt, p.availSeen = ok, p.now(), true
		p.mu.Unlock()
		return ok, nil
	})
	return v.(bool)
}

func (p *Prober) cachedAvailability() (ok, fresh bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availOK, p.availSeen && p.now().Sub(p.availAt) < p.availTTL
}

// ManagedDir returns the provider's user-visible container directory
func (p *Prober) ManagedDir() (string, bool) {
	return p.provider.ManagedDir()
}

// Snapshot captures the metadata for path. It never returns an error: a
// failed provider call is recorded in the snapshot's ProviderError.
func (p *Prober) Snapshot(ctx context.Context, path string) domain.Snapshot {
	abs, err := CleanPath(path)
	if err != nil {
		// existence is unknown, not absent
		return Normalize(Attributes{Exists: true}, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if !p.recentlyAvailable(probeCtx) {
		logger.Get().Debug("provider unavailable, using local metadata",
			"provider", p.provider.Name(),
			"path", abs,
		)
		return LocalSnapshot(abs)
	}

	attrs, err := p.provider.Attributes(probeCtx, abs)
	if err != nil {
		logger.Get().Warn("provider probe failed",
			"provider", p.provider.Name(),
			"path", abs,
			"error", err,
		)
		return Normalize(attrs, err)
	}

	if attrs.Exists && attrs.IsReadable == nil {
		readable, contentType := p.readProbe(abs)
		attrs.IsReadable = &readable
		if attrs.ContentType == "" {
			attrs.ContentType = contentType
		}
	}

	return Normalize(attrs, nil)
}

// Close releases the provider
func (p *Prober) Close() error {
	return p.provider.Close()
}
