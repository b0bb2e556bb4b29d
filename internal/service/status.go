package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ning0612/syncprobe/internal/config"
	"github.com/Ning0612/syncprobe/internal/core/status"
	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/logger"
	"github.com/Ning0612/syncprobe/internal/probe"
	"github.com/Ning0612/syncprobe/internal/state"
)

// DefaultParallel bounds QueryMany when the caller passes no limit
const DefaultParallel = 4

// Recorder persists status reports
type Recorder interface {
	Record(report domain.StatusReport) (state.Observation, error)
	Close() error
}

// StatusService answers sync status queries for one provider
type StatusService struct {
	prober  *probe.Prober
	journal Recorder
	now     func() time.Time
}

// Option configures a StatusService
type Option func(*StatusService)

// WithJournal records every StatusReport returned by QueryStatus
func WithJournal(r Recorder) Option {
	return func(s *StatusService) { s.journal = r }
}

// WithClock overrides the observation timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *StatusService) { s.now = now }
}

// NewStatusService wraps a provider
func NewStatusService(provider probe.Provider, timeout time.Duration, opts ...Option) *StatusService {
	s := &StatusService{
		prober: probe.NewProber(provider, timeout),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New builds the service from configuration. The journal is opened when
// record is set or journal.enabled is true.
func New(ctx context.Context, cfg *config.Config, record bool) (*StatusService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	provider, err := NewProvider(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.Provider.Type, err)
	}

	var opts []Option
	if record || cfg.Journal.Enabled {
		j, err := state.Open(cfg.Journal.DataDir)
		if err != nil {
			provider.Close()
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		opts = append(opts, WithJournal(j))
	}

	return NewStatusService(provider, cfg.Provider.ProbeTimeout, opts...), nil
}

// ProviderName returns the name of the active provider
func (s *StatusService) ProviderName() string {
	return s.prober.Name()
}

// QueryStatus classifies one path. It never fails; provider problems are
// reported as the error status.
func (s *StatusService) QueryStatus(ctx context.Context, path string) domain.StatusReport {
	if abs, err := probe.CleanPath(path); err == nil {
		path = abs
	}

	snap := s.prober.Snapshot(ctx, path)
	report := status.Evaluate(path, s.prober.Name(), snap, s.now())

	logger.Get().Debug("status evaluated",
		"path", path,
		"provider", report.Provider,
		"status", string(report.Status),
		"fully_downloaded", report.FullyDownloaded,
	)

	if s.journal != nil {
		if _, err := s.journal.Record(report); err != nil {
			logger.Get().Error("failed to record observation", "path", path, "error", err)
		}
	}

	return report
}

// QueryFullyDownloaded reports whether the complete content of path is local
func (s *StatusService) QueryFullyDownloaded(ctx context.Context, path string) bool {
	return status.IsFullyDownloaded(s.prober.Snapshot(ctx, path))
}

// IsProviderAvailable reports whether cloud queries can be answered
func (s *StatusService) IsProviderAvailable(ctx context.Context) bool {
	available := s.prober.Available(ctx)
	logger.Get().Debug("provider availability", "provider", s.prober.Name(), "available", available)
	return available
}

// ManagedDirectoryPath returns the user-visible directory of the sync container
func (s *StatusService) ManagedDirectoryPath() (string, bool) {
	return s.prober.ManagedDir()
}

// QueryMany classifies paths concurrently, at most parallel at a time.
// Results are in the order of paths.
func (s *StatusService) QueryMany(ctx context.Context, paths []string, parallel int) []domain.StatusReport {
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	reports := make([]domain.StatusReport, len(paths))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, path := range paths {
		g.Go(func() error {
			reports[i] = s.QueryStatus(ctx, path)
			return nil
		})
	}
	_ = g.Wait() // QueryStatus does not fail

	return reports
}

// Close releases the provider and the journal
func (s *StatusService) Close() error {
	var firstErr error
	if err := s.prober.Close(); err != nil {
		firstErr = err
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
