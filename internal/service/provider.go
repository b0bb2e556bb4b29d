package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ning0612/syncprobe/internal/adapter"
	"github.com/Ning0612/syncprobe/internal/adapter/gdrive"
	"github.com/Ning0612/syncprobe/internal/adapter/local"
	"github.com/Ning0612/syncprobe/internal/adapter/s3"
	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/logger"
	"github.com/Ning0612/syncprobe/internal/probe"
	"github.com/Ning0612/syncprobe/internal/probe/icloud"
	"github.com/Ning0612/syncprobe/internal/probe/mirror"
)

// NewProvider builds the metadata provider selected by cfg.
//
// Configuration mistakes are returned as errors. A backend that is simply
// not there (remote directory missing, Drive never authorized) yields the
// unavailable provider instead, so queries degrade to local metadata the
// same way they do on a machine without cloud support.
func NewProvider(ctx context.Context, cfg domain.Provider) (probe.Provider, error) {
	log := logger.With("provider", string(cfg.Type))

	switch cfg.Type {
	case domain.ProviderNone, "":
		return probe.Unavailable{}, nil

	case domain.ProviderICloud:
		p, err := icloud.New(cfg.ContainerID, cfg.ContainerRoot, cfg.DocumentsDir)
		if err != nil {
			return nil, err
		}
		log.Debug("icloud container resolved", "root", p.Root())
		return p, nil
	}

	if !cfg.Type.IsMirror() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, cfg.Type)
	}

	remote, err := newRemote(ctx, cfg)
	if err != nil {
		if errors.Is(err, domain.ErrConfigInvalid) {
			return nil, err
		}
		log.Warn("remote unavailable, falling back to local metadata", "error", err)
		return probe.Unavailable{}, nil
	}

	p, err := mirror.New(string(cfg.Type), cfg.LocalRoot, remote, cfg.PartialSuffix)
	if err != nil {
		remote.Close()
		return nil, err
	}
	log.Debug("mirror provider ready", "local_root", p.LocalRoot())
	return p, nil
}

// newRemote creates the replica side of a mirror provider
func newRemote(ctx context.Context, cfg domain.Provider) (adapter.Remote, error) {
	switch cfg.Type {
	case domain.ProviderDir:
		a, err := local.New(cfg.RemoteRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to open replica directory %s: %w", cfg.RemoteRoot, err)
		}
		return a, nil
	case domain.ProviderGDrive:
		a, err := gdrive.New(ctx, cfg.GDrive.ClientID, cfg.GDrive.ClientSecret, cfg.GDrive.TokenPath, cfg.RemoteRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to create gdrive remote: %w", err)
		}
		return a, nil
	case domain.ProviderS3:
		return s3.New(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, cfg.Type)
}
