// Package admin applies manual classification decisions and keeps the result
// cache consistent with them.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"domain-validator/internal/model"
	"domain-validator/internal/store"
)

var (
	ErrInvalidDomain = errors.New("invalid domain")
	ErrInvalidType   = errors.New("invalid domain type")
)

// Repository is the persistence the service needs.
type Repository interface {
	Whitelist(ctx context.Context, domain, notes string) error
	Blacklist(ctx context.Context, domain, notes string) error
	SetType(ctx context.Context, domain string, t model.DomainType, notes string) error
	RemoveWhitelist(ctx context.Context, domain string) error
	RemoveBlacklist(ctx context.Context, domain string) error
	ClearOverride(ctx context.Context, domain string) error
	ListWhitelisted(ctx context.Context) ([]store.ListedDomain, error)
	ListBlacklisted(ctx context.Context) ([]store.ListedDomain, error)
	Stats(ctx context.Context) (store.AdminStats, error)
}

// Invalidator drops cached validation results.
type Invalidator interface {
	Invalidate(ctx context.Context, domain string)
}

// Service is the override collaborator. Every successful mutation
// invalidates the cached result for the domain before returning.
type Service struct {
	repo  Repository
	cache Invalidator
	log   logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// New builds a Service. Both collaborators are required.
func New(repo Repository, cache Invalidator, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	s := &Service{repo: repo, cache: cache, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Whitelist forces domain to CORPORATE / VALID / 10.
func (s *Service) Whitelist(ctx context.Context, domain, notes string) error {
	return s.mutate(ctx, "whitelist", domain, func(d string) error {
		return s.repo.Whitelist(ctx, d, notes)
	})
}

// Blacklist forces domain to SUSPICIOUS / SUSPICIOUS / 0.
func (s *Service) Blacklist(ctx context.Context, domain, notes string) error {
	return s.mutate(ctx, "blacklist", domain, func(d string) error {
		return s.repo.Blacklist(ctx, d, notes)
	})
}

// Override forces domain into category t.
func (s *Service) Override(ctx context.Context, domain string, t model.DomainType, notes string) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	return s.mutate(ctx, "override", domain, func(d string) error {
		return s.repo.SetType(ctx, d, t, notes)
	})
}

// RemoveWhitelist returns store.ErrNotFound when the domain is unknown.
func (s *Service) RemoveWhitelist(ctx context.Context, domain string) error {
	return s.mutate(ctx, "remove_whitelist", domain, func(d string) error {
		return s.repo.RemoveWhitelist(ctx, d)
	})
}

// RemoveBlacklist returns store.ErrNotFound when the domain is unknown.
func (s *Service) RemoveBlacklist(ctx context.Context, domain string) error {
	return s.mutate(ctx, "remove_blacklist", domain, func(d string) error {
		return s.repo.RemoveBlacklist(ctx, d)
	})
}

// ClearOverride removes every manual decision for domain.
func (s *Service) ClearOverride(ctx context.Context, domain string) error {
	return s.mutate(ctx, "clear_override", domain, func(d string) error {
		return s.repo.ClearOverride(ctx, d)
	})
}

func (s *Service) ListWhitelisted(ctx context.Context) ([]store.ListedDomain, error) {
	return s.repo.ListWhitelisted(ctx)
}

func (s *Service) ListBlacklisted(ctx context.Context) ([]store.ListedDomain, error) {
	return s.repo.ListBlacklisted(ctx)
}

func (s *Service) Stats(ctx context.Context) (store.AdminStats, error) {
	return s.repo.Stats(ctx)
}

func (s *Service) mutate(ctx context.Context, action, raw string, apply func(domain string) error) error {
	domain, err := model.Normalize(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}
	if err := apply(domain); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, domain)
	s.log.WithFields(logrus.Fields{"action": action, "domain": domain}).Info("manual classification updated")
	return nil
}
