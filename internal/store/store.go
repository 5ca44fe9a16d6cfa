// Package store persists domain records and manual overrides in Postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"domain-validator/internal/model"
)

// ErrNotFound is returned when no row exists for a domain.
var ErrNotFound = errors.New("domain not found")

// OverrideKind says why a domain is manually classified.
type OverrideKind string

const (
	KindWhitelist OverrideKind = "whitelist"
	KindBlacklist OverrideKind = "blacklist"
	KindManual    OverrideKind = "manual"
)

// Override is a manual classification that replaces probing.
type Override struct {
	Domain           string
	Kind             OverrideKind
	DomainType       model.DomainType
	ValidationStatus model.ValidationStatus
	QualityScore     float64
	Notes            string
	UpdatedAt        time.Time
}

// ListedDomain is one entry of the whitelist or blacklist.
type ListedDomain struct {
	Domain  string    `json:"domain"`
	Notes   string    `json:"notes"`
	AddedAt time.Time `json:"added_at"`
}

// AdminStats summarises the domains table.
type AdminStats struct {
	TotalDomains    int64 `json:"total_domains"`
	Whitelisted     int64 `json:"whitelisted"`
	Blacklisted     int64 `json:"blacklisted"`
	ManualOverrides int64 `json:"manual_overrides"`
}

// Store wraps a *sql.DB opened with the lib/pq driver.
type Store struct {
	db *sql.DB
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS domains (
	id                    SERIAL PRIMARY KEY,
	domain_name           VARCHAR(255) NOT NULL UNIQUE,
	domain_type           VARCHAR(32)  NOT NULL,
	validation_status     VARCHAR(32)  NOT NULL,
	quality_score         DOUBLE PRECISION NOT NULL DEFAULT 0,
	has_mx_record         BOOLEAN NOT NULL DEFAULT FALSE,
	has_a_record          BOOLEAN NOT NULL DEFAULT FALSE,
	mx_servers            TEXT[],
	website_accessible    BOOLEAN NOT NULL DEFAULT FALSE,
	has_ssl_certificate   BOOLEAN NOT NULL DEFAULT FALSE,
	is_whitelisted        BOOLEAN NOT NULL DEFAULT FALSE,
	is_blacklisted        BOOLEAN NOT NULL DEFAULT FALSE,
	manual_classification BOOLEAN NOT NULL DEFAULT FALSE,
	notes                 TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_checked_at       TIMESTAMPTZ
)`

// Migrate creates the domains table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate domains: %w", err)
	}
	return nil
}

// SaveResult upserts the outcome of a fresh validation. Rows under manual
// classification keep their type, status and score; only the probe facts
// and last_checked_at are refreshed.
func (s *Store) SaveResult(ctx context.Context, r model.ValidationResult) error {
	query := `
		INSERT INTO domains (
			domain_name, domain_type, validation_status, quality_score,
			has_mx_record, has_a_record, mx_servers,
			website_accessible, has_ssl_certificate, last_checked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (domain_name) DO UPDATE SET
			domain_type = CASE WHEN domains.manual_classification THEN domains.domain_type ELSE EXCLUDED.domain_type END,
			validation_status = CASE WHEN domains.manual_classification THEN domains.validation_status ELSE EXCLUDED.validation_status END,
			quality_score = CASE WHEN domains.manual_classification THEN domains.quality_score ELSE EXCLUDED.quality_score END,
			has_mx_record = EXCLUDED.has_mx_record,
			has_a_record = EXCLUDED.has_a_record,
			mx_servers = EXCLUDED.mx_servers,
			website_accessible = EXCLUDED.website_accessible,
			has_ssl_certificate = EXCLUDED.has_ssl_certificate,
			last_checked_at = EXCLUDED.last_checked_at,
			updated_at = NOW()
	`

	m := r.Metadata
	_, err := s.db.ExecContext(ctx, query,
		r.Domain, string(r.DomainType), string(r.ValidationStatus), r.QualityScore,
		m.HasMX, m.HasA, pq.Array(m.MXServers),
		m.WebsiteAccessible, m.HasSSL, r.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("save result for %s: %w", r.Domain, err)
	}
	return nil
}

// Override returns the manual classification for domain, or ErrNotFound
// when the domain has none.
func (s *Store) Override(ctx context.Context, domain string) (*Override, error) {
	query := `
		SELECT domain_name, domain_type, validation_status, quality_score,
		       is_whitelisted, is_blacklisted, notes, updated_at
		FROM domains
		WHERE domain_name = $1
		  AND (is_whitelisted OR is_blacklisted OR manual_classification)
	`

	var (
		o           Override
		domainType  string
		status      string
		whitelisted bool
		blacklisted bool
	)
	err := s.db.QueryRowContext(ctx, query, domain).Scan(
		&o.Domain, &domainType, &status, &o.QualityScore,
		&whitelisted, &blacklisted, &o.Notes, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load override for %s: %w", domain, err)
	}

	switch {
	case whitelisted:
		o.Kind = KindWhitelist
		o.DomainType, o.ValidationStatus, o.QualityScore = model.TypeCorporate, model.StatusValid, 10.0
	case blacklisted:
		o.Kind = KindBlacklist
		o.DomainType, o.ValidationStatus, o.QualityScore = model.TypeSuspicious, model.StatusSuspicious, 0.0
	default:
		o.Kind = KindManual
		o.DomainType, o.ValidationStatus = model.DomainType(domainType), model.ValidationStatus(status)
	}
	return &o, nil
}
