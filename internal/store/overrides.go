package store

import (
	"context"
	"fmt"

	"domain-validator/internal/model"
)

// Whitelist marks domain as trusted: CORPORATE, VALID, score 10.
func (s *Store) Whitelist(ctx context.Context, domain, notes string) error {
	query := `
		INSERT INTO domains (
			domain_name, domain_type, validation_status, quality_score,
			is_whitelisted, is_blacklisted, manual_classification, notes
		) VALUES ($1, $2, $3, 10.0, TRUE, FALSE, TRUE, $4)
		ON CONFLICT (domain_name) DO UPDATE SET
			domain_type = EXCLUDED.domain_type,
			validation_status = EXCLUDED.validation_status,
			quality_score = EXCLUDED.quality_score,
			is_whitelisted = TRUE,
			is_blacklisted = FALSE,
			manual_classification = TRUE,
			notes = EXCLUDED.notes,
			updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, domain, string(model.TypeCorporate), string(model.StatusValid), notes); err != nil {
		return fmt.Errorf("whitelist %s: %w", domain, err)
	}
	return nil
}

// Blacklist marks domain as untrusted: SUSPICIOUS, SUSPICIOUS, score 0.
func (s *Store) Blacklist(ctx context.Context, domain, notes string) error {
	query := `
		INSERT INTO domains (
			domain_name, domain_type, validation_status, quality_score,
			is_whitelisted, is_blacklisted, manual_classification, notes
		) VALUES ($1, $2, $3, 0.0, FALSE, TRUE, TRUE, $4)
		ON CONFLICT (domain_name) DO UPDATE SET
			domain_type = EXCLUDED.domain_type,
			validation_status = EXCLUDED.validation_status,
			quality_score = EXCLUDED.quality_score,
			is_whitelisted = FALSE,
			is_blacklisted = TRUE,
			manual_classification = TRUE,
			notes = EXCLUDED.notes,
			updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, domain, string(model.TypeSuspicious), string(model.StatusSuspicious), notes); err != nil {
		return fmt.Errorf("blacklist %s: %w", domain, err)
	}
	return nil
}

// SetType forces domain into category t with status VALID and score 5.
// Any whitelist or blacklist flag is cleared.
func (s *Store) SetType(ctx context.Context, domain string, t model.DomainType, notes string) error {
	query := `
		INSERT INTO domains (
			domain_name, domain_type, validation_status, quality_score,
			is_whitelisted, is_blacklisted, manual_classification, notes
		) VALUES ($1, $2, $3, 5.0, FALSE, FALSE, TRUE, $4)
		ON CONFLICT (domain_name) DO UPDATE SET
			domain_type = EXCLUDED.domain_type,
			validation_status = EXCLUDED.validation_status,
			quality_score = EXCLUDED.quality_score,
			is_whitelisted = FALSE,
			is_blacklisted = FALSE,
			manual_classification = TRUE,
			notes = EXCLUDED.notes,
			updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, domain, string(t), string(model.StatusValid), notes); err != nil {
		return fmt.Errorf("override %s: %w", domain, err)
	}
	return nil
}

// RemoveWhitelist clears the whitelist flag. ErrNotFound if no row exists.
func (s *Store) RemoveWhitelist(ctx context.Context, domain string) error {
	return s.clear(ctx, domain, `UPDATE domains SET is_whitelisted = FALSE, manual_classification = FALSE, updated_at = NOW() WHERE domain_name = $1`)
}

// RemoveBlacklist clears the blacklist flag. ErrNotFound if no row exists.
func (s *Store) RemoveBlacklist(ctx context.Context, domain string) error {
	return s.clear(ctx, domain, `UPDATE domains SET is_blacklisted = FALSE, manual_classification = FALSE, updated_at = NOW() WHERE domain_name = $1`)
}

// ClearOverride drops every manual decision for domain.
func (s *Store) ClearOverride(ctx context.Context, domain string) error {
	return s.clear(ctx, domain, `UPDATE domains SET is_whitelisted = FALSE, is_blacklisted = FALSE, manual_classification = FALSE, updated_at = NOW() WHERE domain_name = $1`)
}

func (s *Store) clear(ctx context.Context, domain, query string) error {
	res, err := s.db.ExecContext(ctx, query, domain)
	if err != nil {
		return fmt.Errorf("update %s: %w", domain, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", domain, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWhitelisted returns every whitelisted domain, oldest first.
func (s *Store) ListWhitelisted(ctx context.Context) ([]ListedDomain, error) {
	return s.list(ctx, `SELECT domain_name, notes, created_at FROM domains WHERE is_whitelisted ORDER BY created_at, domain_name`)
}

// ListBlacklisted returns every blacklisted domain, oldest first.
func (s *Store) ListBlacklisted(ctx context.Context) ([]ListedDomain, error) {
	return s.list(ctx, `SELECT domain_name, notes, created_at FROM domains WHERE is_blacklisted ORDER BY created_at, domain_name`)
}

func (s *Store) list(ctx context.Context, query string) ([]ListedDomain, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	out := []ListedDomain{}
	for rows.Next() {
		var d ListedDomain
		if err := rows.Scan(&d.Domain, &d.Notes, &d.AddedAt); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return out, nil
}

// Stats counts all, whitelisted, blacklisted and manually classified domains.
func (s *Store) Stats(ctx context.Context) (AdminStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_whitelisted),
		       COUNT(*) FILTER (WHERE is_blacklisted),
		       COUNT(*) FILTER (WHERE manual_classification)
		FROM domains
	`
	var st AdminStats
	err := s.db.QueryRowContext(ctx, query).Scan(&st.TotalDomains, &st.Whitelisted, &st.Blacklisted, &st.ManualOverrides)
	if err != nil {
		return AdminStats{}, fmt.Errorf("domain stats: %w", err)
	}
	return st, nil
}
