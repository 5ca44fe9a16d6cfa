// Package ratelimit throttles outbound probing so that a large batch does not
// hammer one organisation's DNS and web servers.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	DefaultGlobalRate = 20
	DefaultDomainRate = 5
)

// Limits configures a Manager. Zero values fall back to the defaults.
type Limits struct {
	Global    float64            // probes per second across all domains
	PerDomain float64            // probes per second per registrable domain
	Overrides map[string]float64 // registrable domain -> probes per second
}

// Manager holds one global limiter and lazily created per-domain limiters.
// Domains are grouped by registrable domain, so mail.example.co.uk and
// www.example.co.uk share a budget.
type Manager struct {
	global    *rate.Limiter
	perDomain rate.Limit
	limiters  map[string]*rate.Limiter
	mu        sync.RWMutex
}

// New creates a manager from limits.
func New(limits Limits) *Manager {
	if limits.Global <= 0 {
		limits.Global = DefaultGlobalRate
	}
	if limits.PerDomain <= 0 {
		limits.PerDomain = DefaultDomainRate
	}

	m := &Manager{
		global:    rate.NewLimiter(rate.Limit(limits.Global), burst(limits.Global)),
		perDomain: rate.Limit(limits.PerDomain),
		limiters:  make(map[string]*rate.Limiter),
	}
	for domain, r := range limits.Overrides {
		m.limiters[Group(domain)] = rate.NewLimiter(rate.Limit(r), burst(r))
	}
	return m
}

func burst(r float64) int {
	if r < 1 {
		return 1
	}
	return int(r)
}

// Group returns the key a domain is throttled under: its registrable domain
// (eTLD+1), or the domain itself when that cannot be derived.
func Group(domain string) string {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
		return etld1
	}
	return domain
}

// Wait blocks until both the global and the domain limiter allow one probe.
// It returns the context's error if ctx ends first.
func (m *Manager) Wait(ctx context.Context, domain string) error {
	if err := m.global.Wait(ctx); err != nil {
		return err
	}
	return m.limiter(Group(domain)).Wait(ctx)
}

func (m *Manager) limiter(group string) *rate.Limiter {
	m.mu.RLock()
	l, ok := m.limiters[group]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Double-check after acquiring the write lock
	if l, ok = m.limiters[group]; !ok {
		l = rate.NewLimiter(m.perDomain, burst(float64(m.perDomain)))
		m.limiters[group] = l
	}
	return l
}

// DomainRate returns the rate that applies to domain, for logging.
func (m *Manager) DomainRate(domain string) string {
	group := Group(domain)
	m.mu.RLock()
	defer m.mu.RUnlock()

	if l, ok := m.limiters[group]; ok {
		return fmt.Sprintf("%.1f/sec", float64(l.Limit()))
	}
	return fmt.Sprintf("%.1f/sec (default)", float64(m.perDomain))
}
