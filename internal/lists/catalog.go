// Package lists owns the disposable-domain and public-provider sets.
//
// Readers never lock: every refresh builds a fresh snapshot and swaps it in
// with a single atomic store, so a concurrent lookup sees either the old or
// the new sets, never a mix.
package lists

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"domain-validator/internal/metrics"
)

// Category is the list a domain was found in.
type Category string

const (
	CategoryDisposable     Category = "disposable"
	CategoryPublicProvider Category = "public_provider"
	CategoryUnknown        Category = "unknown"
)

// DefaultSources are the community-maintained disposable domain lists.
var DefaultSources = []string{
	"https://raw.githubusercontent.com/disposable-email-domains/disposable-email-domains/master/domains.txt",
	"https://raw.githubusercontent.com/FGRibreau/mailchecker/master/list.txt",
	"https://raw.githubusercontent.com/wesbos/burner-email-providers/master/emails.txt",
	"https://raw.githubusercontent.com/7c/fakefilter/main/txt/data.txt",
}

// SeedPublicProviders are always treated as public webmail providers.
var SeedPublicProviders = []string{
	"gmail.com", "yahoo.com", "outlook.com", "hotmail.com", "live.com",
	"mail.ru", "yandex.ru", "yandex.com", "aol.com", "icloud.com",
	"protonmail.com", "zoho.com", "fastmail.com", "gmx.com", "web.de",
	"tutanota.com", "mailbox.org", "hushmail.com", "lycos.com",
}

// DefaultLocalFile is the curated public-provider CSV looked up on refresh.
const DefaultLocalFile = "PUBLIC_EMAIL_DOMAINS.csv"

// LocalSourceName is the key the local file is reported under by Refresh.
const LocalSourceName = "local_public_providers"

type domainSet map[string]struct{}

func (s domainSet) has(d string) bool {
	_, ok := s[d]
	return ok
}

func (s domainSet) clone() domainSet {
	out := make(domainSet, len(s))
	for d := range s {
		out[d] = struct{}{}
	}
	return out
}

type snapshot struct {
	disposable  domainSet
	public      domainSet
	refreshedAt time.Time
}

// Stats describes the current catalog state.
type Stats struct {
	Disposable      int       `json:"disposable_domains"`
	PublicProviders int       `json:"public_provider_domains"`
	RefreshedAt     time.Time `json:"refreshed_at"`
}

// Catalog answers list-membership questions. The zero value is not usable;
// build one with NewCatalog.
type Catalog struct {
	current atomic.Pointer[snapshot]
	refresh sync.Mutex

	sources      []string
	localFile    string
	client       *http.Client
	fetchTimeout time.Duration
	log          logrus.FieldLogger
	metrics      *metrics.Metrics
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSources replaces the remote disposable list URLs.
func WithSources(urls ...string) Option {
	return func(c *Catalog) { c.sources = urls }
}

// WithLocalFile sets the curated public-provider CSV path. An empty path
// disables it.
func WithLocalFile(path string) Option {
	return func(c *Catalog) { c.localFile = path }
}

// WithHTTPClient sets the client used to fetch remote lists.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Catalog) { c.client = client }
}

// WithFetchTimeout bounds each remote fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Catalog) { c.fetchTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Catalog) { c.log = log }
}

// WithMetrics records list sizes and fetch outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

// WithDisposable seeds the disposable set before any refresh.
func WithDisposable(domains ...string) Option {
	return func(c *Catalog) {
		snap := c.current.Load()
		for _, d := range domains {
			if d = normalizeEntry(d); d != "" {
				snap.disposable[d] = struct{}{}
			}
		}
	}
}

// WithPublicProviders adds to the public-provider seed.
func WithPublicProviders(domains ...string) Option {
	return func(c *Catalog) {
		snap := c.current.Load()
		for _, d := range domains {
			if d = normalizeEntry(d); d != "" {
				snap.public[d] = struct{}{}
			}
		}
	}
}

// NewCatalog returns a catalog holding only the seed public providers.
// Call Refresh to pull the remote and local lists.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		sources:      DefaultSources,
		localFile:    DefaultLocalFile,
		fetchTimeout: 30 * time.Second,
		log:          logrus.StandardLogger(),
	}

	seed := &snapshot{
		disposable: domainSet{},
		public:     make(domainSet, len(SeedPublicProviders)),
	}
	for _, d := range SeedPublicProviders {
		seed.public[d] = struct{}{}
	}
	c.current.Store(seed)

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.fetchTimeout}
	}
	return c
}

// IsDisposable reports whether domain is a known throwaway provider.
func (c *Catalog) IsDisposable(domain string) bool {
	return c.current.Load().disposable.has(strings.ToLower(strings.TrimSpace(domain)))
}

// IsPublicProvider reports whether domain is a known consumer webmail provider.
func (c *Catalog) IsPublicProvider(domain string) bool {
	return c.current.Load().public.has(strings.ToLower(strings.TrimSpace(domain)))
}

// Category returns which list domain belongs to. Disposable wins when a
// domain is in both.
func (c *Catalog) Category(domain string) Category {
	d := strings.ToLower(strings.TrimSpace(domain))
	snap := c.current.Load()
	switch {
	case snap.disposable.has(d):
		return CategoryDisposable
	case snap.public.has(d):
		return CategoryPublicProvider
	default:
		return CategoryUnknown
	}
}

// Stats returns the current set sizes.
func (c *Catalog) Stats() Stats {
	snap := c.current.Load()
	return Stats{
		Disposable:      len(snap.disposable),
		PublicProviders: len(snap.public),
		RefreshedAt:     snap.refreshedAt,
	}
}

// Refresh pulls every remote source concurrently and re-reads the local
// curated file, then installs the union as a new snapshot. A failing source
// is logged and reported with a count of zero; Refresh itself never fails.
// Concurrent calls are serialized.
func (c *Catalog) Refresh(ctx context.Context) map[string]int {
	c.refresh.Lock()
	defer c.refresh.Unlock()

	prev := c.current.Load()
	next := &snapshot{
		disposable: prev.disposable.clone(),
		public:     prev.public.clone(),
	}

	counts := make(map[string]int, len(c.sources)+1)
	for source, domains := range c.fetchAll(ctx) {
		counts[source] = len(domains)
		for _, d := range domains {
			next.disposable[d] = struct{}{}
		}
	}

	if c.localFile != "" {
		local, err := loadLocalFile(c.localFile)
		switch {
		case err != nil:
			c.log.WithError(err).WithField("file", c.localFile).Warn("local public provider list not loaded")
		case len(local) > 0:
			counts[LocalSourceName] = len(local)
			for _, d := range local {
				next.public[d] = struct{}{}
			}
		}
	}

	next.refreshedAt = time.Now().UTC()
	c.current.Store(next)

	c.metrics.SetListSize(string(CategoryDisposable), len(next.disposable))
	c.metrics.SetListSize(string(CategoryPublicProvider), len(next.public))
	c.log.WithFields(logrus.Fields{
		"disposable":       len(next.disposable),
		"public_providers": len(next.public),
	}).Info("domain lists refreshed")

	return counts
}

func normalizeEntry(line string) string {
	d := strings.ToLower(strings.TrimSpace(line))
	if d == "" || strings.HasPrefix(d, "#") || !strings.Contains(d, ".") {
		return ""
	}
	return d
}
