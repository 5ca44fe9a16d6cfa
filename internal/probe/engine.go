// Package probe performs the best-effort network checks behind a domain
// validation: MX and A lookups, HTTP(S) reachability, and a raw TLS handshake.
//
// No probe ever returns an error. A timeout, refusal, or resolver failure is
// recorded as a negative result and logged at debug level.
package probe

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/proxy"

	"domain-validator/internal/metrics"
)

const (
	DefaultDNSTimeout  = 5 * time.Second
	DefaultHTTPTimeout = 10 * time.Second
	DefaultTLSTimeout  = 5 * time.Second

	maxRedirects = 10
	maxBodyBytes = 64 * 1024
)

// Engine runs probes against a single domain at a time. It is safe for
// concurrent use.
type Engine struct {
	resolver    Resolver
	dialer      proxy.ContextDialer
	tlsConfig   *tls.Config
	client      *http.Client
	dnsTimeout  time.Duration
	httpTimeout time.Duration
	tlsTimeout  time.Duration
	tlsPort     string
	userAgent   string
	log         logrus.FieldLogger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver replaces the system resolver.
func WithResolver(r Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithDialer routes HTTP and TLS probes through d.
func WithDialer(d proxy.ContextDialer) Option {
	return func(e *Engine) { e.dialer = d }
}

// WithTLSConfig sets the base TLS configuration (root CAs in tests).
func WithTLSConfig(cfg *tls.Config) Option {
	return func(e *Engine) { e.tlsConfig = cfg }
}

// WithTimeouts overrides the per-operation timeouts. Zero keeps the default.
func WithTimeouts(dnsTimeout, httpTimeout, tlsTimeout time.Duration) Option {
	return func(e *Engine) {
		if dnsTimeout > 0 {
			e.dnsTimeout = dnsTimeout
		}
		if httpTimeout > 0 {
			e.httpTimeout = httpTimeout
		}
		if tlsTimeout > 0 {
			e.tlsTimeout = tlsTimeout
		}
	}
}

// WithUserAgent sets the User-Agent sent by the website probe.
func WithUserAgent(ua string) Option {
	return func(e *Engine) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics records probe latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds an engine using the system resolver and direct
// connections unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		dnsTimeout:  DefaultDNSTimeout,
		httpTimeout: DefaultHTTPTimeout,
		tlsTimeout:  DefaultTLSTimeout,
		tlsPort:     "443",
		userAgent:   "domain-validator/1.0",
		log:         logrus.StandardLogger(),
		tracer:      otel.Tracer("domain-validator/probe"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.resolver == nil {
		e.resolver = NewSystemResolver()
	}
	if e.dialer == nil {
		e.dialer, _ = NewDialer(nil, e.httpTimeout)
	}
	e.client = e.newHTTPClient()
	return e
}

func (e *Engine) newHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext:         e.dialer.DialContext,
		TLSClientConfig:     e.baseTLSConfig(),
		TLSHandshakeTimeout: e.tlsTimeout,
		DisableKeepAlives:   true,
		MaxIdleConns:        0,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   e.httpTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

func (e *Engine) baseTLSConfig() *tls.Config {
	if e.tlsConfig != nil {
		return e.tlsConfig.Clone()
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

func (e *Engine) observe(probe string, start time.Time) {
	e.metrics.ObserveProbe(probe, time.Since(start))
}
