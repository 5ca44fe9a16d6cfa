// Package validator is the entry point of the engine. It normalizes input,
// consults the cache and manual overrides, runs the DNS and HTTP probes
// concurrently, and assembles a ValidationResult from the classification
// rules.
package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"domain-validator/internal/cache"
	"domain-validator/internal/classify"
	"domain-validator/internal/metrics"
	"domain-validator/internal/model"
	"domain-validator/internal/store"
)

const DefaultBatchConcurrency = 8

// Prober runs the network checks.
type Prober interface {
	ProbeDNS(ctx context.Context, domain string) model.ProbeResult
	ProbeHTTP(ctx context.Context, domain string) model.ProbeResult
}

// Lists answers list membership questions.
type Lists interface {
	IsDisposable(domain string) bool
	IsPublicProvider(domain string) bool
}

// Overrides looks up manual classifications. It returns store.ErrNotFound
// when a domain has none.
type Overrides interface {
	Override(ctx context.Context, domain string) (*store.Override, error)
}

// Recorder persists fresh validation results.
type Recorder interface {
	SaveResult(ctx context.Context, r model.ValidationResult) error
}

// Limiter throttles outbound probing per domain.
type Limiter interface {
	Wait(ctx context.Context, domain string) error
}

// Validator is safe for concurrent use.
type Validator struct {
	prober    Prober
	lists     Lists
	cache     cache.Cache
	cacheTTL  time.Duration
	overrides Overrides
	recorder  Recorder
	limiter   Limiter
	batchSize int64
	dedupe    bool
	group     singleflight.Group
	now       func() time.Time
	log       logrus.FieldLogger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Option configures a Validator.
type Option func(*Validator)

// WithCache memoizes results in c for ttl (ttl <= 0 uses the cache default).
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(v *Validator) {
		if c != nil {
			v.cache = c
		}
		v.cacheTTL = ttl
	}
}

// WithOverrides consults o after a cache miss and before probing.
func WithOverrides(o Overrides) Option {
	return func(v *Validator) { v.overrides = o }
}

// WithRecorder persists every freshly probed result.
func WithRecorder(r Recorder) Option {
	return func(v *Validator) { v.recorder = r }
}

// WithLimiter throttles probes.
func WithLimiter(l Limiter) Option {
	return func(v *Validator) { v.limiter = l }
}

// WithBatchConcurrency bounds how many domains a batch probes at once.
func WithBatchConcurrency(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.batchSize = int64(n)
		}
	}
}

// WithDedupe collapses concurrent validations of the same domain into one
// probe run.
func WithDedupe(enabled bool) Option {
	return func(v *Validator) { v.dedupe = enabled }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(v *Validator) { v.log = log }
}

// WithMetrics records validation outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// New builds a Validator around a prober and list catalog.
func New(prober Prober, lists Lists, opts ...Option) *Validator {
	v := &Validator{
		prober:    prober,
		lists:     lists,
		cache:     cache.NoopCache{},
		batchSize: DefaultBatchConcurrency,
		now:       time.Now,
		log:       logrus.StandardLogger(),
		tracer:    otel.Tracer("domain-validator/validator"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns the validation result for a domain or email address.
// The only errors are model.ErrEmptyDomain for input with no usable domain
// and the context's error if ctx ends before a result is complete.
func (v *Validator) Validate(ctx context.Context, raw string) (model.ValidationResult, error) {
	start := time.Now()
	defer func() { v.metrics.ObserveValidate(time.Since(start)) }()

	domain, wellFormed := model.NormalizeInput(raw)
	if domain == "" {
		return model.ValidationResult{}, model.ErrEmptyDomain
	}
	if !wellFormed && strings.Contains(raw, "@") {
		v.log.WithField("input", raw).Debug("malformed email address, validating its domain anyway")
	}

	ctx, span := v.tracer.Start(ctx, "validator.validate", trace.WithAttributes(attribute.String("domain", domain)))
	defer span.End()

	if cached, ok := v.cache.Get(ctx, domain); ok {
		span.SetAttributes(attribute.String("source", "cache"))
		v.metrics.IncValidation(string(cached.DomainType), "cache")
		return *cached, nil
	}

	var (
		result model.ValidationResult
		err    error
	)
	if v.dedupe {
		result, err = v.resolveShared(ctx, domain)
	} else {
		result, err = v.resolve(ctx, domain)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return model.ValidationResult{}, err
	}

	span.SetAttributes(
		attribute.String("domain_type", string(result.DomainType)),
		attribute.Float64("quality_score", result.QualityScore),
	)
	return result, nil
}

// resolveShared runs resolve once per domain for every concurrent caller.
// The shared run is detached from any single caller's cancellation; each
// caller stops waiting when its own ctx ends.
func (v *Validator) resolveShared(ctx context.Context, domain string) (model.ValidationResult, error) {
	ch := v.group.DoChan(domain, func() (result any, err error) {
		// DoChan re-panics on a goroutine nobody can recover
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("validation of %s panicked: %v", domain, r)
			}
		}()
		return v.resolve(context.WithoutCancel(ctx), domain)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return model.ValidationResult{}, res.Err
		}
		if res.Shared {
			v.log.WithField("domain", domain).Debug("joined in-flight validation")
		}
		return res.Val.(model.ValidationResult), nil
	case <-ctx.Done():
		return model.ValidationResult{}, ctx.Err()
	}
}

// resolve produces and caches a result for a cache miss. A result probed
// under a context that ended is incomplete and is neither returned nor stored.
func (v *Validator) resolve(ctx context.Context, domain string) (model.ValidationResult, error) {
	if result, ok := v.fromOverride(ctx, domain); ok {
		v.cache.Put(ctx, domain, result, v.cacheTTL)
		v.metrics.IncValidation(string(result.DomainType), "override")
		return result, nil
	}

	if v.limiter != nil {
		if err := v.limiter.Wait(ctx, domain); err != nil {
			return model.ValidationResult{}, err
		}
	}

	result := v.probe(ctx, domain)
	if err := ctx.Err(); err != nil {
		return model.ValidationResult{}, err
	}

	if v.recorder != nil {
		if err := v.recorder.SaveResult(ctx, result); err != nil {
			v.log.WithError(err).WithField("domain", domain).Warn("failed to persist validation result")
		}
	}
	v.cache.Put(ctx, domain, result, v.cacheTTL)
	v.metrics.IncValidation(string(result.DomainType), "probe")
	return result, nil
}

func (v *Validator) fromOverride(ctx context.Context, domain string) (model.ValidationResult, bool) {
	if v.overrides == nil {
		return model.ValidationResult{}, false
	}
	o, err := v.overrides.Override(ctx, domain)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			v.log.WithError(err).WithField("domain", domain).Warn("override lookup failed, probing instead")
		}
		return model.ValidationResult{}, false
	}

	score := classify.Clamp(o.QualityScore)
	return model.ValidationResult{
		Domain:           domain,
		DomainType:       o.DomainType,
		ValidationStatus: o.ValidationStatus,
		QualityScore:     score,
		Recommendation:   classify.Recommend(o.DomainType, score),
		CheckedAt:        v.now().UTC(),
		Override:         true,
	}, true
}

// probe runs DNS and HTTP probes concurrently and waits for both. A panic in
// either probe is re-raised on the calling goroutine once both have finished.
func (v *Validator) probe(ctx context.Context, domain string) model.ValidationResult {
	var (
		dnsResult, httpResult model.ProbeResult
		panicOnce             sync.Once
		panicked              any
	)
	guard := func(run func()) func() error {
		return func() error {
			defer func() {
				if r := recover(); r != nil {
					panicOnce.Do(func() { panicked = r })
				}
			}()
			run()
			return nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(func() { dnsResult = v.prober.ProbeDNS(gctx, domain) }))
	g.Go(guard(func() { httpResult = v.prober.ProbeHTTP(gctx, domain) }))
	_ = g.Wait()
	if panicked != nil {
		panic(panicked)
	}

	var meta model.ProbeResult
	meta.MergeDNS(dnsResult)
	meta.MergeHTTP(httpResult)

	membership := classify.Membership{
		Disposable:     v.lists.IsDisposable(domain),
		PublicProvider: v.lists.IsPublicProvider(domain),
	}
	domainType, rule := classify.Explain(domain, meta, membership)
	score := classify.Score(domainType, meta)

	v.log.WithFields(logrus.Fields{
		"domain":      domain,
		"domain_type": domainType,
		"rule":        rule,
		"score":       score,
	}).Debug("domain classified")

	return model.ValidationResult{
		Domain:           domain,
		DomainType:       domainType,
		ValidationStatus: classify.Status(meta),
		QualityScore:     score,
		Recommendation:   classify.Recommend(domainType, score),
		Metadata:         meta,
		CheckedAt:        v.now().UTC(),
	}
}
