package validator

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-validator/internal/cache"
	"domain-validator/internal/lists"
	"domain-validator/internal/metrics"
	"domain-validator/internal/model"
	"domain-validator/internal/store"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var (
	full = model.ProbeResult{HasMX: true, MXServers: []string{"mx.example.net"}, HasA: true}
	web  = model.ProbeResult{WebsiteAccessible: true, HasSSL: true}
)

// fakeProber answers from fixed tables and counts calls per domain.
type fakeProber struct {
	dns   map[string]model.ProbeResult
	http  map[string]model.ProbeResult
	delay time.Duration

	mu       sync.Mutex
	calls    map[string]int
	inFlight int
	maxSeen  int
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		dns: map[string]model.ProbeResult{
			"gmail.com":     full,
			"harvard.edu":   full,
			"acme-corp.com": full,
			"spammy.biz":    {HasA: true},
		},
		http: map[string]model.ProbeResult{
			"gmail.com":     web,
			"harvard.edu":   web,
			"acme-corp.com": web,
		},
		calls: map[string]int{},
	}
}

func (f *fakeProber) enter(domain string) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeProber) ProbeDNS(ctx context.Context, domain string) model.ProbeResult {
	f.mu.Lock()
	f.calls[domain]++
	f.mu.Unlock()
	f.enter(domain)
	return f.dns[domain]
}

func (f *fakeProber) ProbeHTTP(ctx context.Context, domain string) model.ProbeResult {
	return f.http[domain]
}

func (f *fakeProber) callsFor(domain string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[domain]
}

func newCatalog() *lists.Catalog {
	return lists.NewCatalog(
		lists.WithSources(),
		lists.WithLogger(quietLogger()),
		lists.WithDisposable("mailinator.com"),
	)
}

func newRedisCache(t *testing.T) cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.New(context.Background(), client, cache.WithLogger(quietLogger()))
}

func TestValidateScenarios(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		domain     string
		domainType model.DomainType
		status     model.ValidationStatus
		score      float64
		rec        model.Recommendation
	}{
		{"public provider", "gmail.com", "gmail.com", model.TypePublicProvider, model.StatusValid, 7.0, model.RecommendManualReview},
		{"educational email", "user@harvard.edu", "harvard.edu", model.TypeEducational, model.StatusValid, 9.0, model.RecommendAccept},
		{"corporate", "ACME-Corp.com", "acme-corp.com", model.TypeCorporate, model.StatusValid, 10.0, model.RecommendAccept},
		{"unreachable", "nothing-here.example", "nothing-here.example", model.TypeUnreachable, model.StatusInvalid, 0, model.RecommendReject},
		{"disposable", "x@mailinator.com", "mailinator.com", model.TypeUnreachable, model.StatusInvalid, 0, model.RecommendReject},
		{"a record only", "spammy.biz", "spammy.biz", model.TypeSuspicious, model.StatusSuspicious, 2.3, model.RecommendReject},
	}

	v := New(newFakeProber(), newCatalog(), WithLogger(quietLogger()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.domain, res.Domain)
			assert.Equal(t, tt.domainType, res.DomainType)
			assert.Equal(t, tt.status, res.ValidationStatus)
			assert.InDelta(t, tt.score, res.QualityScore, 1e-9)
			assert.Equal(t, tt.rec, res.Recommendation)
			assert.False(t, res.CheckedAt.IsZero())
			assert.False(t, res.Override)
		})
	}
}

func TestValidateDisposableWithRecords(t *testing.T) {
	p := newFakeProber()
	p.dns["mailinator.com"] = full
	v := New(p, newCatalog(), WithLogger(quietLogger()))

	res, err := v.Validate(context.Background(), "mailinator.com")
	require.NoError(t, err)
	assert.Equal(t, model.TypeDisposable, res.DomainType)
	assert.Equal(t, model.RecommendReject, res.Recommendation)
}

func TestValidateEmptyInput(t *testing.T) {
	v := New(newFakeProber(), newCatalog(), WithLogger(quietLogger()))
	for _, in := range []string{"", "   ", "user@", "@"} {
		_, err := v.Validate(context.Background(), in)
		assert.ErrorIs(t, err, model.ErrEmptyDomain, "input %q", in)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	p := newFakeProber()
	v := New(p, newCatalog(), WithLogger(quietLogger()))

	first, err := v.Validate(context.Background(), "gmail.com")
	require.NoError(t, err)
	second, err := v.Validate(context.Background(), "GMAIL.COM")
	require.NoError(t, err)

	assert.Equal(t, first.DomainType, second.DomainType)
	assert.Equal(t, first.QualityScore, second.QualityScore)
	assert.Equal(t, first.Recommendation, second.Recommendation)
	assert.Equal(t, 2, p.callsFor("gmail.com"), "no cache means both calls probe")
}

func TestCacheHitSkipsProbing(t *testing.T) {
	p := newFakeProber()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	v := New(p, newCatalog(), WithCache(newRedisCache(t), time.Hour), WithLogger(quietLogger()), WithMetrics(m))

	first, err := v.Validate(context.Background(), "harvard.edu")
	require.NoError(t, err)
	second, err := v.Validate(context.Background(), "someone@Harvard.EDU")
	require.NoError(t, err)

	assert.Equal(t, 1, p.callsFor("harvard.edu"))
	assert.Equal(t, first.DomainType, second.DomainType)
	assert.Equal(t, first.Metadata.MXServers, second.Metadata.MXServers)
	assert.True(t, first.CheckedAt.Equal(second.CheckedAt), "cached result is not recomputed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("EDUCATIONAL", "probe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("EDUCATIONAL", "cache")))
}

func TestCacheInvalidationForcesReprobe(t *testing.T) {
	p := newFakeProber()
	c := newRedisCache(t)
	v := New(p, newCatalog(), WithCache(c, time.Hour), WithLogger(quietLogger()))

	_, err := v.Validate(context.Background(), "gmail.com")
	require.NoError(t, err)
	c.Invalidate(context.Background(), "gmail.com")
	_, err = v.Validate(context.Background(), "gmail.com")
	require.NoError(t, err)

	assert.Equal(t, 2, p.callsFor("gmail.com"))
}

func TestProbesRunConcurrently(t *testing.T) {
	var dnsStarted, httpStarted = make(chan struct{}), make(chan struct{})
	var overlapped atomic.Bool

	p := &joinProber{dnsStarted: dnsStarted, httpStarted: httpStarted, overlapped: &overlapped}
	v := New(p, newCatalog(), WithLogger(quietLogger()))

	_, err := v.Validate(context.Background(), "acme-corp.com")
	require.NoError(t, err)
	assert.True(t, overlapped.Load(), "DNS and HTTP probes must overlap")
}

// joinProber only reports overlap when each probe sees the other start.
type joinProber struct {
	dnsStarted, httpStarted chan struct{}
	overlapped              *atomic.Bool
}

func (j *joinProber) ProbeDNS(ctx context.Context, domain string) model.ProbeResult {
	close(j.dnsStarted)
	select {
	case <-j.httpStarted:
		j.overlapped.Store(true)
	case <-time.After(2 * time.Second):
	}
	return full
}

func (j *joinProber) ProbeHTTP(ctx context.Context, domain string) model.ProbeResult {
	close(j.httpStarted)
	select {
	case <-j.dnsStarted:
	case <-time.After(2 * time.Second):
	}
	return web
}

type fakeRecorder struct {
	mu    sync.Mutex
	saved []model.ValidationResult
	err   error
}

func (r *fakeRecorder) SaveResult(ctx context.Context, res model.ValidationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, res)
	return r.err
}

func TestRecorderFailureDoesNotFailValidation(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	v := New(newFakeProber(), newCatalog(), WithRecorder(rec), WithLogger(quietLogger()))

	res, err := v.Validate(context.Background(), "gmail.com")
	require.NoError(t, err)
	assert.Equal(t, model.TypePublicProvider, res.DomainType)
	require.Len(t, rec.saved, 1)
	assert.Equal(t, "gmail.com", rec.saved[0].Domain)
}

type errLimiter struct{ err error }

func (l errLimiter) Wait(ctx context.Context, domain string) error { return l.err }

func TestLimiterErrorIsReturned(t *testing.T) {
	v := New(newFakeProber(), newCatalog(), WithLimiter(errLimiter{context.Canceled}), WithLogger(quietLogger()))
	_, err := v.Validate(context.Background(), "gmail.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDedupeCollapsesConcurrentMisses(t *testing.T) {
	p := newFakeProber()
	p.delay = 200 * time.Millisecond
	v := New(p, newCatalog(), WithDedupe(true), WithLogger(quietLogger()))

	var wg sync.WaitGroup
	results := make([]model.ValidationResult, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := v.Validate(context.Background(), "acme-corp.com")
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, p.callsFor("acme-corp.com"))
	for _, r := range results {
		assert.Equal(t, model.TypeCorporate, r.DomainType)
	}
}

type mapOverrides struct {
	mu   sync.Mutex
	byID map[string]*store.Override
	err  error
}

func (m *mapOverrides) Override(ctx context.Context, domain string) (*store.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if o, ok := m.byID[domain]; ok {
		return o, nil
	}
	return nil, store.ErrNotFound
}

func TestOverrideBypassesProbing(t *testing.T) {
	p := newFakeProber()
	o := &mapOverrides{byID: map[string]*store.Override{
		"junk.example": {Domain: "junk.example", Kind: store.KindBlacklist, DomainType: model.TypeSuspicious, ValidationStatus: model.StatusSuspicious},
	}}
	v := New(p, newCatalog(), WithOverrides(o), WithLogger(quietLogger()))

	res, err := v.Validate(context.Background(), "junk.example")
	require.NoError(t, err)
	assert.True(t, res.Override)
	assert.Equal(t, model.TypeSuspicious, res.DomainType)
	assert.Equal(t, model.StatusSuspicious, res.ValidationStatus)
	assert.Zero(t, res.QualityScore)
	assert.Equal(t, model.RecommendReject, res.Recommendation)
	assert.Zero(t, p.callsFor("junk.example"))
}

func TestOverrideLookupFailureFallsBackToProbing(t *testing.T) {
	p := newFakeProber()
	v := New(p, newCatalog(), WithOverrides(&mapOverrides{err: errors.New("db down")}), WithLogger(quietLogger()))

	res, err := v.Validate(context.Background(), "gmail.com")
	require.NoError(t, err)
	assert.False(t, res.Override)
	assert.Equal(t, 1, p.callsFor("gmail.com"))
}

func TestWhitelistThenValidate(t *testing.T) {
	p := newFakeProber()
	c := newRedisCache(t)
	o := &mapOverrides{byID: map[string]*store.Override{}}
	v := New(p, newCatalog(), WithCache(c, time.Hour), WithOverrides(o), WithLogger(quietLogger()))
	ctx := context.Background()

	before, err := v.Validate(ctx, "spammy.biz")
	require.NoError(t, err)
	assert.Equal(t, model.TypeSuspicious, before.DomainType)

	// what the admin service does: persist, then invalidate
	o.mu.Lock()
	o.byID["spammy.biz"] = &store.Override{Domain: "spammy.biz", Kind: store.KindWhitelist, DomainType: model.TypeCorporate, ValidationStatus: model.StatusValid, QualityScore: 10}
	o.mu.Unlock()
	c.Invalidate(ctx, "spammy.biz")

	after, err := v.Validate(ctx, "spammy.biz")
	require.NoError(t, err)
	assert.Equal(t, model.TypeCorporate, after.DomainType)
	assert.Equal(t, model.StatusValid, after.ValidationStatus)
	assert.Equal(t, 10.0, after.QualityScore)
	assert.Equal(t, model.RecommendAccept, after.Recommendation)
	assert.Equal(t, 1, p.callsFor("spammy.biz"))

	cached, ok := c.Get(ctx, "spammy.biz")
	require.True(t, ok)
	assert.True(t, cached.Override)
}

func TestWithClock(t *testing.T) {
	fixed := time.Date(2026, 6, 1, 8, 0, 0, 0, time.FixedZone("X", 3600))
	v := New(newFakeProber(), newCatalog(), WithClock(func() time.Time { return fixed }), WithLogger(quietLogger()))

	res, err := v.Validate(context.Background(), "gmail.com")
	require.NoError(t, err)
	assert.True(t, fixed.Equal(res.CheckedAt))
	assert.Equal(t, time.UTC, res.CheckedAt.Location())
}

// slowProber answers acme-corp.com after delay, or with nothing once ctx ends.
type slowProber struct {
	delay   time.Duration
	started chan struct{}
	calls   atomic.Int32
}

func (s *slowProber) ProbeDNS(ctx context.Context, domain string) model.ProbeResult {
	if s.calls.Add(1) == 1 {
		close(s.started)
	}
	select {
	case <-time.After(s.delay):
		return full
	case <-ctx.Done():
		return model.ProbeResult{}
	}
}

func (s *slowProber) ProbeHTTP(ctx context.Context, domain string) model.ProbeResult {
	select {
	case <-time.After(s.delay):
		return web
	case <-ctx.Done():
		return model.ProbeResult{}
	}
}

func TestCancelledValidationIsNotReported(t *testing.T) {
	p := &slowProber{delay: 500 * time.Millisecond, started: make(chan struct{})}
	rec := &fakeRecorder{}
	c := newRedisCache(t)
	v := New(p, newCatalog(), WithCache(c, time.Hour), WithRecorder(rec), WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-p.started
		cancel()
	}()

	res, err := v.Validate(ctx, "acme-corp.com")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.DomainType)

	rec.mu.Lock()
	assert.Empty(t, rec.saved, "an interrupted validation is not persisted")
	rec.mu.Unlock()
	_, ok := c.Get(context.Background(), "acme-corp.com")
	assert.False(t, ok, "an interrupted validation is not cached")
}

func TestDedupeIgnoresOtherCallersCancellation(t *testing.T) {
	p := &slowProber{delay: 200 * time.Millisecond, started: make(chan struct{})}
	v := New(p, newCatalog(), WithDedupe(true), WithLogger(quietLogger()))

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := v.Validate(ctxA, "acme-corp.com")
		errA <- err
	}()
	<-p.started

	type outcome struct {
		res model.ValidationResult
		err error
	}
	outB := make(chan outcome, 1)
	go func() {
		res, err := v.Validate(context.Background(), "acme-corp.com")
		outB <- outcome{res, err}
	}()

	time.Sleep(30 * time.Millisecond)
	cancelA()

	assert.ErrorIs(t, <-errA, context.Canceled)

	b := <-outB
	require.NoError(t, b.err)
	assert.Equal(t, model.TypeCorporate, b.res.DomainType)
	assert.InDelta(t, 10.0, b.res.QualityScore, 1e-9)
	assert.Equal(t, model.RecommendAccept, b.res.Recommendation)
	assert.Equal(t, int32(1), p.calls.Load(), "both callers share one probe run")
}
