// Command worker runs the domain validation engine as a queue consumer.
//
// It pops {jobId, domain} jobs from a Redis list, validates each domain,
// persists results to Postgres when configured, and serves health, metrics
// and admin endpoints on the ops address.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"domain-validator/internal/admin"
	"domain-validator/internal/cache"
	"domain-validator/internal/config"
	"domain-validator/internal/lists"
	"domain-validator/internal/logging"
	"domain-validator/internal/metrics"
	"domain-validator/internal/probe"
	"domain-validator/internal/queue"
	"domain-validator/internal/ratelimit"
	"domain-validator/internal/store"
	"domain-validator/internal/validator"
)

func main() {
	fmt.Println("🚀 Starting Domain Validator Worker...")

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		sentry.CaptureException(err)
		sentry.Flush(2 * time.Second)
		log.WithError(err).Fatal("❌ Worker stopped")
	}
	fmt.Println("👋 Worker stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, AttachStacktrace: true}); err != nil {
			log.WithError(err).Warn("⚠️  Sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
			fmt.Println("🛰️  Sentry error reporting enabled")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Redis backs both the cache and the queue; without it the engine still
	// works uncached and only the ops endpoints are served.
	var rdb redis.UniversalClient
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		rdb = client
	}
	resultCache := cache.New(ctx, rdb,
		cache.WithTTL(cfg.Redis.CacheTTL()),
		cache.WithLogger(log),
		cache.WithMetrics(m),
	)
	_, redisUp := resultCache.(*cache.RedisCache)
	if redisUp {
		fmt.Println("✅ Connected to Redis")
	}

	var st *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		st, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			sentry.CaptureException(err)
			log.WithError(err).Warn("⚠️  PostgreSQL unavailable, persistence and overrides disabled")
		} else {
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			fmt.Println("✅ Connected to PostgreSQL")
		}
	}

	catalog := newCatalog(cfg, log, m)
	counts := catalog.Refresh(ctx)
	log.WithField("sources", counts).Info("📚 Domain lists loaded")
	if every := cfg.Lists.RefreshInterval(); every > 0 {
		go refreshLoop(ctx, catalog, every, log)
	}

	engine, err := newEngine(cfg, log, m)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(ratelimit.Limits{
		Global:    cfg.Validator.GlobalRate,
		PerDomain: cfg.Validator.DomainRate,
		Overrides: cfg.Validator.DomainOverrides,
	})
	fmt.Println("🛡️  Rate limiter initialized")
	for domain := range cfg.Validator.DomainOverrides {
		log.WithField("domain", domain).Infof("🛡️  Rate limit for %s: %s", ratelimit.Group(domain), limiter.DomainRate(domain))
	}

	opts := []validator.Option{
		validator.WithCache(resultCache, cfg.Redis.CacheTTL()),
		validator.WithLimiter(limiter),
		validator.WithDedupe(cfg.Validator.DedupeInflight),
		validator.WithBatchConcurrency(cfg.Validator.BatchConcurrency),
		validator.WithLogger(log),
		validator.WithMetrics(m),
	}
	deps := opsDeps{gatherer: reg, cache: resultCache, catalog: catalog}
	var q *queue.Queue
	if redisUp {
		q = queue.New(rdb, cfg.Worker.Queue, log)
		deps.queue = q
	}
	if st != nil {
		opts = append(opts, validator.WithOverrides(st), validator.WithRecorder(st))
		svc, err := admin.New(st, resultCache, admin.WithLogger(log))
		if err != nil {
			return err
		}
		deps.admin = svc
	}
	v := validator.New(engine, catalog, opts...)

	srv := &http.Server{
		Addr:              cfg.Worker.OpsAddr,
		Handler:           newOpsRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		fmt.Printf("📈 Ops server listening on %s\n", cfg.Worker.OpsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.WithError(err).Error("ops server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if !redisUp {
		log.Warn("⚠️  Redis not available - queue consumer disabled")
		<-ctx.Done()
		return nil
	}

	go q.RunRechecks(ctx, queue.DefaultRecheckInterval)
	fmt.Println("🔄 Recheck monitor started")

	w := &worker{
		validator:    v,
		queue:        q,
		cache:        resultCache,
		workers:      cfg.Worker.Workers,
		recheckDelay: cfg.Worker.RecheckDelay(),
		maxRechecks:  cfg.Worker.MaxRechecks,
		log:          log,
		metrics:      m,
		now:          time.Now,
	}
	fmt.Println("📬 Listening for domains in queue:", cfg.Worker.Queue)
	w.run(ctx)
	return nil
}

func newCatalog(cfg *config.Config, log logrus.FieldLogger, m *metrics.Metrics) *lists.Catalog {
	opts := []lists.Option{
		lists.WithLocalFile(cfg.Lists.LocalFile),
		lists.WithFetchTimeout(cfg.Lists.FetchTimeout()),
		lists.WithLogger(log),
		lists.WithMetrics(m),
	}
	if len(cfg.Lists.Sources) > 0 {
		opts = append(opts, lists.WithSources(cfg.Lists.Sources...))
	}
	return lists.NewCatalog(opts...)
}

func newEngine(cfg *config.Config, log logrus.FieldLogger, m *metrics.Metrics) (*probe.Engine, error) {
	var proxyCfg *probe.ProxyConfig
	if cfg.Probe.Proxy.Address != "" {
		proxyCfg = &probe.ProxyConfig{
			Address:  cfg.Probe.Proxy.Address,
			Username: cfg.Probe.Proxy.Username,
			Password: cfg.Probe.Proxy.Password,
		}
		fmt.Printf("🔌 SOCKS5 Proxy configured: %s\n", proxyCfg.Address)
	}
	dialer, err := probe.NewDialer(proxyCfg, cfg.Probe.HTTPTimeout())
	if err != nil {
		return nil, err
	}

	opts := []probe.Option{
		probe.WithDialer(dialer),
		probe.WithTimeouts(cfg.Probe.DNSTimeout(), cfg.Probe.HTTPTimeout(), cfg.Probe.TLSTimeout()),
		probe.WithUserAgent(cfg.Probe.UserAgent),
		probe.WithLogger(log),
		probe.WithMetrics(m),
	}
	if len(cfg.Probe.DNSServers) > 0 {
		opts = append(opts, probe.WithResolver(probe.NewUpstreamResolver(cfg.Probe.DNSServers, cfg.Probe.DNSTimeout())))
		fmt.Printf("🧭 Using DNS servers: %v\n", cfg.Probe.DNSServers)
	}
	return probe.NewEngine(opts...), nil
}

func refreshLoop(ctx context.Context, catalog *lists.Catalog, every time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			counts := catalog.Refresh(ctx)
			log.WithField("sources", counts).Info("📚 Domain lists refreshed")
		case <-ctx.Done():
			return
		}
	}
}
