// Package config loads worker configuration from an optional YAML file,
// overlaid by environment variables (a .env file is honoured when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the worker.
type Config struct {
	Redis       RedisConfig     `yaml:"redis"`
	DatabaseURL string          `yaml:"database_url"`
	Probe       ProbeConfig     `yaml:"probe"`
	Lists       ListsConfig     `yaml:"lists"`
	Validator   ValidatorConfig `yaml:"validator"`
	Worker      WorkerConfig    `yaml:"worker"`
	Log         LogConfig       `yaml:"log"`
	SentryDSN   string          `yaml:"sentry_dsn"`
}

// RedisConfig configures the cache and job queue connection. An empty
// address disables both.
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db" validate:"gte=0,lte=15"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" validate:"gt=0"`
}

// ProxyConfig routes HTTP and TLS probes through SOCKS5.
type ProxyConfig struct {
	Address  string `yaml:"address" validate:"omitempty,hostname_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ProbeConfig holds per-operation network timeouts.
type ProbeConfig struct {
	DNSTimeoutSeconds  int         `yaml:"dns_timeout_seconds" validate:"gt=0,lte=60"`
	HTTPTimeoutSeconds int         `yaml:"http_timeout_seconds" validate:"gt=0,lte=120"`
	TLSTimeoutSeconds  int         `yaml:"tls_timeout_seconds" validate:"gt=0,lte=60"`
	DNSServers         []string    `yaml:"dns_servers" validate:"dive,required"`
	UserAgent          string      `yaml:"user_agent"`
	Proxy              ProxyConfig `yaml:"proxy"`
}

// ListsConfig holds list catalog sources.
type ListsConfig struct {
	Sources                []string `yaml:"sources" validate:"dive,url"`
	LocalFile              string   `yaml:"local_file"`
	FetchTimeoutSeconds    int      `yaml:"fetch_timeout_seconds" validate:"gt=0"`
	RefreshIntervalMinutes int      `yaml:"refresh_interval_minutes" validate:"gte=0"`
}

// ValidatorConfig tunes the orchestrator.
type ValidatorConfig struct {
	BatchConcurrency int                `yaml:"batch_concurrency" validate:"gt=0,lte=256"`
	GlobalRate       float64            `yaml:"global_rate" validate:"gte=0"`
	DomainRate       float64            `yaml:"domain_rate" validate:"gte=0"`
	DomainOverrides  map[string]float64 `yaml:"domain_rates"`
	DedupeInflight   bool               `yaml:"dedupe_inflight"`
}

// WorkerConfig configures the queue consumer.
type WorkerConfig struct {
	Workers             int    `yaml:"workers" validate:"gt=0,lte=512"`
	Queue               string `yaml:"queue" validate:"required"`
	RecheckDelaySeconds int    `yaml:"recheck_delay_seconds" validate:"gt=0"`
	MaxRechecks         int    `yaml:"max_rechecks" validate:"gte=0"`
	OpsAddr             string `yaml:"ops_addr"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			CacheTTLSeconds: 3600,
		},
		Probe: ProbeConfig{
			DNSTimeoutSeconds:  5,
			HTTPTimeoutSeconds: 10,
			TLSTimeoutSeconds:  5,
			UserAgent:          "domain-validator/1.0",
		},
		Lists: ListsConfig{
			LocalFile:              "PUBLIC_EMAIL_DOMAINS.csv",
			FetchTimeoutSeconds:    30,
			RefreshIntervalMinutes: 24 * 60,
		},
		Validator: ValidatorConfig{
			BatchConcurrency: 8,
			GlobalRate:       20,
			DomainRate:       5,
			DedupeInflight:   true,
		},
		Worker: WorkerConfig{
			Workers:             20,
			Queue:               "domain_validation_queue",
			RecheckDelaySeconds: 900,
			MaxRechecks:         1,
			OpsAddr:             ":9090",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads .env if present, reads path, applies environment
// overrides and validates the result.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("SOCKS5_PROXY"); v != "" {
		c.Probe.Proxy.Address = v
	}
	if v := os.Getenv("PROXY_USER"); v != "" {
		c.Probe.Proxy.Username = v
	}
	if v := os.Getenv("PROXY_PASS"); v != "" {
		c.Probe.Proxy.Password = v
	}
	if v := os.Getenv("DNS_SERVERS"); v != "" {
		c.Probe.DNSServers = splitList(v)
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		c.SentryDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("OPS_ADDR"); v != "" {
		c.Worker.OpsAddr = v
	}
	if v := os.Getenv("QUEUE_NAME"); v != "" {
		c.Worker.Queue = v
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"REDIS_DB", &c.Redis.DB},
		{"CACHE_TTL_SECONDS", &c.Redis.CacheTTLSeconds},
		{"WORKER_COUNT", &c.Worker.Workers},
		{"BATCH_CONCURRENCY", &c.Validator.BatchConcurrency},
		{"RECHECK_DELAY_SECONDS", &c.Worker.RecheckDelaySeconds},
	}
	for _, i := range ints {
		v := os.Getenv(i.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", i.env, err)
		}
		*i.dst = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = validator.New()

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Namespace())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "gt", "gte", "lte":
			msgs = append(msgs, field+" is out of range ("+fe.Tag()+" "+fe.Param()+")")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+fe.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c RedisConfig) CacheTTL() time.Duration { return seconds(c.CacheTTLSeconds) }

func (c ProbeConfig) DNSTimeout() time.Duration { return seconds(c.DNSTimeoutSeconds) }

func (c ProbeConfig) HTTPTimeout() time.Duration { return seconds(c.HTTPTimeoutSeconds) }

func (c ProbeConfig) TLSTimeout() time.Duration { return seconds(c.TLSTimeoutSeconds) }

func (c ListsConfig) FetchTimeout() time.Duration { return seconds(c.FetchTimeoutSeconds) }

// RefreshInterval is zero when periodic refresh is disabled.
func (c ListsConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

func (c WorkerConfig) RecheckDelay() time.Duration { return seconds(c.RecheckDelaySeconds) }
