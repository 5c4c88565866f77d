package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Instantly   InstantlyConfig   `yaml:"instantly"`
	HeyReach    HeyReachConfig    `yaml:"heyreach"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Sync        SyncConfig        `yaml:"sync"`
	Workflows   WorkflowConfig    `yaml:"workflows"`
	Archive     ArchiveConfig     `yaml:"archive"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// DatabaseConfig holds the lead store connection settings.
type DatabaseConfig struct {
	URL                    string `yaml:"url"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	StatementTimeoutMillis int    `yaml:"statement_timeout_ms"`
}

// RedisConfig enables the shared rate limiter and distributed locks.
// Leave URL empty for single-instance deployments.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// InstantlyConfig holds the email platform API configuration
type InstantlyConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	PageSize       int    `yaml:"page_size"`
}

// Timeout returns the configured timeout as a duration
func (c InstantlyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Enabled reports whether a credential is configured.
func (c InstantlyConfig) Enabled() bool { return c.APIKey != "" }

// HeyReachConfig holds the LinkedIn platform API configuration
type HeyReachConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	MaxRetries         int    `yaml:"max_retries"`
	PageSize           int    `yaml:"page_size"`
	RateLimitRequests  int    `yaml:"rate_limit_requests"`
	RateLimitWindowSec int    `yaml:"rate_limit_window_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c HeyReachConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RateLimitWindow returns the limiter's trailing window.
func (c HeyReachConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

// Enabled reports whether a credential is configured.
func (c HeyReachConfig) Enabled() bool { return c.APIKey != "" }

// AggregationConfig bounds the per-campaign analytics fan-out.
type AggregationConfig struct {
	Concurrency          int `yaml:"concurrency"`
	CallTimeoutSeconds   int `yaml:"call_timeout_seconds"`
	RequestTimeoutSecond int `yaml:"request_timeout_seconds"`
	ChangeWindowDays     int `yaml:"change_window_days"`
	BreakerFailures      int `yaml:"breaker_failures"`
	BreakerCooldownSec   int `yaml:"breaker_cooldown_seconds"`
}

// CallTimeout is the per-upstream-call deadline.
func (c AggregationConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// RequestTimeout is the overall deadline for one dashboard request.
func (c AggregationConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecond) * time.Second
}

// BreakerCooldown is how long an open breaker rejects calls.
func (c AggregationConfig) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSec) * time.Second
}

// SyncConfig controls the sync-flag reconciler.
type SyncConfig struct {
	ReconcileIntervalMinutes int `yaml:"reconcile_interval_minutes"`
}

// ReconcileInterval returns the reconciler period; zero disables the loop.
func (c SyncConfig) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalMinutes) * time.Minute
}

// WorkflowConfig holds the workflow-automation webhook endpoints.
type WorkflowConfig struct {
	ScrapeWebhookURL   string `yaml:"scrape_webhook_url"`
	OutreachWebhookURL string `yaml:"outreach_webhook_url"`
	Secret             string `yaml:"secret"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	MaxRetries         int    `yaml:"max_retries"`
}

// Timeout returns the configured timeout as a duration
func (c WorkflowConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ArchiveConfig holds the optional S3 analytics snapshot archive.
type ArchiveConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`
}

// Enabled reports whether a bucket is configured.
func (c ArchiveConfig) Enabled() bool { return c.S3Bucket != "" }

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.StatementTimeoutMillis == 0 {
		cfg.Database.StatementTimeoutMillis = 15000
	}
	if cfg.Instantly.BaseURL == "" {
		cfg.Instantly.BaseURL = "https://api.instantly.ai"
	}
	if cfg.Instantly.TimeoutSeconds == 0 {
		cfg.Instantly.TimeoutSeconds = 30
	}
	if cfg.Instantly.PageSize == 0 {
		cfg.Instantly.PageSize = 100
	}
	if cfg.HeyReach.BaseURL == "" {
		cfg.HeyReach.BaseURL = "https://api.heyreach.io"
	}
	if cfg.HeyReach.TimeoutSeconds == 0 {
		cfg.HeyReach.TimeoutSeconds = 30
	}
	if cfg.HeyReach.PageSize == 0 {
		cfg.HeyReach.PageSize = 100
	}
	if cfg.HeyReach.RateLimitRequests == 0 {
		cfg.HeyReach.RateLimitRequests = 300
	}
	if cfg.HeyReach.RateLimitWindowSec == 0 {
		cfg.HeyReach.RateLimitWindowSec = 60
	}
	if cfg.Aggregation.Concurrency == 0 {
		cfg.Aggregation.Concurrency = 8
	}
	if cfg.Aggregation.CallTimeoutSeconds == 0 {
		cfg.Aggregation.CallTimeoutSeconds = 15
	}
	if cfg.Aggregation.RequestTimeoutSecond == 0 {
		cfg.Aggregation.RequestTimeoutSecond = 45
	}
	if cfg.Aggregation.ChangeWindowDays == 0 {
		cfg.Aggregation.ChangeWindowDays = 14
	}
	if cfg.Aggregation.BreakerFailures == 0 {
		cfg.Aggregation.BreakerFailures = 5
	}
	if cfg.Aggregation.BreakerCooldownSec == 0 {
		cfg.Aggregation.BreakerCooldownSec = 30
	}
	if cfg.Sync.ReconcileIntervalMinutes == 0 {
		cfg.Sync.ReconcileIntervalMinutes = 15
	}
	if cfg.Workflows.TimeoutSeconds == 0 {
		cfg.Workflows.TimeoutSeconds = 20
	}
	if cfg.Workflows.MaxRetries == 0 {
		cfg.Workflows.MaxRetries = 3
	}
	if cfg.Archive.S3Region == "" {
		cfg.Archive.S3Region = "us-east-1"
	}
	if cfg.Archive.S3Prefix == "" {
		cfg.Archive.S3Prefix = "analytics/"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"SERVER_HOST":              &cfg.Server.Host,
		"LOG_LEVEL":                &cfg.Logging.Level,
		"DATABASE_URL":             &cfg.Database.URL,
		"REDIS_URL":                &cfg.Redis.URL,
		"INSTANTLY_API_KEY":        &cfg.Instantly.APIKey,
		"INSTANTLY_BASE_URL":       &cfg.Instantly.BaseURL,
		"HEYREACH_API_KEY":         &cfg.HeyReach.APIKey,
		"HEYREACH_BASE_URL":        &cfg.HeyReach.BaseURL,
		"N8N_SCRAPE_WEBHOOK_URL":   &cfg.Workflows.ScrapeWebhookURL,
		"N8N_OUTREACH_WEBHOOK_URL": &cfg.Workflows.OutreachWebhookURL,
		"N8N_WEBHOOK_SECRET":       &cfg.Workflows.Secret,
		"ARCHIVE_S3_BUCKET":        &cfg.Archive.S3Bucket,
		"ARCHIVE_S3_REGION":        &cfg.Archive.S3Region,
	}
	for env, dst := range overrides {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	return cfg, nil
}

// Validate checks the configuration once at startup. Missing platform
// credentials are allowed (the platform is reported as not configured);
// malformed values are not.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	if _, err := logger.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if cfg.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required (or set DATABASE_URL)"))
	}
	for name, raw := range map[string]string{
		"instantly.base_url": cfg.Instantly.BaseURL,
		"heyreach.base_url":  cfg.HeyReach.BaseURL,
	} {
		if err := validateURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	for name, raw := range map[string]string{
		"workflows.scrape_webhook_url":   cfg.Workflows.ScrapeWebhookURL,
		"workflows.outreach_webhook_url": cfg.Workflows.OutreachWebhookURL,
	} {
		if raw == "" {
			continue
		}
		if err := validateURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if cfg.HeyReach.RateLimitRequests < 0 || cfg.HeyReach.RateLimitWindowSec < 0 {
		errs = append(errs, errors.New("heyreach rate limit must be positive"))
	}
	if cfg.Aggregation.Concurrency < 0 {
		errs = append(errs, errors.New("aggregation.concurrency must be positive"))
	}
	if cfg.Instantly.MaxRetries < 0 || cfg.HeyReach.MaxRetries < 0 {
		errs = append(errs, errors.New("max_retries must not be negative"))
	}

	return errors.Join(errs...)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
