package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/analytics"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/api"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/archive"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/config"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/gateway"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/heyreach"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/instantly"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/distlock"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/ratelimit"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/repository/postgres"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/service/lead"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/service/syncstate"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/webhook"
)

var log = logger.New("server")

// withStatementTimeout appends connect and statement timeouts to a
// postgres:// URL unless the caller already set options.
func withStatementTimeout(dsn string, millis int) string {
	if millis <= 0 || strings.Contains(dsn, "options=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "connect_timeout") {
		dsn += sep + "connect_timeout=5"
		sep = "&"
	}
	return dsn + sep + "options=" + url.QueryEscape(fmt.Sprintf("-c statement_timeout=%d", millis))
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", withStatementTimeout(cfg.URL, cfg.StatementTimeoutMillis))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// openRedis returns nil when Redis is not configured or unreachable; the
// limiter then runs in-process and locks fall back to Postgres.
func openRedis(ctx context.Context, redisURL string) *redis.Client {
	if redisURL == "" {
		log.Info("redis not configured, using in-process limiter and PG advisory locks")
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	var client *redis.Client
	if err != nil {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	} else {
		client = redis.NewClient(opts)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, falling back to in-process limiter", "error", err)
		client.Close()
		return nil
	}
	log.Info("redis connected, shared limiter and locks enabled")
	return client
}

func breakerFor(platform string, cfg config.AggregationConfig) *gateway.Breaker {
	return gateway.NewBreaker(platform, gateway.BreakerConfig{
		ConsecutiveFailures: uint32(cfg.BreakerFailures),
		Cooldown:            cfg.BreakerCooldown(),
	})
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}
	level, _ := logger.ParseLevel(cfg.Logging.Level)
	logger.SetLevel(level)
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := openRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Platform gateways
	instClient := instantly.NewClient(instantly.Config{
		APIKey:     cfg.Instantly.APIKey,
		BaseURL:    cfg.Instantly.BaseURL,
		Timeout:    cfg.Instantly.Timeout(),
		MaxRetries: cfg.Instantly.MaxRetries,
		PageSize:   cfg.Instantly.PageSize,
	})
	instClient.SetBreaker(breakerFor("instantly", cfg.Aggregation))

	var hrLimiter ratelimit.Limiter
	if redisClient != nil {
		hrLimiter = ratelimit.NewRedisWindow(redisClient, "heyreach", cfg.HeyReach.RateLimitRequests, cfg.HeyReach.RateLimitWindow())
	} else {
		hrLimiter = ratelimit.NewSlidingWindow("heyreach", cfg.HeyReach.RateLimitRequests, cfg.HeyReach.RateLimitWindow())
	}
	hrClient := heyreach.NewClient(heyreach.Config{
		APIKey:     cfg.HeyReach.APIKey,
		BaseURL:    cfg.HeyReach.BaseURL,
		Timeout:    cfg.HeyReach.Timeout(),
		MaxRetries: cfg.HeyReach.MaxRetries,
		PageSize:   cfg.HeyReach.PageSize,
	}, hrLimiter)
	hrClient.SetBreaker(breakerFor("heyreach", cfg.Aggregation))

	instSource := instantly.NewSource(instClient)
	hrSource := heyreach.NewSource(hrClient)
	for _, p := range []struct {
		name       string
		configured bool
	}{{"instantly", instSource.Configured()}, {"heyreach", hrSource.Configured()}} {
		if !p.configured {
			log.Warn("platform api key missing, its routes will answer 503", "platform", p.name)
		}
	}

	engine := analytics.NewEngine(analytics.Options{
		Concurrency:      cfg.Aggregation.Concurrency,
		CallTimeout:      cfg.Aggregation.CallTimeout(),
		ChangeWindowDays: cfg.Aggregation.ChangeWindowDays,
	}, instSource, hrSource)

	// Lead store and sync state
	leadSvc := lead.NewService(postgres.NewLeadRepo(db))
	syncSvc := syncstate.NewService(
		postgres.NewSendRepo(db),
		map[domain.Platform]syncstate.Dispatcher{
			domain.PlatformInstantly: instSource,
			domain.PlatformHeyReach:  hrSource,
		},
		func() distlock.DistLock {
			return distlock.NewLock(redisClient, db, "leadgen:reconcile-sync-flags", 10*time.Minute)
		},
	)
	reconciler := syncstate.NewReconciler(syncSvc, cfg.Sync.ReconcileInterval())
	reconciler.Start(ctx)

	deps := api.Deps{
		Analytics:      engine,
		Leads:          leadSvc,
		Sync:           syncSvc,
		Instantly:      instClient,
		HeyReach:       hrClient,
		RequestTimeout: cfg.Aggregation.RequestTimeout(),
	}

	if cfg.Workflows.ScrapeWebhookURL != "" || cfg.Workflows.OutreachWebhookURL != "" {
		deps.Workflows = webhook.NewClient(webhook.Config{
			ScrapeURL:   cfg.Workflows.ScrapeWebhookURL,
			OutreachURL: cfg.Workflows.OutreachWebhookURL,
			Secret:      cfg.Workflows.Secret,
			Timeout:     cfg.Workflows.Timeout(),
			MaxRetries:  cfg.Workflows.MaxRetries,
		})
	}

	var s3Client *s3.Client
	if cfg.Archive.Enabled() {
		store, err := archive.NewS3Store(ctx, cfg.Archive.S3Bucket, cfg.Archive.S3Region, cfg.Archive.S3Prefix)
		if err != nil {
			log.Warn("analytics archive disabled", "error", err)
		} else {
			deps.Archive = store
			if awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Archive.S3Region)); err == nil {
				s3Client = s3.NewFromConfig(awsCfg)
			}
			log.Info("analytics archive enabled", "bucket", cfg.Archive.S3Bucket)
		}
	}

	var bucket api.BucketHeader
	if s3Client != nil {
		bucket = s3Client
	}
	deps.Health = api.NewHealthChecker(db, redisClient, bucket, cfg.Archive.S3Bucket, map[domain.Platform]bool{
		domain.PlatformInstantly: instSource.Configured(),
		domain.PlatformHeyReach:  hrSource.Configured(),
	})

	server := api.NewServer(cfg.Server, deps)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := cfg.Server.Addr()
		log.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	log.Info("shutting down")

	reconciler.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	log.Info("server stopped")
}
