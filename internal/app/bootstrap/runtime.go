package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/appointment-platform/internal/availability"
	appconfig "github.com/clinicdesk/appointment-platform/internal/config"
	"github.com/clinicdesk/appointment-platform/internal/ledger"
	"github.com/clinicdesk/appointment-platform/internal/observability/metrics"
	"github.com/clinicdesk/appointment-platform/internal/schedule"
	"github.com/clinicdesk/appointment-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSnapshotCache returns the capacity snapshot cache when Redis is
// available and caching is enabled.
func BuildSnapshotCache(redisClient *redis.Client, cfg *appconfig.Config) *availability.SnapshotCache {
	if redisClient == nil || cfg == nil || cfg.CapacityCacheTTL <= 0 {
		return nil
	}
	return availability.NewSnapshotCache(redisClient, cfg.CapacityCacheTTL)
}

// BuildEngine wires the availability engine from its Postgres repositories
// and optional collaborators.
func BuildEngine(pool *pgxpool.Pool, cfg *appconfig.Config, logger *logging.Logger, cache *availability.SnapshotCache, reg prometheus.Registerer) *availability.Engine {
	var engineMetrics *metrics.EngineMetrics
	if reg != nil {
		engineMetrics = metrics.NewEngineMetrics(reg)
	}
	return availability.NewEngine(
		schedule.NewRepository(pool),
		ledger.NewRepository(pool),
		availability.Options{
			Cache:        cache,
			Metrics:      engineMetrics,
			Logger:       logger,
			HorizonDays:  cfg.SearchHorizonDays,
			RangeMaxDays: cfg.CapacityRangeMaxDays,
			RangeWorkers: cfg.RangeWorkerCount,
		},
	)
}
