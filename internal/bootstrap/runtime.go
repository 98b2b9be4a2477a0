// Package bootstrap opens the process-wide resources shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Version is reported as service.version on spans. Release builds set it
// with -ldflags "-X socialhub/internal/bootstrap.Version=...".
var Version = "dev"

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations according to DB_SCHEMA_MODE after connecting.
	ApplySchema bool
	// SkipRedis leaves the Redis client nil even when REDIS_URL is set.
	SkipRedis bool
}

// Runtime is the set of shared resources a command owns for its lifetime.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database and Redis and starts tracing.
// Redis is optional: an unreachable server yields a nil client.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(ctx, cfg, Version)
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			_ = database.Close(db)
			_ = shutdownTracing(ctx)
			return nil, fmt.Errorf("schema apply failed: %w", err)
		}
	}

	rt := &Runtime{DB: db, shutdownTracing: shutdownTracing}
	if !opts.SkipRedis {
		rt.Redis = cache.Connect(ctx, cfg.RedisURL)
	}
	return rt, nil
}

// Close releases everything InitRuntime opened. The server closes DB and
// Redis itself during Shutdown, so it only needs CloseTracing.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if err := database.Close(r.DB); err != nil {
		errs = append(errs, err)
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, r.CloseTracing(ctx))
	return errors.Join(errs...)
}

// CloseTracing flushes pending spans.
func (r *Runtime) CloseTracing(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}
