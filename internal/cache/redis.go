// Package cache provides Redis connection setup and cache-aside helpers.
// Every helper tolerates a nil client so the API runs without Redis.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"socialhub/internal/middleware"
	"socialhub/internal/observability"

	"github.com/redis/go-redis/v9"
)

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Connect dials Redis at addr (host:port or redis:// URL) and pings it.
// It returns nil when the address is empty, invalid or unreachable.
func Connect(ctx context.Context, addr string) *redis.Client {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		middleware.Logger.WarnContext(ctx, "REDIS_URL not set, continuing without cache")
		return nil
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "invalid REDIS_URL, continuing without cache",
				slog.String("error", err.Error()))
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "redis unreachable, continuing without cache",
			slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}
	middleware.Logger.InfoContext(ctx, "redis connected")
	return client
}
