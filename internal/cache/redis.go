// Package cache provides the keyed cached-read store used by the posts manager:
// Redis when reachable, an in-process LRU otherwise.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"postsmanager/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const redisPingTimeout = 5 * time.Second

// errorCountingHook counts failed Redis commands by name. A miss (redis.Nil) is not a failure.
type errorCountingHook struct{}

func countRedisError(name string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(name).Inc()
	}
}

func (errorCountingHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCountingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countRedisError(cmd.Name(), err)
		return err
	}
}

func (errorCountingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		for _, cmd := range cmds {
			countRedisError(cmd.Name(), cmd.Err())
		}
		return err
	}
}

// redisOptions accepts host:port or a redis:// URL.
func redisOptions(addr string) (*redis.Options, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}
	return opts, nil
}

// NewRedisClient connects to Redis at addr.
// It returns nil when Redis is unset or unreachable so callers can continue with the local store.
func NewRedisClient(addr string) *redis.Client {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	logger := observability.GlobalLogger

	opts, err := redisOptions(addr)
	if err != nil {
		logger.Warn("invalid REDIS_URL, using local cache", "addr", addr, "error", err.Error())
		return nil
	}

	client := redis.NewClient(opts)
	client.AddHook(errorCountingHook{})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, using local cache", "addr", opts.Addr, "error", err.Error())
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", opts.Addr)
	return client
}
