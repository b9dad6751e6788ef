package middleware

import (
	"context"
	"errors"
	"math"
	"os"
	"strconv"
	"time"

	"postsmanager/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// Quota is the state of one rate-limit window after a request was counted.
type Quota struct {
	Limit     int
	Remaining int
	// Reset is the time left until the window restarts.
	Reset time.Duration
}

// Allowed reports whether the counted request fits in the window.
func (q Quota) Allowed() bool {
	return q.Remaining >= 0
}

func rateLimitKey(resource, id string) string {
	return "pm:rl:" + resource + ":" + id
}

// CheckRateLimit counts one request against resource for id and returns the resulting quota.
// Rate limiting is disabled when APP_ENV is "test" or "development".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (Quota, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	switch env {
	case "test", "development":
		return Quota{Limit: limit, Remaining: limit, Reset: window}, nil
	}

	if rdb == nil {
		return Quota{}, errors.New("redis client is nil")
	}

	key := rateLimitKey(resource, id)
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return Quota{}, err
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return Quota{}, err
		}
	}

	reset, err := rdb.PTTL(ctx, key).Result()
	if err != nil {
		return Quota{}, err
	}
	// a key without expiry would block id forever
	if reset < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return Quota{}, err
		}
		reset = window
	}

	return Quota{Limit: limit, Remaining: limit - int(count), Reset: reset}, nil
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`, keyed by remote IP.
// It defaults to FailOpen policy, so writes stay available in deployments without Redis.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
// Counted responses carry X-RateLimit-Limit and X-RateLimit-Remaining; rejected ones add Retry-After.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		quota, err := CheckRateLimit(ctx, rdb, resource, "ip:"+c.IP(), limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(ctx, "rate limit store unavailable, failing closed",
					"resource", resource, "path", c.Path(), "error", err.Error())
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					&models.AppError{Code: models.CodeRateLimited, Message: "Rate limit unavailable", Err: err})
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(quota.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(quota.Remaining, 0)))
		if !quota.Allowed() {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(quota.Reset.Seconds()))))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: models.CodeRateLimited, Message: "Too many requests, please try again later."})
		}
		return c.Next()
	}
}
