package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter implements distributed rate limiting using Redis sorted
// sets with a sliding window, so the limit holds across all server and
// sweeper instances. Each request is a member scored by its timestamp;
// the check-and-add is atomic via a Lua script.
type RedisRateLimiter struct {
	client   *redis.Client
	window   time.Duration
	limit    int
	fallback *MemoryRateLimiter
	logger   *slog.Logger
}

// RedisRateLimiterConfig holds configuration for the Redis rate limiter.
type RedisRateLimiterConfig struct {
	// Window is the sliding window size.
	Window time.Duration
	// Limit is the number of requests allowed per endpoint per window.
	Limit int
}

// DefaultRedisRateLimiterConfig returns sensible defaults.
func DefaultRedisRateLimiterConfig() RedisRateLimiterConfig {
	return RedisRateLimiterConfig{
		Window: time.Second,
		Limit:  10,
	}
}

// NewRedisRateLimiter creates a Redis-backed rate limiter.
// Falls back to in-memory limiting when Redis is unavailable.
func NewRedisRateLimiter(client *redis.Client, config RedisRateLimiterConfig, logger *slog.Logger) *RedisRateLimiter {
	if config.Window == 0 {
		config.Window = time.Second
	}
	if config.Limit == 0 {
		config.Limit = 10
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisRateLimiter{
		client:   client,
		window:   config.Window,
		limit:    config.Limit,
		fallback: NewMemoryRateLimiter(DefaultRateLimiterConfig()),
		logger:   logger,
	}
}

// rateLimitScript atomically trims the window, counts, and conditionally
// adds the new request. Returns 1 if allowed, 0 if rate limited.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('PEXPIRE', key, window)
    return 1
else
    return 0
end
`)

// Allow implements RateLimiter.
func (r *RedisRateLimiter) Allow(ctx context.Context, endpointID string) (bool, error) {
	key := fmt.Sprintf("minipm:ratelimit:%s", endpointID)
	now := time.Now().UnixMilli()
	member := fmt.Sprintf("%d:%d", now, time.Now().UnixNano()%1000000)

	result, err := rateLimitScript.Run(ctx, r.client, []string{key}, now, r.window.Milliseconds(), r.limit, member).Int()
	if err != nil {
		r.logger.Warn("redis rate limiter failed, using in-memory fallback",
			"error", err,
			"endpoint_id", endpointID,
		)
		return r.fallback.Allow(ctx, endpointID)
	}

	return result == 1, nil
}

// Close closes the Redis client connection.
func (r *RedisRateLimiter) Close() error {
	return r.client.Close()
}
