package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sliding window over a sorted set scored by unix millis. Prune, count and
// add happen in one script so replicas never race between check and record.
const slidingWindowLuaScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)

local count = redis.call("ZCARD", key)
if count >= limit then
    local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
    local wait = window
    if oldest[2] then
        wait = tonumber(oldest[2]) + window - now
    end
    return {0, wait}
end

redis.call("ZADD", key, now, member)
redis.call("PEXPIRE", key, window)
return {1, 0}
`

// RedisWindow shares one sliding window across every instance pointed at the
// same Redis.
type RedisWindow struct {
	redis  *redis.Client
	script *redis.Script
	key    string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisWindow creates a shared limiter for the given platform key.
func NewRedisWindow(client *redis.Client, key string, limit int, window time.Duration) *RedisWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisWindow{
		redis:  client,
		script: redis.NewScript(slidingWindowLuaScript),
		key:    key,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (r *RedisWindow) redisKey() string {
	return "ratelimit:window:" + r.key
}

// Allow runs the sliding-window script. Redis errors are returned as-is; the
// caller decides whether to fail open.
func (r *RedisWindow) Allow(ctx context.Context) error {
	now := r.now().UnixMilli()
	member := strconv.FormatInt(now, 10) + ":" + uuid.NewString()

	res, err := r.script.Run(ctx, r.redis,
		[]string{r.redisKey()},
		now,
		r.window.Milliseconds(),
		r.limit,
		member,
	).Int64Slice()
	if err != nil {
		return fmt.Errorf("rate limit check failed: %w", err)
	}

	if res[0] == 1 {
		return nil
	}
	wait := time.Duration(res[1]) * time.Millisecond
	if wait <= 0 {
		wait = time.Millisecond
	}
	return &LimitError{Key: r.key, Limit: r.limit, RetryAfter: wait}
}

// InWindow returns the number of attempts currently counted.
func (r *RedisWindow) InWindow(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.window).UnixMilli()
	if err := r.redis.ZRemRangeByScore(ctx, r.redisKey(), "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return 0, err
	}
	return r.redis.ZCard(ctx, r.redisKey()).Result()
}
