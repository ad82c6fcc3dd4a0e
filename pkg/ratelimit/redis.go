package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sliding log in a sorted set scored by hit time in milliseconds.
// KEYS[1] = log key
// ARGV[1] = now (ms), ARGV[2] = window (ms), ARGV[3] = limit, ARGV[4] = unique member
// Returns: [allowed (0/1), count, reset_at (ms)]
const slidingWindowLuaScript = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
local allowed = 0
if count < limit then
    redis.call('ZADD', KEYS[1], now, ARGV[4])
    count = count + 1
    allowed = 1
end
redis.call('PEXPIRE', KEYS[1], window)
local reset = now + window
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if oldest[2] then
    reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`

var slidingWindowScript = redis.NewScript(slidingWindowLuaScript)

// RedisStore shares hit logs between processes through Redis.
type RedisStore struct {
	client redis.Scripter
	now    func() time.Time
}

// NewRedisStore uses client for all hits. The client is owned by the caller.
func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := s.now()
	result, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}
	return parseScriptResult(result, limit)
}

func parseScriptResult(result interface{}, limit int) (Decision, error) {
	arr, ok := result.([]interface{})
	if !ok || len(arr) < 3 {
		return Decision{}, fmt.Errorf("unexpected redis result format: %T", result)
	}

	allowed, ok1 := arr[0].(int64)
	count, ok2 := arr[1].(int64)
	resetMs, ok3 := arr[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return Decision{}, fmt.Errorf("unexpected redis result values: %v", arr)
	}

	return Decision{
		Allowed:   allowed == 1,
		Limit:     limit,
		Count:     int(count),
		Remaining: remaining(limit, int(count)),
		ResetAt:   time.UnixMilli(resetMs),
	}, nil
}

// Close is a no-op; the Redis client is closed by its owner.
func (s *RedisStore) Close() error {
	return nil
}
