// Package ratelimit guards mutation endpoints with a redis token bucket.
package ratelimit

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local nowData = redis.call("TIME")
local now = (nowData[1] * 1000) + math.floor(nowData[2] / 1000)

local data = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])

if tokens == nil then
  tokens = burst
  ts = now
else
  local delta = now - ts
  if delta < 0 then
    delta = 0
  end
  local refill = (delta / 1000) * rate
  tokens = math.min(burst, tokens + refill)
  ts = now
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HMSET", KEYS[1], "tokens", tokens, "ts", ts)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tokens, ts}
`

type TokenBucket struct {
	client *redis.Client
	script *redis.Script
	rate   int
	burst  int
}

func NewTokenBucket(client *redis.Client, rate, burst int) *TokenBucket {
	if client == nil {
		return nil
	}
	if rate <= 0 {
		rate = 20
	}
	if burst <= 0 {
		burst = rate * 2
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
		rate:   rate,
		burst:  burst,
	}
}

// Allow consumes one token for key. A nil bucket or a redis failure allows
// the request: limiting is protective, not load-bearing.
func (b *TokenBucket) Allow(ctx context.Context, key string) bool {
	if b == nil || b.client == nil {
		return true
	}

	ttl := int64(2 * float64(b.burst) / float64(b.rate) * 1000)
	if ttl < 1000 {
		ttl = 1000
	}

	result, err := b.script.Run(ctx, b.client, []string{"ratelimit:" + key}, b.rate, b.burst, ttl).Result()
	if err != nil {
		return true
	}

	values, ok := result.([]interface{})
	if !ok || len(values) < 1 {
		return true
	}
	allowed, ok := values[0].(int64)
	if !ok {
		return true
	}
	return allowed == 1
}

// WaitTime suggests how long a denied caller should back off.
func (b *TokenBucket) WaitTime() time.Duration {
	if b == nil || b.rate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(b.rate)
}
