package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces bucket keys in the shared store. Other components
// rely on this contract when inspecting or expiring rate state.
const keyPrefix = "rate:"

// consumeScript runs the whole refill-and-consume sequence atomically on
// the Redis server. Time comes from redis TIME so that concurrent service
// instances with skewed clocks still agree on refill progress.
//
// KEYS[1] bucket hash; ARGV: rate (tokens/sec), capacity, requested, ttl ms.
// Returns {allowed, tokens} with tokens serialized as a string to keep
// float precision across the Lua/Go boundary.
var consumeScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) + tonumber(t[2]) / 1000000

local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local requested = tonumber(ARGV[3])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

local elapsed = now - ts
if elapsed > 0 then
  tokens = math.min(capacity, tokens + elapsed * rate)
  ts = now
end

local allowed = 0
if tokens >= requested then
  allowed = 1
  if requested > 0 then
    tokens = tokens - requested
  end
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', tostring(ts))
redis.call('PEXPIRE', KEYS[1], ARGV[4])

return {allowed, tostring(tokens)}
`)

// RedisStore implements Store on a shared Redis so admission control stays
// consistent across service instances.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client; the caller owns its lifecycle.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (State, error) {
	// Keep idle buckets around twice as long as a full refill takes, with a
	// floor so very fast buckets still survive between requests.
	ttl := time.Duration(cfg.Capacity()/cfg.Rate*2) * time.Second
	if ttl < time.Minute {
		ttl = time.Minute
	}

	raw, err := consumeScript.Run(ctx, s.client, []string{keyPrefix + key},
		cfg.Rate, cfg.Capacity(), tokens, ttl.Milliseconds()).Result()
	if err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}

	reply, ok := raw.([]any)
	if !ok || len(reply) != 2 {
		return State{}, fmt.Errorf("%w: unexpected script reply %v", ErrStoreUnavailable, raw)
	}

	allowed, ok := reply[0].(int64)
	if !ok {
		return State{}, fmt.Errorf("%w: unexpected allowed flag %v", ErrStoreUnavailable, reply[0])
	}
	tokenStr, ok := reply[1].(string)
	if !ok {
		return State{}, fmt.Errorf("%w: unexpected token count %v", ErrStoreUnavailable, reply[1])
	}
	remaining, err := strconv.ParseFloat(tokenStr, 64)
	if err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}
	remaining = math.Max(0, remaining)

	now := time.Now()
	resetAt := now
	if deficit := cfg.Capacity() - remaining; deficit > 0 && cfg.Rate > 0 {
		resetAt = now.Add(time.Duration(deficit / cfg.Rate * float64(time.Second)))
	}

	return State{Allowed: allowed == 1, Remaining: remaining, ResetAt: resetAt}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
