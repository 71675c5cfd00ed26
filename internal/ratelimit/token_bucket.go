package ratelimit

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var (
	errNotConfigured = errors.New("rate limiter not configured")
	errEmptyKey      = errors.New("rate limiter key is empty")
	errBadRate       = errors.New("rate limiter rate and burst must be positive")
	errBadReply      = errors.New("invalid rate limit script response")
)

// The bucket refills continuously at ARGV[1] tokens per second up to ARGV[2]
// and charges ARGV[4] tokens per call. Time comes from the redis server so
// several API replicas share one clock. Redis floors Lua numbers on return.
var takeScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])

local clock = redis.call("TIME")
local now = clock[1] * 1000 + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now
tokens = math.min(burst, tokens + math.max(0, now - last) / 1000 * rate)

local allowed = 0
if tokens >= cost then
  allowed = 1
  tokens = tokens - cost
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)
return {allowed, tokens, now}
`)

// TokenBucket is a redis backed bucket keyed per client.
type TokenBucket struct {
	client redis.Scripter
}

// Result reports the outcome of one Take.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

func NewTokenBucket(client redis.Scripter) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client}
}

// Take charges cost tokens from the bucket at key. Costs above burst are
// clamped so an expensive call can still succeed on a full bucket.
func (t *TokenBucket) Take(ctx context.Context, key string, rate float64, burst, cost int) (*Result, error) {
	switch {
	case t == nil || t.client == nil:
		return &Result{}, errNotConfigured
	case key == "":
		return &Result{}, errEmptyKey
	case rate <= 0 || burst <= 0:
		return &Result{}, errBadRate
	}
	cost = clampCost(cost, burst)

	ttl := bucketTTL(rate, burst)
	reply, err := takeScript.Run(ctx, t.client, []string{key}, rate, burst, ttl.Milliseconds(), cost).Slice()
	if err != nil {
		return &Result{}, err
	}
	if len(reply) < 3 {
		return &Result{}, errBadReply
	}
	return buildResult(reply, rate, burst, cost), nil
}

func clampCost(cost, burst int) int {
	if cost < 1 {
		return 1
	}
	if cost > burst {
		return burst
	}
	return cost
}

func buildResult(reply []interface{}, rate float64, burst, cost int) *Result {
	res := &Result{
		Allowed:   number(reply[0]) == 1,
		Limit:     burst,
		Remaining: int(number(reply[1])),
	}
	now := time.UnixMilli(int64(number(reply[2])))
	if !res.Allowed {
		if missing := float64(cost) - number(reply[1]); missing > 0 {
			res.RetryAfter = time.Duration(missing / rate * float64(time.Second))
		}
	}
	res.ResetTime = now.Add(res.RetryAfter)
	return res
}

// bucketTTL keeps idle buckets for twice the time a full refill takes.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(2*float64(burst)/rate))
	return time.Duration(seconds) * time.Second
}

func number(v interface{}) float64 {
	switch val := v.(type) {
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case float64:
		return val
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
