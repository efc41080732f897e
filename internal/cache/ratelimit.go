package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitSubjectPrefix = "ratelimit:subject:"
	rateLimitSubjectTTL    = 120 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int64
	// ResetAt is when the bucket will be full again.
	ResetAt time.Time
	// RetryAfter is zero when Allowed, otherwise whole seconds until the
	// next token.
	RetryAfter time.Duration
}

// subjectBucketScript refills and takes one token atomically. Time is in
// milliseconds so per-minute rates refill smoothly.
//
// KEYS[1] bucket key
// ARGV    tokens per ms, capacity, now (ms), ttl (s)
// returns {allowed, ms until next token, tokens left, ms until full}
var subjectBucketScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now
if now > ts then
	tokens = math.min(capacity, tokens + (now - ts) * rate)
end

local allowed = 0
local wait = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	wait = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', now)
redis.call('EXPIRE', KEYS[1], ARGV[4])

return {allowed, wait, math.floor(tokens), math.ceil((capacity - tokens) / rate)}
`)

// CheckSubjectRateLimit takes one token from the bucket of an authenticated
// subject. The subject is hashed so raw identifiers never reach Redis keys.
// A zero ratePerMinute disables limiting. On a Redis error the result still
// allows the request and the error is returned for the caller to log.
func (c *Cache) CheckSubjectRateLimit(ctx context.Context, subject string, ratePerMinute, burst int) (*RateLimitResult, error) {
	now := time.Now()
	open := &RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: now}
	if ratePerMinute <= 0 {
		return open, nil
	}
	if burst < 1 {
		burst = 1
	}

	perMs := float64(ratePerMinute) / float64(time.Minute/time.Millisecond)
	res, err := subjectBucketScript.Run(ctx, c.client,
		[]string{redisKey(rateLimitSubjectPrefix, hashSubject(subject))},
		perMs, burst, now.UnixMilli(), int(rateLimitSubjectTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return open, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 4 {
		return open, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	result := &RateLimitResult{
		Allowed:   res[0] == 1,
		Remaining: res[2],
		ResetAt:   now.Add(time.Duration(res[3]) * time.Millisecond),
	}
	if !result.Allowed {
		result.RetryAfter = (time.Duration(res[1]) * time.Millisecond).Round(time.Second)
		if result.RetryAfter < time.Second {
			result.RetryAfter = time.Second
		}
	}
	return result, nil
}

// hashSubject returns a truncated SHA-256 of the subject.
func hashSubject(subject string) string {
	hash := sha256.Sum256([]byte(subject))
	return hex.EncodeToString(hash[:8])
}
