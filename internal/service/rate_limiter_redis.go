package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ventana fija: el primer hit fija la expiracion; devuelve {conteo, pttl}.
const redisWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`

const redisLimitTimeout = 500 * time.Millisecond

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

// NewRedisRateLimiter comparte el conteo entre instancias de la API. scope
// separa los contadores ("submit", "admin-login").
func NewRedisRateLimiter(client *redis.Client, scope string, window time.Duration, max int) RateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "bigfive:rl:" + scope + ":",
	}
}

// Allow falla abierto si redis no responde.
func (l *redisRateLimiter) Allow(ctx context.Context, key string) Decision {
	if l == nil || l.client == nil {
		return Decision{Allowed: true}
	}
	key = normalizeLimitKey(key)
	if key == "" {
		return Decision{RetryAfter: l.window}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, redisLimitTimeout)
	defer cancel()

	res, err := l.client.Eval(ctx, redisWindowScript, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		return Decision{Allowed: true}
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if count > l.max {
		if ttl <= 0 {
			ttl = l.window
		}
		return Decision{RetryAfter: ttl}
	}
	return Decision{Allowed: true, Remaining: l.max - count}
}
