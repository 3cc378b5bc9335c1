package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LaunchRateLimiter limita cuántas corridas de simulación puede lanzar un
// usuario por ventana de tiempo.
type LaunchRateLimiter interface {
	Allow(key string) bool
}

type launchRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewLaunchRateLimiter crea un rate limiter en memoria.
func NewLaunchRateLimiter(window time.Duration, max int) LaunchRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Hour
	}
	return &launchRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *launchRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}

const redisLaunchAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisLaunchRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewRedisLaunchRateLimiter(client *redis.Client, window time.Duration, max int) LaunchRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Hour
	}
	if max <= 0 {
		max = 1
	}
	return &redisLaunchRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "sim:rl:",
	}
}

func (l *redisLaunchRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	redisKey := l.prefix + normalizedKey
	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 3600
	}
	count, err := l.client.Eval(ctx, redisLaunchAllowScript, []string{redisKey}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
