package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/storefront/internal/core/ports"
)

const (
	defaultLoginWindow = 15 * time.Minute
	limiterTimeout     = 250 * time.Millisecond
	loginKeyPrefix     = "storefront:login:"
)

var _ ports.LoginLimiter = (*LoginLimiter)(nil)

// counter is the subset of *redis.Client the limiter needs.
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LoginLimiter is a fixed-window attempt counter per login key.
// Key format: storefront:login:<normalized email>
type LoginLimiter struct {
	client      counter
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter allows maxAttempts logins per key within window.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	return newLoginLimiter(client, maxAttempts, window)
}

func newLoginLimiter(client counter, maxAttempts int, window time.Duration) *LoginLimiter {
	if window <= 0 {
		window = defaultLoginWindow
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Allow counts one attempt and reports whether it is within the limit. The
// window starts at the first attempt.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.maxAttempts <= 0 {
		return true, nil
	}
	ctx, cancel := context.WithTimeout(ctx, limiterTimeout)
	defer cancel()

	k := loginKeyPrefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("login limiter incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return true, fmt.Errorf("login limiter expire: %w", err)
		}
	}
	return n <= int64(l.maxAttempts), nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, limiterTimeout)
	defer cancel()
	if err := l.client.Del(ctx, loginKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("login limiter reset: %w", err)
	}
	return nil
}
