// Package ratelimit throttles repeated login attempts per email address.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "tourdesk:login:"

// fixedWindow counts attempts in KEYS[1] and starts the window on the first hit.
var fixedWindow = redis.NewScript(`
    local count = redis.call('INCR', KEYS[1])
    if count == 1 then
        redis.call('PEXPIRE', KEYS[1], ARGV[1])
    end
    return count
`)

// LoginLimiter is a fixed-window counter kept in redis. A nil client or any
// redis failure lets the attempt through.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginLimiter builds a limiter. Passing a nil client disables it.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration, logger *zap.Logger) *LoginLimiter {
	return &LoginLimiter{
		client:      client,
		maxAttempts: int64(maxAttempts),
		window:      window,
		logger:      logger,
	}
}

// Allow records one attempt for email and reports whether it is within budget.
func (l *LoginLimiter) Allow(ctx context.Context, email string) bool {
	if l == nil || l.client == nil || l.maxAttempts <= 0 {
		return true
	}
	count, err := fixedWindow.Run(ctx, l.client, []string{Key(email)}, l.window.Milliseconds()).Int64()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return true
	}
	return count <= l.maxAttempts
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) {
	if l == nil || l.client == nil {
		return
	}
	if err := l.client.Del(ctx, Key(email)).Err(); err != nil {
		l.logger.Warn("login limiter reset failed", zap.Error(err))
	}
}

// Key returns the redis key for an email address.
func Key(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}
