package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/debacu/evalgate/internal/config"
)

const keyLogin = "login:attempt:%s"

// Throttle credential guessing without locking out a shared office IP:
// a handful of attempts immediately, then one every two seconds.
const (
	loginRate  = 0.5
	loginBurst = 5
)

// LoginLimiter throttles login attempts per username. Disabled (nil)
// when no Redis address is configured; callers treat nil as allow-all.
type LoginLimiter struct {
	bucket *TokenBucket
}

func NewLoginLimiter(cfg config.Config) *LoginLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &LoginLimiter{bucket: NewTokenBucket(client)}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow reports whether another attempt for the username may proceed.
// Redis errors fail open so an outage does not take logins down.
func (l *LoginLimiter) Allow(ctx context.Context, username string) bool {
	if !l.Enabled() {
		return true
	}
	key := fmt.Sprintf(keyLogin, strings.ToLower(strings.TrimSpace(username)))
	allowed, err := l.bucket.Allow(ctx, key, loginRate, loginBurst)
	if err != nil {
		return true
	}
	return allowed
}
