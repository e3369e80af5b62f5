package ratelimit

import (
	"context"
	"testing"

	"github.com/debacu/evalgate/internal/config"
)

func TestNewLoginLimiterDisabledWithoutRedis(t *testing.T) {
	limiter := NewLoginLimiter(config.Config{})
	if limiter != nil {
		t.Fatal("expected nil limiter when no redis address is configured")
	}
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var limiter *LoginLimiter

	if limiter.Enabled() {
		t.Fatal("nil limiter must report disabled")
	}
	if !limiter.Allow(context.Background(), "alice") {
		t.Fatal("nil limiter must allow the attempt")
	}
}
