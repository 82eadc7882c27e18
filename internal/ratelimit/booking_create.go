package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/fixdesk/internal/config"
)

const keyBookingCreate = "booking:create:actor:%s"

// BookingCreateLimiter throttles booking submissions per actor.
type BookingCreateLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewBookingCreateLimiter(cfg config.Config, client redis.UniversalClient) (*BookingCreateLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("booking rate limit requires redis")
	}
	if limitCfg.BookingCreateRate <= 0 || limitCfg.BookingCreateBurst <= 0 {
		return nil, errors.New("booking create rate limit must be positive")
	}

	return &BookingCreateLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.BookingCreateRate,
		burst:   limitCfg.BookingCreateBurst,
	}, nil
}

func (l *BookingCreateLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *BookingCreateLimiter) Allow(ctx context.Context, actorID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyBookingCreate, strings.TrimSpace(actorID)), l.rate, l.burst)
}
