package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/gridpulse/internal/config"
)

const keyStreamClient = "gridpulse:stream:client:%s"

// StreamLimiter admits observer connections per client address.
type StreamLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewStreamLimiter returns nil when rate limiting is disabled.
func NewStreamLimiter(cfg config.Config, client *redis.Client) (*StreamLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit redis client is required")
	}
	if limitCfg.StreamRate <= 0 || limitCfg.StreamBurst <= 0 {
		return nil, ErrInvalidRate
	}
	return &StreamLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.StreamRate,
		burst:  limitCfg.StreamBurst,
	}, nil
}

func (l *StreamLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *StreamLimiter) AllowClient(ctx context.Context, clientIP string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyStreamClient, strings.TrimSpace(clientIP))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
