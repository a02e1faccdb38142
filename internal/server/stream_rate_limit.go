package server

import (
	"context"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/gridpulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/gridpulse/internal/observability/metrics"
	"github.com/smallbiznis/gridpulse/internal/ratelimit"
	"go.uber.org/zap"
)

const rateLimitReasonClientRate = "client-rate"

// StreamRateLimit admits observer connections through the per-client token
// bucket. A limiter outage fails open: observers are read-only.
func (s *Server) StreamRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.streamLimiter == nil || !s.streamLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)

		result, err := s.streamLimiter.AllowClient(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("stream rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			denyStreamRateLimit(c, endpoint, result, s.obsMetrics)
			return
		}

		recordRateLimitAllowed(ctx, endpoint, s.obsMetrics)
		c.Next()
	}
}

func denyStreamRateLimit(c *gin.Context, endpoint string, result *ratelimit.RateLimitResult, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("stream rate limit exceeded",
		zap.String("reason", rateLimitReasonClientRate),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, rateLimitReasonClientRate, metrics)

	retryAfter := 1
	if result != nil && result.RetryAfter > 0 {
		retryAfter = int(math.Ceil(result.RetryAfter.Seconds()))
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", rateLimitReasonClientRate)
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitAllowed(ctx context.Context, endpoint string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = c.Request.URL.Path
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
