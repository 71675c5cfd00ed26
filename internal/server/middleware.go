package server

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/servicebay/internal/auditcontext"
	obscontext "github.com/smallbiznis/servicebay/internal/observability/context"
	"github.com/smallbiznis/servicebay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/servicebay/internal/observability/metrics"
	"github.com/smallbiznis/servicebay/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	HeaderOperator = "X-Operator-ID"

	rateLimitReasonClientRate = "client-rate"
)

// OperatorContext tags audit entries with the front-desk operator, when the
// client sends one.
func OperatorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if operator := strings.TrimSpace(c.GetHeader(HeaderOperator)); operator != "" {
			ctx := auditcontext.WithActor(c.Request.Context(), "operator", operator)
			ctx = obscontext.WithOperator(ctx, operator)
			c.Request = c.Request.WithContext(ctx)
			c.Set(obscontext.KeyOperatorID, operator)
		}
		c.Next()
	}
}

// MutationRateLimit throttles writes per operator, falling back to client IP.
// Reads pass through.
func (s *Server) MutationRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !isMutation(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)

		client := ratelimit.Client{Operator: obscontext.OperatorFromContext(ctx), IP: c.ClientIP()}
		res, err := s.limiter.Allow(ctx, client, c.Request.Method, endpoint)
		if err != nil {
			logger.FromContext(ctx).Warn("mutation rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !res.Allowed {
			denyRateLimit(c, endpoint, res, s.obsMetrics)
			return
		}

		recordRateLimitAllowed(ctx, endpoint, s.obsMetrics)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Next()
	}
}

func denyRateLimit(c *gin.Context, endpoint string, res *ratelimit.Result, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("mutation rate limit exceeded",
		zap.String("reason", rateLimitReasonClientRate),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, rateLimitReasonClientRate, metrics)

	c.Header("Retry-After", retryAfterSeconds(res))
	c.Header("X-Rate-Limited-Reason", rateLimitReasonClientRate)
	AbortWithError(c, ErrRateLimited)
}

func retryAfterSeconds(res *ratelimit.Result) string {
	if res == nil || res.RetryAfter <= 0 {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds())))
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

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
