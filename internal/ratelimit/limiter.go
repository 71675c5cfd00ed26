package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/servicebay/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyMutation = "servicebay:mutation:%s"

// MutationLimiter throttles write requests per client. A nil limiter
// allows everything.
type MutationLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewMutationLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*MutationLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled() {
		log.Info("mutation rate limit disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(limitCfg.RedisAddr),
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("rate limit redis unreachable", zap.String("addr", limitCfg.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return newMutationLimiter(client, limitCfg.Rate, limitCfg.Burst), nil
}

func newMutationLimiter(client redis.Scripter, rate float64, burst int) *MutationLimiter {
	return &MutationLimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}
}

// routeCosts charges the routes that write several tables more than a single
// row insert. Completion bills parts and labor and issues the invoice.
var routeCosts = map[string]int{
	"POST /api/jobs/:id/complete":      3,
	"PUT /api/jobs/:id/status":         2,
	"POST /api/jobs/:id/parts":         2,
	"DELETE /api/job-parts/:jobPartId": 2,
}

// Cost returns the token price of a mutating route.
func Cost(method, route string) int {
	if cost, ok := routeCosts[method+" "+route]; ok {
		return cost
	}
	return 1
}

// Allow charges the client's bucket for one call to route. Operators get a
// bucket of their own; anonymous callers share one per client IP.
func (l *MutationLimiter) Allow(ctx context.Context, client Client, method, route string) (*Result, error) {
	if l == nil {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Take(ctx, fmt.Sprintf(keyMutation, client.key()), l.rate, l.burst, Cost(method, route))
}

// Client identifies who is being limited.
type Client struct {
	Operator string
	IP       string
}

func (c Client) key() string {
	if op := strings.TrimSpace(c.Operator); op != "" {
		return "op:" + op
	}
	if ip := strings.TrimSpace(c.IP); ip != "" {
		return "ip:" + ip
	}
	return "anonymous"
}
