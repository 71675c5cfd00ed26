// Package correlation threads a correlation id through requests that touch the
// same piece of shop work, so log lines and spans for one job can be joined.
package correlation

import (
	"context"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	HeaderName = "X-Correlation-Id"

	maxLength = 64
)

type key struct{}

type value struct {
	id     string
	minted bool
}

// FromContext returns the correlation id, or "" when none is set.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key{}).(value); ok {
		return v.id
	}
	return ""
}

// WithID stores a caller supplied id. Ids that are empty, too long or carry
// characters outside [A-Za-z0-9._:-] are ignored.
func WithID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if !valid(id) {
		return ctx
	}
	return context.WithValue(ctx, key{}, value{id: id})
}

// Ensure mints a ULID when the context carries no id yet.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := ulid.Make().String()
	return context.WithValue(ctx, key{}, value{id: id, minted: true}), id
}

// ForJob is the correlation id shared by every request acting on one job.
func ForJob(jobID int64) string {
	return "job-" + strconv.FormatInt(jobID, 10)
}

// Adopt swaps a minted id for id. Caller supplied ids always win.
func Adopt(ctx context.Context, id string) (context.Context, bool) {
	current, ok := ctx.Value(key{}).(value)
	if ok && !current.minted {
		return ctx, false
	}
	if !valid(id) {
		return ctx, false
	}
	return context.WithValue(ctx, key{}, value{id: id, minted: true}), true
}

func valid(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
