// Package context carries request-scoped identifiers shared by the log and
// trace middleware.
package context

import (
	stdcontext "context"
	"strings"
)

// Gin keys handlers set so the request log line and span name the workshop
// records they touched.
const (
	KeyJobID      = "job_id"
	KeyInvoiceID  = "invoice_id"
	KeyPartID     = "part_id"
	KeyOperatorID = "operator_id"
)

// TagKeys lists the keys copied into logs and spans, in output order.
var TagKeys = []string{KeyOperatorID, KeyJobID, KeyInvoiceID, KeyPartID}

type requestIDKey struct{}
type operatorKey struct{}

func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	return withString(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	return stringFrom(ctx, requestIDKey{})
}

// WithOperator records the front-desk operator acting on the request.
func WithOperator(ctx stdcontext.Context, operatorID string) stdcontext.Context {
	return withString(ctx, operatorKey{}, operatorID)
}

func OperatorFromContext(ctx stdcontext.Context) string {
	return stringFrom(ctx, operatorKey{})
}

// Tags collects the non-empty TagKeys using lookup, typically gin.Context.GetString.
func Tags(lookup func(string) string) map[string]string {
	if lookup == nil {
		return nil
	}
	var out map[string]string
	for _, key := range TagKeys {
		value := strings.TrimSpace(lookup(key))
		if value == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(TagKeys))
		}
		out[key] = value
	}
	return out
}

func withString(ctx stdcontext.Context, key any, value string) stdcontext.Context {
	value = strings.TrimSpace(value)
	if ctx == nil || value == "" {
		return ctx
	}
	return stdcontext.WithValue(ctx, key, value)
}

func stringFrom(ctx stdcontext.Context, key any) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
