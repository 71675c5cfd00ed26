package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/servicebay/internal/observability/context"
	"github.com/smallbiznis/servicebay/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, requestLevel("/health", http.StatusInternalServerError))
	assert.Equal(t, zapcore.ErrorLevel, requestLevel("/api/jobs", http.StatusInternalServerError))
	assert.Equal(t, zapcore.WarnLevel, requestLevel("/api/jobs/:id/complete", http.StatusConflict))
	assert.Equal(t, zapcore.WarnLevel, requestLevel("/api/parts", http.StatusTooManyRequests))
	assert.Equal(t, zapcore.InfoLevel, requestLevel("/api/parts", http.StatusBadRequest))
}

func TestWithContextOmitsMissingIDs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithContext(context.Background(), base).Info("bare")
	ctx := obscontext.WithOperator(obscontext.WithRequestID(context.Background(), "req-9"), "desk-4")
	ctx = correlation.WithID(ctx, "job-12")
	WithContext(ctx, base).Info("tagged")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].ContextMap())
	assert.Equal(t, map[string]interface{}{
		"request_id":     "req-9",
		"correlation_id": "job-12",
		"operator_id":    "desk-4",
	}, entries[1].ContextMap())
}

func TestGinMiddlewareLogsRecordTags(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.POST("/api/jobs/:id/complete", func(c *gin.Context) {
		c.Set(obscontext.KeyJobID, "31")
		c.Set(obscontext.KeyInvoiceID, "88")
		c.Status(http.StatusConflict)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/31/complete", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.NotEmpty(t, rec.Header().Get(correlation.HeaderName))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "31", fields[obscontext.KeyJobID])
	assert.Equal(t, "88", fields[obscontext.KeyInvoiceID])
	assert.Equal(t, "/api/jobs/:id/complete", fields["route"])
}
