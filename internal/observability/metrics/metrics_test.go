package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("to_status", "Invoiced"),
		attribute.String("job_id", "456"),
		attribute.String("direction", "out"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("to_status"), attrs[0].Key)
	assert.Equal(t, attribute.Key("direction"), attrs[1].Key)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordJobCreated(ctx, "Scheduled")
	m.RecordJobTransition(ctx, "Scheduled", "Assigned")
	m.RecordInvoiceIssued(ctx, 3000)
	m.RecordStockMovement(ctx, "out", 2)
	m.RecordInvoiceStatus(ctx, "Paid")
	m.RecordRateLimitAllowed(ctx, "/api/jobs")
	m.RecordRateLimitDenied(ctx, "/api/jobs", "rate")
	m.RecordLowStock(ctx, 3)
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordStockMovement(context.Background(), "in", 4)
	m.RecordInvoiceStatus(context.Background(), "Unpaid")
	m.RecordLowStock(context.Background(), 0)
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWithRegisterer(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/jobs/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/7", nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/jobs/:id", "204")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inflight))
}
