package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes shop-level instruments.
type Metrics struct {
	jobsCreated      metric.Int64Counter
	jobTransitions   metric.Int64Counter
	invoicesIssued   metric.Int64Counter
	invoiceAmount    metric.Float64Histogram
	invoiceStatus    metric.Int64Counter
	stockMovements   metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	lowStockParts    metric.Int64Gauge
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "servicebay"
	}
	b := &builder{meter: provider.Meter(name)}

	m := &Metrics{
		jobsCreated:      b.counter("servicebay_jobs_created_total", "Service jobs opened, by initial status.", "{job}"),
		jobTransitions:   b.counter("servicebay_job_transitions_total", "Job status changes.", "{transition}"),
		invoicesIssued:   b.counter("servicebay_invoices_issued_total", "Invoices issued on job completion.", "{invoice}"),
		invoiceStatus:    b.counter("servicebay_invoice_status_changes_total", "Invoice payment status changes, by target status.", "{change}"),
		stockMovements:   b.counter("servicebay_stock_movements_total", "Part units taken from or returned to stock.", "{unit}"),
		rateLimitAllowed: b.counter("servicebay_rate_limit_allowed_total", "Mutations admitted by the rate limiter.", "{request}"),
		rateLimitDenied:  b.counter("servicebay_rate_limit_denied_total", "Mutations rejected by the rate limiter.", "{request}"),
	}
	if b.err != nil {
		return nil, b.err
	}

	var err error
	m.invoiceAmount, err = b.meter.Float64Histogram("servicebay_invoice_amount",
		metric.WithDescription("Invoice totals in major currency units."))
	if err != nil {
		return nil, err
	}
	m.lowStockParts, err = b.meter.Int64Gauge("servicebay_low_stock_parts",
		metric.WithDescription("Catalog parts at or below the alert threshold."), metric.WithUnit("{part}"))
	if err != nil {
		return nil, err
	}
	return m, nil
}

type builder struct {
	meter metric.Meter
	err   error
}

func (b *builder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("metric %s: %w", name, err)
	}
	return c
}

func (m *Metrics) RecordJobCreated(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("to_status", strings.TrimSpace(status)))
	m.jobsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordJobTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", strings.TrimSpace(from)),
		attribute.String("to_status", strings.TrimSpace(to)),
	)
	m.jobTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInvoiceIssued counts an issued invoice and observes its amount in major units.
func (m *Metrics) RecordInvoiceIssued(ctx context.Context, amount float64) {
	if m == nil {
		return
	}
	m.invoicesIssued.Add(ctx, 1)
	m.invoiceAmount.Record(ctx, amount)
}

// RecordStockMovement counts ledger stock changes. Direction is "out" or "in".
func (m *Metrics) RecordStockMovement(ctx context.Context, direction string, quantity int64) {
	if m == nil || quantity <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("direction", strings.TrimSpace(direction)))
	m.stockMovements.Add(ctx, quantity, metric.WithAttributes(attrs...))
}

// RecordInvoiceStatus counts a payment status change such as Unpaid to Paid.
func (m *Metrics) RecordInvoiceStatus(ctx context.Context, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("to_status", strings.TrimSpace(to)))
	m.invoiceStatus.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLowStock reports how many catalog parts sit at or below the alert threshold.
func (m *Metrics) RecordLowStock(ctx context.Context, count int64) {
	if m == nil {
		return
	}
	m.lowStockParts.Record(ctx, count)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":    {},
	"status_code": {},
	"from_status": {},
	"to_status":   {},
	"direction":   {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
