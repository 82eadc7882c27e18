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

// Metrics exposes application-level instruments.
type Metrics struct {
	bookingsCreated    metric.Int64Counter
	statusTransitions  metric.Int64Counter
	commissionsOpened  metric.Int64Counter
	commissionsSettled metric.Int64Counter
	commissionsOverdue metric.Int64Counter
	sideEffectFailures metric.Int64Counter
	rateLimitDenied    metric.Int64Counter
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
		name = "fixdesk"
	}
	meter := provider.Meter(name)

	bookingsCreated, err := meter.Int64Counter("fixdesk_bookings_created_total")
	if err != nil {
		return nil, err
	}
	statusTransitions, err := meter.Int64Counter("fixdesk_booking_status_transitions_total")
	if err != nil {
		return nil, err
	}
	commissionsOpened, err := meter.Int64Counter("fixdesk_commissions_opened_total")
	if err != nil {
		return nil, err
	}
	commissionsSettled, err := meter.Int64Counter("fixdesk_commissions_settled_total")
	if err != nil {
		return nil, err
	}
	commissionsOverdue, err := meter.Int64Counter("fixdesk_commissions_overdue_total")
	if err != nil {
		return nil, err
	}
	sideEffectFailures, err := meter.Int64Counter("fixdesk_side_effect_failures_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("fixdesk_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		bookingsCreated:    bookingsCreated,
		statusTransitions:  statusTransitions,
		commissionsOpened:  commissionsOpened,
		commissionsSettled: commissionsSettled,
		commissionsOverdue: commissionsOverdue,
		sideEffectFailures: sideEffectFailures,
		rateLimitDenied:    rateLimitDenied,
	}, nil
}

// RecordBookingCreated increments booking creation counts.
func (m *Metrics) RecordBookingCreated(ctx context.Context, locationType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("location_type", strings.TrimSpace(locationType)))
	m.bookingsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStatusTransition counts a persisted booking status change.
func (m *Metrics) RecordStatusTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from", strings.TrimSpace(from)),
		attribute.String("to", strings.TrimSpace(to)),
	)
	m.statusTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCommissionOpened increments ledger entry creation counts.
func (m *Metrics) RecordCommissionOpened(ctx context.Context, collectionMethod string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("collection_method", strings.TrimSpace(collectionMethod)))
	m.commissionsOpened.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCommissionSettled increments ledger settlement counts.
func (m *Metrics) RecordCommissionSettled(ctx context.Context, previousStatus string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("from", strings.TrimSpace(previousStatus)))
	m.commissionsSettled.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCommissionsOverdue adds the number of entries aged to overdue.
func (m *Metrics) RecordCommissionsOverdue(ctx context.Context, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.commissionsOverdue.Add(ctx, count)
}

// RecordSideEffectFailure counts a failed post-write task.
func (m *Metrics) RecordSideEffectFailure(ctx context.Context, task, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("task", strings.TrimSpace(task)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.sideEffectFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied counts a request rejected by a rate limiter.
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

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
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
	"location_type":     {},
	"from":              {},
	"to":                {},
	"collection_method": {},
	"task":              {},
	"reason":            {},
	"status_code":       {},
	"endpoint":          {},
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
