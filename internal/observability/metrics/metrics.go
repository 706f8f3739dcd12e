// Package metrics configures the otel meter provider and the domain
// instruments recorded by the order services.
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
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
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
	totalsRecomputed metric.Int64Counter
	itemMutations    metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
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

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
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

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "keiridesk"
	}
	meter := provider.Meter(name)

	totalsRecomputed, err := meter.Int64Counter("order_totals_recomputed_total",
		metric.WithDescription("Order totals recomputation passes"))
	if err != nil {
		return nil, err
	}
	itemMutations, err := meter.Int64Counter("order_item_mutations_total",
		metric.WithDescription("Line item create/update/delete operations"))
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("rate_limit_denied_total",
		metric.WithDescription("Requests rejected by the rate limiter"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		totalsRecomputed: totalsRecomputed,
		itemMutations:    itemMutations,
		rateLimitDenied:  rateLimitDenied,
	}, nil
}

// RecordTotalsRecomputed counts one totals recomputation pass.
func (m *Metrics) RecordTotalsRecomputed(ctx context.Context) {
	if m == nil || m.totalsRecomputed == nil {
		return
	}
	m.totalsRecomputed.Add(ctx, 1)
}

// RecordItemMutation counts one line-item mutation, labeled by operation.
func (m *Metrics) RecordItemMutation(ctx context.Context, op string) {
	if m == nil || m.itemMutations == nil {
		return
	}
	m.itemMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// RecordRateLimitDenied counts one denied request.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, route string) {
	if m == nil || m.rateLimitDenied == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter protocol %q", protocol)
	}
}
