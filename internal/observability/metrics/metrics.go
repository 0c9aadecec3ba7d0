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
	calculations     metric.Int64Counter
	tierValidations  metric.Int64Counter
	repayments       metric.Int64Counter
	versionConflicts metric.Int64Counter
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
		name = "vendorcredit"
	}
	meter := provider.Meter(name)

	calculations, err := meter.Int64Counter("vendorcredit_repayment_calculations_total")
	if err != nil {
		return nil, err
	}
	tierValidations, err := meter.Int64Counter("vendorcredit_tier_validations_total")
	if err != nil {
		return nil, err
	}
	repayments, err := meter.Int64Counter("vendorcredit_repayments_total")
	if err != nil {
		return nil, err
	}
	versionConflicts, err := meter.Int64Counter("vendorcredit_history_version_conflicts_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		calculations:     calculations,
		tierValidations:  tierValidations,
		repayments:       repayments,
		versionConflicts: versionConflicts,
	}, nil
}

// RecordCalculation counts a repayment calculation by applied tier type.
func (m *Metrics) RecordCalculation(ctx context.Context, tierType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("tier_type", strings.TrimSpace(tierType)))
	m.calculations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTierValidation counts tier candidate validations by outcome.
func (m *Metrics) RecordTierValidation(ctx context.Context, kind string, valid bool) {
	if m == nil {
		return
	}
	result := "valid"
	if !valid {
		result = "invalid"
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("result", result),
	)
	m.tierValidations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRepayment(ctx context.Context, tierType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("tier_type", strings.TrimSpace(tierType)))
	m.repayments.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordVersionConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.versionConflicts.Add(ctx, 1)
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
	"tier_type": {},
	"kind":      {},
	"result":    {},
	"endpoint":  {},
	"reason":    {},
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
