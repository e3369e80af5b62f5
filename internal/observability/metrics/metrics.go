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
	logins           metric.Int64Counter
	sessionsRevoked  metric.Int64Counter
	accessRequests   metric.Int64Counter
	planChanges      metric.Int64Counter
	sweepTransitions metric.Int64Counter
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
		name = "evalgate"
	}
	meter := provider.Meter(name)

	logins, err := meter.Int64Counter("evalgate_logins_total")
	if err != nil {
		return nil, err
	}
	sessionsRevoked, err := meter.Int64Counter("evalgate_sessions_revoked_total")
	if err != nil {
		return nil, err
	}
	accessRequests, err := meter.Int64Counter("evalgate_access_requests_total")
	if err != nil {
		return nil, err
	}
	planChanges, err := meter.Int64Counter("evalgate_plan_changes_total")
	if err != nil {
		return nil, err
	}
	sweepTransitions, err := meter.Int64Counter("evalgate_sweep_transitions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		logins:           logins,
		sessionsRevoked:  sessionsRevoked,
		accessRequests:   accessRequests,
		planChanges:      planChanges,
		sweepTransitions: sweepTransitions,
	}, nil
}

// RecordLogin increments login counts by outcome.
func (m *Metrics) RecordLogin(ctx context.Context, outcome string, isAdmin bool) {
	if m == nil {
		return
	}
	admin := "false"
	if isAdmin {
		admin = "true"
	}
	attrs := FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
		attribute.String("is_admin", admin),
	)
	m.logins.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSessionRevoked increments revoked-session counts.
func (m *Metrics) RecordSessionRevoked(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.sessionsRevoked.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAccessRequest increments access-request submissions by outcome.
func (m *Metrics) RecordAccessRequest(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.accessRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPlanChange increments plan-change requests by target plan.
func (m *Metrics) RecordPlanChange(ctx context.Context, planCode string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("plan_code", strings.TrimSpace(planCode)))
	m.planChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSweepTransition increments lifecycle transitions by from/to status.
func (m *Metrics) RecordSweepTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", strings.TrimSpace(from)),
		attribute.String("to_status", strings.TrimSpace(to)),
	)
	m.sweepTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
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
	"outcome":     {},
	"is_admin":    {},
	"reason":      {},
	"plan_code":   {},
	"from_status": {},
	"to_status":   {},
	"endpoint":    {},
	"status_code": {},
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
