package infra

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/pkg/bininfo"
	"ietool.dev/backend-next/internal/pkg/observability"
)

// TracerProvider builds the global tracer provider. It returns nil when
// tracing is disabled.
func TracerProvider(conf *appconfig.Config, lc fx.Lifecycle) (*tracesdk.TracerProvider, error) {
	if !conf.TracingEnabled {
		return nil, nil
	}

	opts := []tracesdk.TracerProviderOption{
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(conf.TracingSampleRate))),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(observability.ServiceName),
			semconv.ServiceVersionKey.String(bininfo.Version),
			attribute.Bool("dev_mode", conf.DevMode),
		)),
	}

	for _, name := range conf.TracingExporters {
		exporter, err := newSpanExporter(name)
		if err != nil {
			return nil, errors.Wrapf(err, "infra: tracing: failed to create %s exporter", name)
		}
		opts = append(opts, tracesdk.WithBatcher(exporter))
		log.Info().
			Str("evt.name", "infra.tracing.exporter").
			Str("exporter", name).
			Msg("tracing exporter enabled")
	}

	tp := tracesdk.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}

func newSpanExporter(name string) (tracesdk.SpanExporter, error) {
	switch name {
	case "jaeger":
		return jaeger.New(jaeger.WithCollectorEndpoint())
	case "otlp":
		return otlptrace.New(context.Background(), otlptracegrpc.NewClient())
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, errors.Errorf("unknown exporter %q", name)
	}
}
