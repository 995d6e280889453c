package tracing

import (
	"context"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/settings"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InitTracer installs an OTLP/HTTP exporter as the global tracer provider. Without tracing_enabled the
// global no-op provider stays in place and the returned shutdown func does nothing.
func InitTracer(ctx context.Context, serviceName string, tSettings *settings.Settings) (func(context.Context) error, error) {
	if !tSettings.Tracing.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(tSettings.Tracing.CollectorURL))
	if err != nil {
		return nil, errors.NewConfigurationError("cannot create trace exporter for %s", tSettings.Tracing.CollectorURL, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tSettings.Tracing.SampleRate))),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("network", tSettings.Network),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
