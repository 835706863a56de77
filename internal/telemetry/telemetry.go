// Package telemetry installs the OpenTelemetry trace pipeline.
package telemetry

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Shutdown flushes and stops the pipeline.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup exports traces over OTLP/gRPC to endpoint. With an empty endpoint, or
// when the exporter cannot be created, tracing stays disabled and the
// returned Shutdown does nothing.
func Setup(ctx context.Context, serviceName, endpoint string, insecure bool) Shutdown {
	if endpoint == "" {
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", endpoint).Msg("otel exporter error; tracing disabled")
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		log.Warn().Err(err).Msg("otel resource error")
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Debug().Str("endpoint", endpoint).Str("service", serviceName).Msg("tracing enabled")
	return provider.Shutdown
}
