package preview

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TraceProvider owns the tracer provider installed for --trace runs.
type TraceProvider struct {
	provider *sdktrace.TracerProvider
}

// StartTracing installs a tracer provider that pretty-prints spans to
// stdout and registers it globally, so the preview middleware's spans
// have somewhere to go. Call Shutdown before exit to flush pending
// spans.
func StartTracing(serviceName string) (*TraceProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("creating stdout exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return &TraceProvider{provider: provider}, nil
}

// Shutdown flushes pending spans and stops the provider.
func (p *TraceProvider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}
