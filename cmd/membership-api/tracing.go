// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/commercekit/membership-service/internal/config"
	"github.com/commercekit/membership-service/pkg/constants"
)

// setupTracing configures the OpenTelemetry trace provider with an OTLP HTTP
// exporter. The exporter endpoint comes from the standard OTEL_EXPORTER_*
// environment variables. When tracing is disabled the returned shutdown
// function is a no-op.
func setupTracing(ctx context.Context, cfg config.Config) (func(), error) {
	if !cfg.Tracing.Enabled {
		return func() {}, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", constants.ServiceName),
		)),
	)
	otel.SetTracerProvider(provider)

	slog.InfoContext(ctx, "tracing enabled")

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "failed to shut down trace provider", "error", err)
		}
	}, nil
}
