// Package telemetry exports the spans of ledger calls over OTLP/HTTP.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/luca-patrignani/rpsx/config"
)

// Shutdown flushes buffered spans and stops the exporter.
type Shutdown func(context.Context) error

// Setup installs the global tracer provider described by cfg. Without an
// OTLP endpoint nothing is installed and the ledger spans stay no-ops.
//
// Export failures are logged to logger instead of stderr, which the
// interactive prompt owns.
func Setup(ctx context.Context, cfg config.Config, logger *slog.Logger) (Shutdown, error) {
	noop := func(context.Context) error { return nil }

	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	if endpoint == "" {
		return noop, nil
	}
	if r := cfg.TraceSampleRatio; r < 0 || r > 1 {
		return noop, fmt.Errorf("trace sample ratio must be within [0, 1], got %v", r)
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, fmt.Errorf("create otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(attributes(cfg)...))
	if err != nil {
		return noop, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TraceSampleRatio))),
	)
	otel.SetTracerProvider(tp)
	if logger != nil {
		otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
			logger.Warn("trace export failed", "error", err)
		}))
	}
	return tp.Shutdown, nil
}

// attributes describe the client: which contract it plays on and through
// which node. Credentials in the RPC URL are left out.
func attributes(cfg config.Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	if common.IsHexAddress(cfg.ContractAddress) {
		attrs = append(attrs, attribute.String("rpsx.contract", common.HexToAddress(cfg.ContractAddress).Hex()))
	}
	if u, err := url.Parse(cfg.RPCURL); err == nil && u.Host != "" {
		attrs = append(attrs, attribute.String("rpsx.node", u.Scheme+"://"+u.Host))
	}
	return attrs
}
