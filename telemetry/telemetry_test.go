package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestSetup_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), Config{Disabled: true})
	require.NoError(t, err)
	assert.Same(t, before, otel.GetTracerProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_InstallsProviders(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=test")

	// Exporters connect lazily, nothing needs to listen here
	shutdown, err := Setup(context.Background(), Config{
		ServiceName:    "jsonify-test",
		ServiceVersion: "0.0.1",
		Endpoint:       "127.0.0.1:4317",
		Insecure:       true,
		MetricInterval: time.Hour,
	})
	require.NoError(t, err)

	tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok, "tracer provider %T", otel.GetTracerProvider())
	_, ok = global.GetLoggerProvider().(*sdklog.LoggerProvider)
	assert.True(t, ok, "logger provider %T", global.GetLoggerProvider())

	_, span := tp.Tracer("test").Start(context.Background(), "resource")
	ro, ok := span.(sdktrace.ReadOnlySpan)
	require.True(t, ok)
	attrs := ro.Resource().Attributes()
	assert.Contains(t, attrs, semconv.ServiceName("jsonify-test"))
	assert.Contains(t, attrs, attribute.String("deployment.environment", "test"))
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	// Flushing to the absent collector may fail, shutting down must not hang
	_ = shutdown(ctx)
}

func TestLogger(t *testing.T) {
	logger := Logger("github.com/freekieb7/nanojson/telemetry")
	require.NotNil(t, logger)
	logger.Info("hello")
}
