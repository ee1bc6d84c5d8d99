package json

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installTestProviders(t *testing.T) (*sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
		_ = tp.Shutdown(context.Background())
	})
	return reader, recorder
}

func encodeCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "nanojson.encodes" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "unexpected data type %T", m.Data)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				counts[outcome.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestEncoder_Encode(t *testing.T) {
	reader, recorder := installTestProviders(t)
	enc := NewEncoder(DefaultOptions())

	out, err := enc.Encode(context.Background(), map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(out))

	_, err = enc.Encode(context.Background(), make(chan int))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	assert.Equal(t, map[string]int64{"ok": 1, "unsupported_type": 1}, encodeCounts(t, reader))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "json.Encode", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("json.type", "map[string]int"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("json.size", 7))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestEncoder_CanceledContext(t *testing.T) {
	enc := NewEncoder(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := enc.Encode(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestEncoder_Options(t *testing.T) {
	opts := Options{MaxDepth: 3, SortMapKeys: true}
	assert.Equal(t, opts.MaxDepth, NewEncoder(opts).Options().MaxDepth)
	assert.True(t, NewEncoder(opts).Options().SortMapKeys)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&EncodeError{Err: ErrBufferOverflow}, "buffer_overflow"},
		{&EncodeError{Err: ErrUnsupportedType}, "unsupported_type"},
		{&EncodeError{Err: ErrUnsupportedKeyType}, "unsupported_key_type"},
		{&EncodeError{Err: ErrCyclicReference}, "cyclic_reference"},
		{fmt.Errorf("wrapped: %w", &EncodeError{Err: ErrDepthExceeded}), "depth_exceeded"},
		{&EncodeError{Err: ErrInvalidRaw}, "invalid_raw"},
		{errors.New("other"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}
