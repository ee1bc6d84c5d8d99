package json

import (
	"context"
	"errors"
	"log/slog"
	"reflect"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/freekieb7/nanojson/json"

// Encoder wraps MarshalOptions with tracing, metrics and logging through the
// global OpenTelemetry providers. An Encoder is safe for concurrent use.
type Encoder struct {
	opts    Options
	tracer  trace.Tracer
	logger  *slog.Logger
	encodes metric.Int64Counter
	size    metric.Int64Histogram
}

func NewEncoder(opts Options) *Encoder {
	meter := otel.Meter(instrumentationName)

	encodes, err := meter.Int64Counter("nanojson.encodes",
		metric.WithDescription("The number of encode calls by outcome"),
		metric.WithUnit("{call}"))
	if err != nil {
		otel.Handle(err)
		encodes = noop.Int64Counter{}
	}

	size, err := meter.Int64Histogram("nanojson.output.size",
		metric.WithDescription("The size of the encoded JSON text"),
		metric.WithUnit("By"))
	if err != nil {
		otel.Handle(err)
		size = noop.Int64Histogram{}
	}

	return &Encoder{
		opts:    opts,
		tracer:  otel.Tracer(instrumentationName),
		logger:  otelslog.NewLogger(instrumentationName),
		encodes: encodes,
		size:    size,
	}
}

func (enc *Encoder) Options() Options {
	return enc.opts
}

// Encode returns the JSON text of v. The context only carries the trace; an
// encode that has started runs to completion.
func (enc *Encoder) Encode(ctx context.Context, v any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	typ := typeName(v)
	ctx, span := enc.tracer.Start(ctx, "json.Encode",
		trace.WithAttributes(attribute.String("json.type", typ)))
	defer span.End()

	b, err := MarshalOptions(v, enc.opts)
	outcome := attribute.String("outcome", Outcome(err))
	enc.encodes.Add(ctx, 1, metric.WithAttributes(outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		enc.logger.DebugContext(ctx, "encode failed", "error", err, "type", typ)
		return nil, err
	}

	enc.size.Record(ctx, int64(len(b)))
	span.SetAttributes(attribute.Int("json.size", len(b)))
	return b, nil
}

// Outcome names the class of an encode error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBufferOverflow):
		return "buffer_overflow"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrUnsupportedKeyType):
		return "unsupported_key_type"
	case errors.Is(err, ErrCyclicReference):
		return "cyclic_reference"
	case errors.Is(err, ErrDepthExceeded):
		return "depth_exceeded"
	case errors.Is(err, ErrInvalidRaw):
		return "invalid_raw"
	}
	return "error"
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
