package json

import (
	"errors"
	"reflect"
	"strings"
)

var (
	ErrBufferOverflow     = errors.New("json: buffer overflow")
	ErrUnsupportedType    = errors.New("json: unsupported type")
	ErrUnsupportedKeyType = errors.New("json: unsupported map key type")
	ErrCyclicReference    = errors.New("json: cyclic reference")
	ErrDepthExceeded      = errors.New("json: maximum nesting depth exceeded")

	// ErrInvalidRaw is returned when a Marshaler produces text that is not
	// exactly one JSON value.
	ErrInvalidRaw = errors.New("json: marshaler returned invalid JSON")
)

// EncodeError reports where in the value graph an encode failed.
// It unwraps to one of the sentinel errors above.
type EncodeError struct {
	Err  error
	Type reflect.Type

	// path segments are collected innermost first while the error unwinds
	segments []string
}

func (e *EncodeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if e.Type != nil {
		sb.WriteString(" ")
		sb.WriteString(e.Type.String())
	}
	sb.WriteString(" at ")
	sb.WriteString(e.Path())
	return sb.String()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Path returns the location of the failing value, e.g. $.users[2].name
func (e *EncodeError) Path() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for i := len(e.segments) - 1; i >= 0; i-- {
		sb.WriteString(e.segments[i])
	}
	return sb.String()
}

func newEncodeError(err error, t reflect.Type) error {
	return &EncodeError{Err: err, Type: t}
}

// withSegment records that err happened below the given path segment.
func withSegment(err error, segment string) error {
	var ee *EncodeError
	if errors.As(err, &ee) {
		ee.segments = append(ee.segments, segment)
		return ee
	}
	return &EncodeError{Err: err, segments: []string{segment}}
}
