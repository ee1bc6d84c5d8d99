// Package datetime renders time values in the textual forms JSON consumers
// commonly expect. There is no standard for dates in JSON, so the producer and
// consumer have to agree on one of the formats below.
package datetime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Format uint8

const (
	// Default is ISO8601.
	Default Format = iota
	ISO8601
	// Ajax is the ASP.NET AJAX form \/Date(<unix milliseconds>)\/.
	Ajax
)

// ISO8601Layout always renders UTC with up to seven fractional digits.
const ISO8601Layout = "2006-01-02T15:04:05.9999999Z"

var ErrUnknownFormat = errors.New("datetime: unknown format")

func (f Format) String() string {
	switch f {
	case Default:
		return "default"
	case ISO8601:
		return "iso8601"
	case Ajax:
		return "ajax"
	}
	return "format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat accepts the names returned by Format.String, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return Default, nil
	case "iso8601", "iso-8601":
		return ISO8601, nil
	case "ajax":
		return Ajax, nil
	}
	return Default, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Canonicalize returns t in format f. The result is a JSON string body: it
// needs quoting but no further escaping.
func Canonicalize(t time.Time, f Format) string {
	return string(AppendCanonical(nil, t, f))
}

// AppendCanonical appends the canonical form of t to dst.
func AppendCanonical(dst []byte, t time.Time, f Format) []byte {
	switch f {
	case Ajax:
		dst = append(dst, `\/Date(`...)
		dst = strconv.AppendInt(dst, t.UnixMilli(), 10)
		return append(dst, `)\/`...)
	default:
		return t.UTC().AppendFormat(dst, ISO8601Layout)
	}
}
