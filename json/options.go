package json

import (
	"time"

	"github.com/freekieb7/nanojson/datetime"
)

// DefaultMaxDepth applies when Options.MaxDepth is zero.
const DefaultMaxDepth = 1000

// Options configures a single Serialize call. The zero value is usable and
// equivalent to DefaultOptions().
type Options struct {
	// DateFormat selects how time.Time values are rendered.
	DateFormat datetime.Format

	// FormatTime overrides DateFormat. The result is quoted and escaped like
	// any other string.
	FormatTime func(time.Time) string

	// MaxDepth caps container nesting. Zero means DefaultMaxDepth, a negative
	// value disables the check (cycles are still detected).
	MaxDepth int

	// Capacity bounds the output size in bytes. Zero means unbounded.
	Capacity int

	// SortMapKeys sorts the keys of native Go maps. Ordered maps and Ranger
	// values always keep their own order.
	SortMapKeys bool

	// Introspector lists the members of composite values. Nil means
	// DefaultIntrospector.
	Introspector Introspector
}

func DefaultOptions() Options {
	return Options{
		DateFormat: datetime.Default,
		MaxDepth:   DefaultMaxDepth,
	}
}

func (o Options) maxDepth() int {
	if o.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

func (o Options) introspector() Introspector {
	if o.Introspector == nil {
		return DefaultIntrospector
	}
	return o.Introspector
}
