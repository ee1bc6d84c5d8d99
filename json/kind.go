package json

import (
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the encoding branch chosen for a value.
type Kind uint8

const (
	KindUnsupported Kind = iota
	KindNull
	KindBool
	KindString
	KindInt
	KindFloat
	KindTime
	KindSequence
	KindMap
	KindComposite
	// KindRaw is a Marshaler writing its own JSON
	KindRaw

	// kindPointer is a non-nil pointer without a capability of its own; the
	// dispatcher follows it
	kindPointer
)

var kindNames = [...]string{
	KindUnsupported: "unsupported",
	KindNull:        "null",
	KindBool:        "bool",
	KindString:      "string",
	KindInt:         "int",
	KindFloat:       "float",
	KindTime:        "time",
	KindSequence:    "sequence",
	KindMap:         "map",
	KindComposite:   "composite",
	KindRaw:         "raw",
	kindPointer:     "pointer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(?)"
}

var (
	kindCache sync.Map // map[reflect.Type]Kind

	marshalerType = reflect.TypeFor[Marshaler]()
	rangerType    = reflect.TypeFor[Ranger]()
	iterableType  = reflect.TypeFor[Iterable]()

	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
	uuidType     = reflect.TypeFor[uuid.UUID]()
	bigIntType   = reflect.TypeFor[big.Int]()
	bigFloatType = reflect.TypeFor[big.Float]()
	numberType   = reflect.TypeFor[Number]()
	entryType    = reflect.TypeFor[Entry]()

	orderedMapType = reflect.TypeFor[*OrderedMap]()
)

// Exact types are matched by identity before any kind or capability check
var exactKinds = map[reflect.Type]Kind{
	timeType:                        KindTime,
	durationType:                    KindString,
	uuidType:                        KindString,
	bigIntType:                      KindInt,
	reflect.PointerTo(bigIntType):   KindInt,
	bigFloatType:                    KindFloat,
	reflect.PointerTo(bigFloatType): KindFloat,
	numberType:                      KindFloat,
	entryType:                       KindMap,
}

// KindOf classifies v. Nil pointers, maps, slices and interfaces are KindNull.
func KindOf(v any) Kind {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	k := classify(rv)
	if k == kindPointer {
		return KindOf(rv.Elem().Interface())
	}
	return k
}

func classify(rv reflect.Value) Kind {
	if !rv.IsValid() {
		return KindNull
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return KindNull
		}
	}
	return kindOfType(rv.Type())
}

// kindOfType is cached; every check below depends on the type only
func kindOfType(t reflect.Type) Kind {
	if k, ok := kindCache.Load(t); ok {
		return k.(Kind)
	}
	k := computeKind(t)
	kindCache.Store(t, k)
	return k
}

func computeKind(t reflect.Type) Kind {
	if t.Kind() == reflect.Interface {
		// the dispatcher unwraps non-nil interfaces before classifying
		return KindNull
	}
	if k, ok := exactKinds[t]; ok {
		return k
	}

	// Capabilities, map before sequence
	switch {
	case t.Implements(marshalerType):
		return KindRaw
	case t.Kind() == reflect.Map || t.Implements(rangerType):
		return KindMap
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Implements(iterableType):
		return KindSequence
	}

	switch t.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Pointer:
		return kindPointer
	case reflect.Struct:
		return KindComposite
	}

	// Func, Chan, Complex64, Complex128, UnsafePointer
	return KindUnsupported
}
