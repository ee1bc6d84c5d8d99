package json

import (
	"errors"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Member is one readable named member of a composite value.
type Member struct {
	Name  string
	Value any
}

// Introspector lists the readable members of composite values.
type Introspector interface {
	// Members appends the members of rv, a struct value, to dst in a stable
	// order. It returns ErrUnsupportedType when it cannot describe rv's type.
	Members(rv reflect.Value, dst []Member) ([]Member, error)
}

// DefaultIntrospector prefers generated descriptors and falls back to
// reflection.
var DefaultIntrospector = Chain(Generated, Reflection{})

type chain []Introspector

// Chain asks each provider in turn; the first that knows the type wins.
func Chain(providers ...Introspector) Introspector {
	return chain(providers)
}

func (c chain) Members(rv reflect.Value, dst []Member) ([]Member, error) {
	for _, p := range c {
		out, err := p.Members(rv, dst)
		if errors.Is(err, ErrUnsupportedType) {
			continue
		}
		return out, err
	}
	return dst, ErrUnsupportedType
}

// Reflection reads exported struct fields at encode time. Keys follow the
// `json` struct tag (name, "-" and omitempty). Function, channel and
// reflection metadata typed members are never read.
//
// With Accessors set, exported methods named GetName or Get_Name that take no
// arguments and return one value are read as well and exposed as "Name".
type Reflection struct {
	Accessors bool
}

func (r Reflection) Members(rv reflect.Value, dst []Member) ([]Member, error) {
	if rv.Kind() != reflect.Struct {
		return dst, ErrUnsupportedType
	}

	meta := getStructMeta(rv.Type())
	for _, f := range meta.fields {
		fv := rv.Field(f.index)
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		dst = append(dst, Member{Name: f.name, Value: fv.Interface()})
	}

	if !r.Accessors {
		return dst, nil
	}

	// Pointer receiver methods are only reachable on addressable values
	recv, accessors := rv, meta.valueAccessors
	if rv.CanAddr() {
		recv, accessors = rv.Addr(), meta.ptrAccessors
	}
	for _, a := range accessors {
		if a.abstract(rv) {
			continue
		}
		out := recv.Method(a.index).Call(nil)
		dst = append(dst, Member{Name: a.name, Value: out[0].Interface()})
	}
	return dst, nil
}

var (
	structCache sync.Map // map[reflect.Type]*structMeta

	// Members of these types describe the program rather than the data
	metadataTypes = map[reflect.Type]bool{
		reflect.TypeFor[reflect.Type]():        true,
		reflect.TypeFor[reflect.Value]():       true,
		reflect.TypeFor[reflect.Method]():      true,
		reflect.TypeFor[reflect.StructField](): true,
		reflect.TypeFor[*runtime.Func]():       true,
	}
)

type structMeta struct {
	fields         []fieldMeta
	valueAccessors []accessorMeta
	ptrAccessors   []accessorMeta
}

type fieldMeta struct {
	index     int
	name      string
	omitEmpty bool
}

type accessorMeta struct {
	index int
	name  string
	// embedded field indexes the method is promoted through, outermost first
	via []int
}

// abstract reports whether the method is promoted through a nil embedded
// pointer or interface and has no receiver to call it on.
func (a accessorMeta) abstract(rv reflect.Value) bool {
	v := rv
	for _, i := range a.via {
		v = v.Field(i)
		switch v.Kind() {
		case reflect.Interface:
			return v.IsNil()
		case reflect.Pointer:
			if v.IsNil() {
				return true
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return false
		}
	}
	return false
}

func getStructMeta(t reflect.Type) *structMeta {
	if cached, ok := structCache.Load(t); ok {
		return cached.(*structMeta)
	}

	meta := buildStructMeta(t)
	structCache.Store(t, meta)
	return meta
}

func buildStructMeta(t reflect.Type) *structMeta {
	numFields := t.NumField()
	meta := &structMeta{fields: make([]fieldMeta, 0, numFields)}
	seen := make(map[string]bool, numFields)

	for i := 0; i < numFields; i++ {
		field := t.Field(i)

		// Skip unexported fields
		if !field.IsExported() || isExcludedType(field.Type) {
			continue
		}

		name, omitEmpty, skip := ParseFieldTag(field.Tag.Get("json"), field.Name)
		if skip {
			continue
		}

		seen[name] = true
		meta.fields = append(meta.fields, fieldMeta{
			index:     i,
			name:      name,
			omitEmpty: omitEmpty,
		})
	}

	meta.valueAccessors = buildAccessors(t, t, seen)
	meta.ptrAccessors = buildAccessors(t, reflect.PointerTo(t), seen)
	return meta
}

func buildAccessors(st, t reflect.Type, fieldNames map[string]bool) []accessorMeta {
	var accessors []accessorMeta
	seen := make(map[string]bool)

	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		name, ok := accessorName(m.Name)
		if !ok || fieldNames[name] || seen[name] {
			continue
		}
		// receiver plus nothing in, exactly one out
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 || isExcludedType(m.Type.Out(0)) {
			continue
		}

		seen[name] = true
		accessors = append(accessors, accessorMeta{
			index: i,
			name:  name,
			via:   promotionPath(st, m.Name),
		})
	}
	return accessors
}

// accessorName strips the Get or Get_ prefix of an accessor method name.
func accessorName(method string) (string, bool) {
	name, ok := strings.CutPrefix(method, "Get")
	if !ok {
		return "", false
	}
	name = strings.TrimPrefix(name, "_")
	if name == "" {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return name, unicode.IsUpper(r)
}

// maxEmbedDepth bounds the search through self-referencing embedded pointers
const maxEmbedDepth = 16

// promotionPath returns the embedded fields the method name is promoted
// through, empty when st declares it. Go picks the shallowest embedding; a tie
// at that depth means the method cannot be promoted and st declares it. A
// method declared on st that shadows an embedded one is treated as promoted.
func promotionPath(st reflect.Type, name string) []int {
	path, _ := embeddedPath(st, name, 0)
	return path
}

func embeddedPath(st reflect.Type, name string, level int) ([]int, int) {
	if level > maxEmbedDepth {
		return nil, 0
	}

	best, bestDepth, tie := -1, 0, false
	var bestPath []int
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.Anonymous || !hasMethod(f.Type, name) {
			continue
		}

		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		depth := 1
		var sub []int
		if ft.Kind() == reflect.Struct {
			var d int
			sub, d = embeddedPath(ft, name, level+1)
			depth += d
		}

		switch {
		case best < 0 || depth < bestDepth:
			best, bestDepth, bestPath, tie = i, depth, sub, false
		case depth == bestDepth:
			tie = true
		}
	}
	if best < 0 || tie {
		return nil, 0
	}
	return append([]int{best}, bestPath...), bestDepth
}

// hasMethod reports whether a value of type t, or its address, has the method
func hasMethod(t reflect.Type, name string) bool {
	if _, ok := t.MethodByName(name); ok {
		return true
	}
	if t.Kind() == reflect.Interface || t.Kind() == reflect.Pointer {
		return false
	}
	_, ok := reflect.PointerTo(t).MethodByName(name)
	return ok
}

func isExcludedType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Func, reflect.Chan:
		return true
	}
	return metadataTypes[t]
}

// ParseFieldTag parses a struct field's json tag and returns the key, the
// omitempty flag and whether the field is skipped entirely.
func ParseFieldTag(tag, fieldName string) (name string, omitEmpty bool, skip bool) {
	if tag == "-" {
		return "", false, true
	}
	if tag == "" {
		return fieldName, false, false
	}

	// Find first comma without allocating
	commaIndex := strings.Index(tag, ",")
	if commaIndex == -1 {
		return tag, false, false
	}

	name = tag[:commaIndex]
	if name == "" {
		name = fieldName
	}

	// Check for omitempty without allocating a slice
	omitEmpty = strings.Contains(tag[commaIndex:], "omitempty")

	return name, omitEmpty, false
}

// isEmptyValue reports whether v is an empty value according to JSON omitempty semantics
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
