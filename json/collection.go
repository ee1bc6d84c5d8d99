package json

import (
	"encoding"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/freekieb7/nanojson/datetime"
)

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

func (e *encodeState) encodeSequence(rv reflect.Value) error {
	id, tracked, err := e.enter(rv)
	if err != nil {
		return err
	}
	defer e.leave(id, tracked)

	if err := e.w.WriteByte('['); err != nil {
		return err
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		for i := 0; i < n; i++ {
			if i > 0 {
				if err := e.w.WriteByte(','); err != nil {
					return err
				}
			}
			if err := e.encode(rv.Index(i)); err != nil {
				return withSegment(err, indexSegment(i))
			}
		}
	default:
		var (
			i    int
			ierr error
		)
		rv.Interface().(Iterable).Each(func(value any) bool {
			if i > 0 {
				if ierr = e.w.WriteByte(','); ierr != nil {
					return false
				}
			}
			if ierr = e.encode(reflect.ValueOf(value)); ierr != nil {
				ierr = withSegment(ierr, indexSegment(i))
				return false
			}
			i++
			return true
		})
		if ierr != nil {
			return ierr
		}
	}

	return e.w.WriteByte(']')
}

func (e *encodeState) encodeMap(rv reflect.Value) error {
	id, tracked, err := e.enter(rv)
	if err != nil {
		return err
	}
	defer e.leave(id, tracked)

	if err := e.w.WriteByte('{'); err != nil {
		return err
	}

	switch {
	case rv.Type() == entryType:
		entry := rv.Interface().(Entry)
		err = e.writeEntry(true, reflect.ValueOf(entry.Key), reflect.ValueOf(entry.Value), nil)
	case rv.Kind() == reflect.Map:
		err = e.writeNativeMap(rv)
	default:
		var seen seenKeys
		if rv.Type() != orderedMapType {
			seen = make(seenKeys)
		}
		first := true
		rv.Interface().(Ranger).Range(func(key, value any) bool {
			err = e.writeEntry(first, reflect.ValueOf(key), reflect.ValueOf(value), seen)
			first = false
			return err == nil
		})
	}
	if err != nil {
		return err
	}

	return e.w.WriteByte('}')
}

func (e *encodeState) writeNativeMap(rv reflect.Value) error {
	unique := uniqueKeyText(rv.Type().Key())

	if !e.opts.SortMapKeys {
		var seen seenKeys
		if !unique {
			seen = make(seenKeys, rv.Len())
		}
		iter := rv.MapRange()
		first := true
		for iter.Next() {
			if err := e.writeEntry(first, iter.Key(), iter.Value(), seen); err != nil {
				return err
			}
			first = false
		}
		return nil
	}

	type keyed struct {
		text  string
		key   reflect.Value
		value reflect.Value
	}
	keys := make([]keyed, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		text, err := keyText(iter.Key(), e)
		if err != nil {
			return err
		}
		keys = append(keys, keyed{text: text, key: iter.Key(), value: iter.Value()})
	}
	slices.SortFunc(keys, func(a, b keyed) int {
		return strings.Compare(a.text, b.text)
	})

	for i, k := range keys {
		if !unique && i > 0 && keys[i-1].text == k.text {
			return duplicateKey(k.text, k.key)
		}
		if err := e.writeMember(i == 0, k.text, k.value); err != nil {
			return err
		}
	}
	return nil
}

func (e *encodeState) writeEntry(first bool, key, value reflect.Value, seen seenKeys) error {
	text, err := keyText(key, e)
	if err != nil {
		return err
	}
	if err := seen.add(text, key); err != nil {
		return err
	}
	return e.writeMember(first, text, value)
}

// seenKeys collects the rendered keys of a map whose distinct keys may render
// to the same text. A nil set accepts everything.
type seenKeys map[string]struct{}

func (s seenKeys) add(text string, key reflect.Value) error {
	if s == nil {
		return nil
	}
	if _, dup := s[text]; dup {
		return duplicateKey(text, key)
	}
	s[text] = struct{}{}
	return nil
}

func duplicateKey(text string, key reflect.Value) error {
	return &EncodeError{
		Err:  fmt.Errorf("%w: duplicate key %q", ErrUnsupportedKeyType, text),
		Type: key.Type(),
	}
}

// uniqueKeyText reports whether distinct keys of type t always render to
// distinct text
func uniqueKeyText(t reflect.Type) bool {
	if t.Kind() == reflect.String || t == durationType {
		return true
	}
	if t.Implements(textMarshalerType) {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Bool:
		return true
	}
	return false
}

// writeMember writes one "key":value pair, preceded by a comma unless first
func (e *encodeState) writeMember(first bool, key string, value reflect.Value) error {
	if !first {
		if err := e.w.WriteByte(','); err != nil {
			return err
		}
	}
	if err := writeQuoted(key, e.w); err != nil {
		return err
	}
	if err := e.w.WriteByte(':'); err != nil {
		return err
	}
	if err := e.encode(value); err != nil {
		return withSegment(err, keySegment(key))
	}
	return nil
}

func (e *encodeState) encodeComposite(rv reflect.Value) error {
	id, tracked, err := e.enter(rv)
	if err != nil {
		return err
	}
	defer e.leave(id, tracked)

	// Nested composites push their members after ours and truncate back
	start := len(e.members)
	members, err := e.intro.Members(rv, e.members)
	if err != nil {
		return &EncodeError{Err: err, Type: rv.Type()}
	}
	e.members = members
	defer func() {
		clear(e.members[start:])
		e.members = e.members[:start]
	}()

	if err := e.w.WriteByte('{'); err != nil {
		return err
	}
	for i, m := range members[start:] {
		if err := e.writeMember(i == 0, m.Name, reflect.ValueOf(m.Value)); err != nil {
			return err
		}
	}
	return e.w.WriteByte('}')
}

// keyText renders a map key as text
func keyText(k reflect.Value, e *encodeState) (string, error) {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if !k.IsValid() {
		return "", newEncodeError(ErrUnsupportedKeyType, nil)
	}

	t := k.Type()
	switch {
	case k.Kind() == reflect.String:
		return k.String(), nil
	case t == durationType:
		return time.Duration(k.Int()).String(), nil
	case t == timeType:
		tm := k.Interface().(time.Time)
		if e.opts.FormatTime != nil {
			return e.opts.FormatTime(tm), nil
		}
		return string(datetime.AppendCanonical(e.scratch[:0], tm, e.opts.DateFormat)), nil
	}
	if t.Implements(textMarshalerType) {
		if k.Kind() == reflect.Pointer && k.IsNil() {
			return "", nil
		}
		b, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", &EncodeError{Err: err, Type: t}
		}
		return string(b), nil
	}

	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), nil
	case reflect.Float32, reflect.Float64:
		bits := 64
		if k.Kind() == reflect.Float32 {
			bits = 32
		}
		return string(appendFloat(e.scratch[:0], k.Float(), bits)), nil
	}

	if s, ok := k.Interface().(fmt.Stringer); ok {
		return s.String(), nil
	}
	return "", newEncodeError(ErrUnsupportedKeyType, t)
}

func indexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

func keySegment(key string) string {
	if isSimpleFieldName(key) {
		return "." + key
	}
	return "[" + strconv.Quote(key) + "]"
}

// isSimpleFieldName checks if a field name needs escaping
func isSimpleFieldName(name string) bool {
	if len(name) == 0 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		// Only allow letters, digits, underscore - common JSON field characters
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}
