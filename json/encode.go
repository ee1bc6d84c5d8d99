package json

import (
	"errors"
	"reflect"
	"sync"
)

// encodeState is the encoding context of one call. It is never shared
// between calls; pooled states are reset before reuse.
type encodeState struct {
	w        writer
	opts     Options
	intro    Introspector
	maxDepth int
	depth    int

	// identities of the pointers, maps and slices currently being encoded
	visited map[visit]struct{}

	// scratch space for member lists, used as a stack by nested composites
	members []Member

	// scratch space for numbers, times and identifiers
	scratch [64]byte
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

var encodeStatePool = sync.Pool{
	New: func() interface{} {
		return &encodeState{}
	},
}

func newEncodeState(w writer, opts Options) *encodeState {
	e := encodeStatePool.Get().(*encodeState)
	e.w = w
	e.opts = opts
	e.intro = opts.introspector()
	e.maxDepth = opts.maxDepth()
	return e
}

func (e *encodeState) release() {
	clear(e.visited)
	clear(e.members)
	e.members = e.members[:0]
	e.w = nil
	e.opts = Options{}
	e.intro = nil
	e.depth = 0
	encodeStatePool.Put(e)
}

// Serialize returns the JSON text of v. On failure no partial output is
// returned and the error is an *EncodeError.
func Serialize(v any, opts Options) (string, error) {
	b, err := MarshalOptions(v, opts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Marshal returns the JSON encoding of v using DefaultOptions.
func Marshal(v any) ([]byte, error) {
	return MarshalOptions(v, Options{})
}

func MarshalOptions(v any, opts Options) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	w := &sliceWriter{buf: *buf, limit: opts.Capacity}
	err := encodeValue(v, w, opts)
	*buf = w.buf
	if err != nil {
		return nil, err
	}

	// Return a copy since the buffer goes back to the pool
	result := make([]byte, len(w.buf))
	copy(result, w.buf)
	return result, nil
}

// MarshalAppend appends the JSON representation of v to buf and returns the extended buffer.
// This is a zero-allocation alternative to Marshal when you can reuse buffers.
// On failure buf is returned with its original length.
func MarshalAppend(buf []byte, v any) ([]byte, error) {
	n := len(buf)
	w := &sliceWriter{buf: buf}
	if err := encodeValue(v, w, Options{}); err != nil {
		return w.buf[:n], err
	}
	return w.buf, nil
}

// MarshalTo writes the JSON representation of v to the provided buffer.
// Returns the number of bytes written and any error. If buf is too small the
// error wraps ErrBufferOverflow and zero is returned.
func MarshalTo(v any, buf []byte) (int, error) {
	w := &fixedWriter{buf: buf}
	if err := encodeValue(v, w, Options{}); err != nil {
		return 0, err
	}
	return w.pos, nil
}

func encodeValue(v any, w writer, opts Options) error {
	e := newEncodeState(w, opts)
	defer e.release()

	err := e.encode(reflect.ValueOf(v))
	if err == nil {
		return nil
	}
	var ee *EncodeError
	if !errors.As(err, &ee) {
		err = &EncodeError{Err: err}
	}
	return err
}

// encode classifies rv and writes it
func (e *encodeState) encode(rv reflect.Value) error {
	for rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return e.w.WriteString("null")
		}
		rv = rv.Elem()
	}

	k := classify(rv)

	// Value receivers of pointer methods: an addressable struct may still
	// marshal, range or iterate through its address
	if k == KindComposite && rv.CanAddr() {
		switch pk := kindOfType(reflect.PointerTo(rv.Type())); pk {
		case KindRaw, KindMap, KindSequence:
			rv, k = rv.Addr(), pk
		}
	}

	switch k {
	case KindNull:
		return e.w.WriteString("null")
	case KindBool:
		return e.encodeBool(rv)
	case KindString:
		return e.encodeString(rv)
	case KindInt:
		return e.encodeInt(rv)
	case KindFloat:
		return e.encodeFloat(rv)
	case KindTime:
		return e.encodeTime(rv)
	case KindRaw:
		return e.encodeRaw(rv)
	case KindMap:
		return e.encodeMap(rv)
	case KindSequence:
		return e.encodeSequence(rv)
	case KindComposite:
		return e.encodeComposite(rv)
	case kindPointer:
		id, tracked, err := e.track(rv)
		if err != nil {
			return err
		}
		err = e.encode(rv.Elem())
		e.untrack(id, tracked)
		return err
	}

	return newEncodeError(ErrUnsupportedType, rv.Type())
}

// track registers the identity of rv while it is being encoded. Meeting the
// same identity again before untrack means the graph has a cycle.
func (e *encodeState) track(rv reflect.Value) (visit, bool, error) {
	var id visit
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		id = visit{ptr: rv.Pointer(), typ: rv.Type()}
	case reflect.Slice:
		// empty slices share backing arrays freely
		if rv.Len() == 0 {
			return id, false, nil
		}
		id = visit{ptr: rv.Pointer(), typ: rv.Type(), len: rv.Len()}
	case reflect.Struct:
		// Range and Each hide what a struct holds, so only its references
		// can tell a copy of the same value apart
		if rv.Type() == entryType {
			return id, false, nil
		}
		if k := kindOfType(rv.Type()); k != KindMap && k != KindSequence {
			return id, false, nil
		}
		ptr, mix, ok := refIdentity(rv)
		if !ok {
			return id, false, nil
		}
		id = visit{ptr: ptr, typ: rv.Type(), len: mix}
	default:
		return id, false, nil
	}

	if _, ok := e.visited[id]; ok {
		return id, false, newEncodeError(ErrCyclicReference, rv.Type())
	}
	if e.visited == nil {
		e.visited = make(map[visit]struct{})
	}
	e.visited[id] = struct{}{}
	return id, true, nil
}

// refIdentity combines the references held by the top-level fields of the
// struct rv. ok is false when it holds none and so cannot lead back to itself.
func refIdentity(rv reflect.Value) (ptr uintptr, mix int, ok bool) {
	h := uint64(14695981039346656037)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.Interface && !f.IsNil() {
			f = f.Elem()
		}

		var p uintptr
		switch f.Kind() {
		case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
			p = f.Pointer()
		case reflect.Slice:
			p = f.Pointer()
			h = (h ^ uint64(f.Len())) * 1099511628211
		}
		if p == 0 {
			continue
		}
		if !ok {
			ptr, ok = p, true
		}
		h = (h ^ uint64(p)) * 1099511628211
	}
	return ptr, int(h), ok
}

func (e *encodeState) untrack(id visit, tracked bool) {
	if tracked {
		delete(e.visited, id)
	}
}

// enter is called by every container before writing its opening bracket
func (e *encodeState) enter(rv reflect.Value) (visit, bool, error) {
	e.depth++
	if e.maxDepth > 0 && e.depth > e.maxDepth {
		e.depth--
		return visit{}, false, newEncodeError(ErrDepthExceeded, rv.Type())
	}
	id, tracked, err := e.track(rv)
	if err != nil {
		e.depth--
	}
	return id, tracked, err
}

func (e *encodeState) leave(id visit, tracked bool) {
	e.untrack(id, tracked)
	e.depth--
}
