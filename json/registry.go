package json

import (
	"reflect"
	"sync"
)

// membersFunc is a compile-time descriptor stored for one struct type
type membersFunc func(rv reflect.Value, dst []Member) []Member

// Descriptors installed by generated code, keyed by struct type
var descriptors sync.Map // map[reflect.Type]membersFunc

// Generated only knows types registered with RegisterMembers. Use it alone
// where reflection over struct fields is unavailable or too slow.
var Generated Introspector = generated{}

type generated struct{}

func (generated) Members(rv reflect.Value, dst []Member) ([]Member, error) {
	fn, ok := descriptors.Load(rv.Type())
	if !ok {
		return dst, ErrUnsupportedType
	}
	return fn.(membersFunc)(rv, dst), nil
}

// RegisterMembers installs the member list of T. genencoder emits calls to it
// from init functions; later registrations replace earlier ones.
func RegisterMembers[T any](fn func(v *T, dst []Member) []Member) {
	descriptors.Store(reflect.TypeFor[T](), membersFunc(func(rv reflect.Value, dst []Member) []Member {
		if rv.CanAddr() {
			return fn(rv.Addr().Interface().(*T), dst)
		}
		v := rv.Interface().(T)
		return fn(&v, dst)
	}))
}

// HasMembers reports whether a descriptor for t has been registered.
func HasMembers(t reflect.Type) bool {
	_, ok := descriptors.Load(t)
	return ok
}

// UnregisterMembers removes the descriptor of T, if any.
func UnregisterMembers[T any]() {
	descriptors.Delete(reflect.TypeFor[T]())
}
