package json

import "strconv"

// Marshaler is implemented by values that encode themselves. The returned
// bytes are written as-is and must hold exactly one JSON value; anything else
// fails the encode with ErrInvalidRaw. Empty output encodes as null.
type Marshaler interface {
	Marshal() ([]byte, error)
}

// Ranger is implemented by map-like values. Range calls f for every entry in
// the value's own order until f returns false. *sync.Map satisfies it.
//
// A struct Ranger or Iterable is identified for cycle detection by the maps,
// slices and pointers in its own fields. References nested deeper inside value
// fields are only bounded by Options.MaxDepth.
type Ranger interface {
	Range(f func(key, value any) bool)
}

// Iterable is implemented by sequence-like values. Each calls f for every
// element in order until f returns false.
type Iterable interface {
	Each(f func(value any) bool)
}

// Entry is a single key-value pair. It encodes as a one-entry object.
type Entry struct {
	Key   any
	Value any
}

// Number is a JSON number literal that is written without quoting.
type Number string

func (n Number) Float64() (float64, error) {
	return strconv.ParseFloat(string(n), 64)
}

func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}

// OrderedMap is a string keyed map that encodes its entries in insertion order.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

func NewOrderedMap(capacity int) *OrderedMap {
	return &OrderedMap{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

// Set adds or replaces key. A replaced key keeps its original position.
func (m *OrderedMap) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *OrderedMap) Len() int {
	return len(m.keys)
}

func (m *OrderedMap) Keys() []string {
	return m.keys
}

func (m *OrderedMap) Range(f func(key, value any) bool) {
	for _, k := range m.keys {
		if !f(k, m.values[k]) {
			return
		}
	}
}
