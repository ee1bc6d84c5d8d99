package json

import (
	"strings"
	"testing"
	"time"

	"github.com/buger/jsonparser"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Output must always be accepted by an independent parser
func TestOutputIsWellFormed(t *testing.T) {
	om := NewOrderedMap(2)
	om.Set("z", []any{1, "two", nil})
	om.Set("a", map[string]any{"deep": []int{}})

	inputs := []any{
		nil,
		"plain",
		"\x00\x1f\"\\\u2028\xff",
		[]any{1.5, -0.0, 1e300, 1e-300, int64(-1 << 63)},
		map[string]any{"k": map[string]any{}, "": []any{}},
		om,
		Entry{Key: 5, Value: Entry{Key: "x", Value: true}},
		struct {
			When time.Time
			Dur  time.Duration
		}{time.Unix(0, 0), time.Minute},
		countdown(4),
	}

	for _, in := range inputs {
		out, err := Marshal(in)
		require.NoError(t, err)
		assert.True(t, jsoniter.Valid(out), "invalid JSON %q", out)
		assert.True(t, balanced(out), "unbalanced JSON %q", out)
	}
}

// balanced reports whether the brackets outside string literals pair up
func balanced(data []byte) bool {
	var stack []byte
	inString, escaped := false, false
	for _, c := range data {
		switch {
		case escaped:
			escaped = false
		case inString:
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '[' || c == '{':
			stack = append(stack, c)
		case c == ']' || c == '}':
			open := byte('[')
			if c == '}' {
				open = '{'
			}
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0 && !inString
}

func TestStringsRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"hello",
		`a"b\c`,
		"\b\f\n\r\t\x00\x01\x1f",
		"caf\u00e9 \u4e16\u754c \U0001f600",
		"\u2028\u2029",
		strings.Repeat("0123456789abcdef", 64),
	}

	for _, in := range inputs {
		out, err := Marshal(in)
		require.NoError(t, err)

		var decoded string
		require.NoError(t, jsoniter.Unmarshal(out, &decoded))
		assert.Equal(t, in, decoded)
	}
}

func TestCompositeRoundTrip(t *testing.T) {
	type Person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	in := []Person{{Name: "Ann", Age: 30}, {Name: "Bob \"B\"", Age: 41}}
	out, err := Marshal(in)
	require.NoError(t, err)

	var decoded []Person
	require.NoError(t, jsoniter.Unmarshal(out, &decoded))
	assert.Equal(t, in, decoded)

	name, err := jsonparser.GetString(out, "[1]", "name")
	require.NoError(t, err)
	assert.Equal(t, `Bob "B"`, name)
}

func TestOrderedKeysSurviveParsing(t *testing.T) {
	om := NewOrderedMap(4)
	for _, k := range []string{"delta", "alpha", "charlie", "bravo"} {
		om.Set(k, len(k))
	}

	out, err := Marshal(om)
	require.NoError(t, err)

	var keys []string
	err = jsonparser.ObjectEach(out, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"delta", "alpha", "charlie", "bravo"}, keys)

	n, err := jsonparser.GetInt(out, "charlie")
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}

func TestNumbersRoundTrip(t *testing.T) {
	floats := []float64{0, 1, -1, 0.1, 1.0 / 3, 123456.789, 1e20, 1e21, 1e-6, 1e-7, 5e-324, 1.7976931348623157e308}

	for _, f := range floats {
		out, err := Marshal(f)
		require.NoError(t, err)

		var decoded float64
		require.NoError(t, jsoniter.Unmarshal(out, &decoded), "output %s", out)
		assert.Equal(t, f, decoded, "output %s", out)
	}
}
