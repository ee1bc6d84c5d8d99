package json

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanForEscapeChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"clean short", "abc", 3},
		{"clean word", "abcdefgh", 8},
		{"clean long", "abcdefghijklmnopqrstuvwxyz", 26},
		{"quote first", `"abcdefgh`, 0},
		{"quote in second word", `abcdefgh"`, 8},
		{"backslash in first word", `abc\defgh`, 3},
		{"newline at end", "abcdefghijklmno\n", 15},
		{"space is clean", "a b c d e f g h", 15},
		{"tilde and delete are clean", "~~~~~~~~\x7f", 9},
		{"non-ascii", "abcdefg\u00e9", 7},
		{"unit separator", "abcdefgh\x1f", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(tt.input)
			assert.Equal(t, tt.want, scanForEscapeChars(data))
			assert.Equal(t, scanForEscapeCharsScalar(data), scanForEscapeChars(data))
		})
	}
}

// Every byte value at every position of a word must agree with the scalar scan
func TestScanForEscapeChars_AllBytes(t *testing.T) {
	base := []byte("abcdefghijklmnopqrst")
	for pos := 0; pos < len(base); pos++ {
		for b := 0; b < 256; b++ {
			data := append([]byte(nil), base...)
			data[pos] = byte(b)
			if got, want := scanForEscapeChars(data), scanForEscapeCharsScalar(data); got != want {
				t.Fatalf("byte %#x at %d: scan = %d, scalar = %d", b, pos, got, want)
			}
		}
	}
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "hello world", "hello world"},
		{"quote and backslash", `a"b\c`, `a\"b\\c`},
		{"short escapes", "\b\f\n\r\t", `\b\f\n\r\t`},
		{"other controls", "\x00\x07\x1b", `\u0000\u0007\u001b`},
		{"utf8 kept", "caf\u00e9 \u4e16", "caf\u00e9 \u4e16"},
		{"emoji kept", "\U0001f600", "\U0001f600"},
		{"line separators", "\u2028\u2029", `\u2028\u2029`},
		{"invalid byte", "\xc3\x28", `\ufffd(`},
		{"truncated rune", "ab\xe2\x82", `ab\ufffd\ufffd`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeString(tt.input))
		})
	}
}

func TestEscapeString_ReturnsInputWhenClean(t *testing.T) {
	s := strings.Repeat("clean", 20)
	got := EscapeString(s)
	assert.Equal(t, s, got)
	assert.Same(t, unsafeStringToBytesPtr(s), unsafeStringToBytesPtr(got))
}

func unsafeStringToBytesPtr(s string) *byte {
	return &unsafeStringToBytes(s)[0]
}

func TestWriteQuoted_Overflow(t *testing.T) {
	w := &fixedWriter{buf: make([]byte, 6)}
	err := writeQuoted("a\nb", w)
	assert.ErrorIs(t, err, ErrBufferOverflow)
	assert.LessOrEqual(t, w.pos, len(w.buf))

	w = &fixedWriter{buf: make([]byte, 7)}
	assert.NoError(t, writeQuoted("a\nb", w))
	assert.Equal(t, `"a\nb"`, string(w.buf[:w.pos]))
}
