package json

import (
	"encoding/binary"
	"unicode/utf8"
	"unsafe"
)

const (
	lsb = 0x0101010101010101
	msb = 0x8080808080808080

	hexDigits = "0123456789abcdef"
)

// EscapeString returns the body of a JSON string literal for s, without the
// surrounding quotes. When nothing needs escaping s itself is returned.
func EscapeString(s string) string {
	if scanForEscapeChars(unsafeStringToBytes(s)) == len(s) {
		return s
	}
	w := &sliceWriter{buf: make([]byte, 0, len(s)+8)}
	_ = escapeStringWriter(s, w)
	return string(w.buf)
}

// writeQuoted writes s as a complete JSON string literal
func writeQuoted(s string, w writer) error {
	if err := w.WriteByte('"'); err != nil {
		return err
	}
	if err := escapeStringWriter(s, w); err != nil {
		return err
	}
	return w.WriteByte('"')
}

// scanForEscapeChars returns the index of the first byte that is a control
// character, a quote, a backslash or non-ASCII. It checks eight bytes per step
// and only falls back to the byte loop for the word that matched.
func scanForEscapeChars(data []byte) int {
	i := 0
	for ; i+8 <= len(data); i += 8 {
		x := binary.LittleEndian.Uint64(data[i:])
		q := x ^ (lsb * '"')
		bs := x ^ (lsb * '\\')
		mask := (x-lsb*0x20)&^x | (q-lsb)&^q | (bs-lsb)&^bs | x
		if mask&msb != 0 {
			break
		}
	}
	return i + scanForEscapeCharsScalar(data[i:])
}

func scanForEscapeCharsScalar(data []byte) int {
	for i, b := range data {
		if b < 0x20 || b >= utf8.RuneSelf || b == '"' || b == '\\' {
			return i
		}
	}
	return len(data)
}

func escapeStringWriter(s string, w writer) error {
	if len(s) == 0 {
		return nil
	}

	data := unsafeStringToBytes(s)
	start := 0

	for start < len(s) {
		pos := scanForEscapeChars(data[start:])
		if pos == len(s)-start {
			// No more escaping needed, write the rest
			return w.WriteString(s[start:])
		}

		if pos > 0 {
			if err := w.WriteString(s[start : start+pos]); err != nil {
				return err
			}
		}

		i := start + pos
		b := s[i]
		start = i + 1

		var err error
		switch b {
		case '"':
			err = w.WriteString(`\"`)
		case '\\':
			err = w.WriteString(`\\`)
		case '\b':
			err = w.WriteString(`\b`)
		case '\f':
			err = w.WriteString(`\f`)
		case '\n':
			err = w.WriteString(`\n`)
		case '\r':
			err = w.WriteString(`\r`)
		case '\t':
			err = w.WriteString(`\t`)
		default:
			if b < 0x20 {
				if err = w.WriteString(`\u`); err == nil {
					err = writeHex4(w, uint16(b))
				}
				break
			}

			r, size := utf8.DecodeRuneInString(s[i:])
			start = i + size
			switch {
			case r == utf8.RuneError && size == 1:
				err = w.WriteString(`\ufffd`)
			case r == '\u2028' || r == '\u2029':
				// Valid JSON, but not valid inside JavaScript string literals
				if err = w.WriteString(`\u`); err == nil {
					err = writeHex4(w, uint16(r))
				}
			default:
				err = w.WriteString(s[i : i+size])
			}
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func writeHex4(w writer, val uint16) error {
	var b [4]byte
	b[0] = hexDigits[(val>>12)&0xF]
	b[1] = hexDigits[(val>>8)&0xF]
	b[2] = hexDigits[(val>>4)&0xF]
	b[3] = hexDigits[val&0xF]
	return w.WriteBytes(b[:])
}

func unsafeStringToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
