package json

import (
	"bytes"
	"encoding/hex"
	"io"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/freekieb7/nanojson/datetime"
)

// Small integer lookup table for common values
var smallInts = [...]string{
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	"10", "11", "12", "13", "14", "15", "16", "17", "18", "19",
	"20", "21", "22", "23", "24", "25", "26", "27", "28", "29",
	"30", "31", "32", "33", "34", "35", "36", "37", "38", "39",
	"40", "41", "42", "43", "44", "45", "46", "47", "48", "49",
	"50", "51", "52", "53", "54", "55", "56", "57", "58", "59",
	"60", "61", "62", "63", "64", "65", "66", "67", "68", "69",
	"70", "71", "72", "73", "74", "75", "76", "77", "78", "79",
	"80", "81", "82", "83", "84", "85", "86", "87", "88", "89",
	"90", "91", "92", "93", "94", "95", "96", "97", "98", "99",
}

func (e *encodeState) encodeBool(rv reflect.Value) error {
	if rv.Bool() {
		return e.w.WriteString("true")
	}
	return e.w.WriteString("false")
}

func (e *encodeState) encodeString(rv reflect.Value) error {
	switch rv.Type() {
	case durationType:
		return writeQuoted(time.Duration(rv.Int()).String(), e.w)
	case uuidType:
		var id uuid.UUID
		reflect.Copy(reflect.ValueOf(id[:]), rv)
		return e.w.WriteBytes(appendUUID(e.scratch[:0], id))
	}
	return writeQuoted(rv.String(), e.w)
}

// appendUUID appends id in its quoted canonical 8-4-4-4-12 form
func appendUUID(dst []byte, id uuid.UUID) []byte {
	var buf [38]byte
	buf[0] = '"'
	hex.Encode(buf[1:9], id[:4])
	buf[9] = '-'
	hex.Encode(buf[10:14], id[4:6])
	buf[14] = '-'
	hex.Encode(buf[15:19], id[6:8])
	buf[19] = '-'
	hex.Encode(buf[20:24], id[8:10])
	buf[24] = '-'
	hex.Encode(buf[25:37], id[10:])
	buf[37] = '"'
	return append(dst, buf[:]...)
}

func (e *encodeState) encodeInt(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i >= 0 && i < int64(len(smallInts)) {
			return e.w.WriteString(smallInts[i])
		}
		return e.w.WriteBytes(strconv.AppendInt(e.scratch[:0], i, 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u < uint64(len(smallInts)) {
			return e.w.WriteString(smallInts[u])
		}
		return e.w.WriteBytes(strconv.AppendUint(e.scratch[:0], u, 10))
	}

	// big.Int, by value or pointer
	var n *big.Int
	if rv.Kind() == reflect.Pointer {
		n = rv.Interface().(*big.Int)
	} else if rv.CanAddr() {
		n = rv.Addr().Interface().(*big.Int)
	} else {
		v := rv.Interface().(big.Int)
		n = &v
	}
	return e.w.WriteBytes(n.Append(e.scratch[:0], 10))
}

func (e *encodeState) encodeFloat(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		bits := 64
		if rv.Kind() == reflect.Float32 {
			bits = 32
		}
		return e.w.WriteBytes(appendFloat(e.scratch[:0], rv.Float(), bits))
	case reflect.String:
		n := rv.String()
		if !isValidNumber(n) {
			return newEncodeError(ErrUnsupportedType, rv.Type())
		}
		return e.w.WriteString(n)
	}

	// big.Float, by value or pointer
	var f *big.Float
	if rv.Kind() == reflect.Pointer {
		f = rv.Interface().(*big.Float)
	} else if rv.CanAddr() {
		f = rv.Addr().Interface().(*big.Float)
	} else {
		v := rv.Interface().(big.Float)
		f = &v
	}
	if f.IsInf() {
		return e.w.WriteString("null")
	}
	return e.w.WriteBytes(f.Append(e.scratch[:0], 'g', -1))
}

// appendFloat writes the shortest representation that round-trips. NaN and
// the infinities have no JSON form and become null.
func appendFloat(dst []byte, f float64, bits int) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(dst, "null"...)
	}

	// Fast path for common float values
	switch f {
	case 0:
		return append(dst, '0')
	case 1:
		return append(dst, '1')
	case -1:
		return append(dst, "-1"...)
	}

	abs := math.Abs(f)
	format := byte('f')
	if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
		bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
		format = 'e'
	}
	dst = strconv.AppendFloat(dst, f, format, -1, bits)
	if format == 'e' {
		// clean up e-09 to e-9
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst
}

func (e *encodeState) encodeTime(rv reflect.Value) error {
	t := rv.Interface().(time.Time)
	if e.opts.FormatTime != nil {
		return writeQuoted(e.opts.FormatTime(t), e.w)
	}

	buf := append(e.scratch[:0], '"')
	buf = datetime.AppendCanonical(buf, t, e.opts.DateFormat)
	buf = append(buf, '"')
	return e.w.WriteBytes(buf)
}

func (e *encodeState) encodeRaw(rv reflect.Value) error {
	m := rv.Interface().(Marshaler)
	b, err := m.Marshal()
	if err != nil {
		return &EncodeError{Err: err, Type: rv.Type()}
	}
	if len(b) == 0 {
		return e.w.WriteString("null")
	}
	if !validRaw(b) {
		return newEncodeError(ErrInvalidRaw, rv.Type())
	}
	return e.w.WriteBytes(b)
}

// validRaw reports whether b holds exactly one JSON value, optionally
// surrounded by whitespace
func validRaw(b []byte) bool {
	s := bytes.TrimSpace(b)
	if len(s) == 0 {
		return false
	}
	if s[0] == '-' || (s[0] >= '0' && s[0] <= '9') {
		return isValidNumber(string(s))
	}

	// The closing bracket terminates a trailing literal for the iterator
	wrapped := make([]byte, 0, len(s)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, s...)
	wrapped = append(wrapped, ']')

	iter := jsoniter.ConfigDefault.BorrowIterator(wrapped)
	defer jsoniter.ConfigDefault.ReturnIterator(iter)

	if !iter.ReadArray() {
		return false
	}
	iter.Skip()
	if iter.ReadArray() || iter.Error != nil {
		return false
	}
	// Anything after our bracket belongs to b
	return iter.WhatIsNext() == jsoniter.InvalidValue && iter.Error == io.EOF
}

// isValidNumber reports whether s is a JSON number literal
func isValidNumber(s string) bool {
	if s == "" {
		return false
	}

	if s[0] == '-' {
		s = s[1:]
		if s == "" {
			return false
		}
	}

	// Digits
	switch {
	default:
		return false
	case s[0] == '0':
		s = s[1:]
	case '1' <= s[0] && s[0] <= '9':
		s = s[1:]
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	}

	// . followed by 1 or more digits
	if len(s) >= 2 && s[0] == '.' && '0' <= s[1] && s[1] <= '9' {
		s = s[2:]
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	}

	// e or E followed by an optional - or + and 1 or more digits
	if len(s) >= 2 && (s[0] == 'e' || s[0] == 'E') {
		s = s[1:]
		if s[0] == '+' || s[0] == '-' {
			s = s[1:]
			if s == "" {
				return false
			}
		}
		for len(s) > 0 && '0' <= s[0] && s[0] <= '9' {
			s = s[1:]
		}
	}

	return s == ""
}
