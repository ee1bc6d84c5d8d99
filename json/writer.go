package json

import "sync"

// Buffers larger than this are dropped instead of being returned to the pool
const maxPooledBuffer = 64 << 10

// Buffer pool for Marshal to reduce allocations
var bufferPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 256)
		return &b
	},
}

func getBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

func putBuffer(b *[]byte) {
	if cap(*b) > maxPooledBuffer {
		return
	}
	*b = (*b)[:0]
	bufferPool.Put(b)
}

// writer is the append-only output of one encode call
type writer interface {
	WriteByte(byte) error
	WriteString(string) error
	WriteBytes([]byte) error
}

// sliceWriter grows the slice as needed. A positive limit turns it into a
// bounded writer that refuses to grow past limit bytes.
type sliceWriter struct {
	buf   []byte
	limit int
}

func (w *sliceWriter) fits(n int) bool {
	return w.limit <= 0 || len(w.buf)+n <= w.limit
}

func (w *sliceWriter) WriteByte(b byte) error {
	if !w.fits(1) {
		return ErrBufferOverflow
	}
	w.buf = append(w.buf, b)
	return nil
}

func (w *sliceWriter) WriteString(s string) error {
	if !w.fits(len(s)) {
		return ErrBufferOverflow
	}
	w.buf = append(w.buf, s...)
	return nil
}

func (w *sliceWriter) WriteBytes(data []byte) error {
	if !w.fits(len(data)) {
		return ErrBufferOverflow
	}
	w.buf = append(w.buf, data...)
	return nil
}

// fixedWriter writes to a caller owned region and never allocates.
// pos never exceeds len(buf).
type fixedWriter struct {
	buf []byte
	pos int
}

func (w *fixedWriter) WriteByte(b byte) error {
	if w.pos >= len(w.buf) {
		return ErrBufferOverflow
	}
	w.buf[w.pos] = b
	w.pos++
	return nil
}

func (w *fixedWriter) WriteString(s string) error {
	if w.pos+len(s) > len(w.buf) {
		return ErrBufferOverflow
	}
	copy(w.buf[w.pos:], s)
	w.pos += len(s)
	return nil
}

func (w *fixedWriter) WriteBytes(data []byte) error {
	if w.pos+len(data) > len(w.buf) {
		return ErrBufferOverflow
	}
	copy(w.buf[w.pos:], data)
	w.pos += len(data)
	return nil
}
