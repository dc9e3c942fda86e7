// Package binio implements the little-endian fixed-width codec used by ASG
// files, string tables and filter files.
//
// Writer and Reader keep a sticky error: after the first failure every
// further call is a no-op and Err reports the original cause. Callers write
// or read a whole section and check Err once.
package binio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrStringTooLong is returned when a short string exceeds 65535 bytes.
var ErrStringTooLong = errors.New("binio: short string longer than 65535 bytes")

// Writer encodes fixed-width values to an io.Writer.
type Writer struct {
	w   io.Writer
	buf [8]byte
	n   int64
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 { return w.n }

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		w.err = err
	}
}

// UByte1 writes one byte.
func (w *Writer) UByte1(v uint8) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

// Bool1 writes a bool as one byte.
func (w *Writer) Bool1(v bool) {
	if v {
		w.UByte1(1)
		return
	}
	w.UByte1(0)
}

// UShort2 writes a little-endian uint16.
func (w *Writer) UShort2(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.write(w.buf[:2])
}

// UInt4 writes a little-endian uint32.
func (w *Writer) UInt4(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

// ShortString writes a UShort2 length followed by the bytes of s.
func (w *Writer) ShortString(s string) {
	if w.err != nil {
		return
	}
	if len(s) > math.MaxUint16 {
		w.err = fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
		return
	}
	w.UShort2(uint16(len(s)))
	w.write([]byte(s))
}

// String writes a UInt4 length followed by the bytes of s.
func (w *Writer) String(s string) {
	w.UInt4(uint32(len(s)))
	w.write([]byte(s))
}

// Reader decodes fixed-width values from an io.Reader.
type Reader struct {
	r   io.Reader
	buf [8]byte
	err error
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first error encountered. A short read is reported as
// io.ErrUnexpectedEOF.
func (r *Reader) Err() error { return r.err }

func (r *Reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	if _, err := io.ReadFull(r.r, p); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
		return false
	}
	return true
}

// UByte1 reads one byte.
func (r *Reader) UByte1() uint8 {
	if !r.read(r.buf[:1]) {
		return 0
	}
	return r.buf[0]
}

// Bool1 reads a one-byte bool.
func (r *Reader) Bool1() bool {
	return r.UByte1() != 0
}

// UShort2 reads a little-endian uint16.
func (r *Reader) UShort2() uint16 {
	if !r.read(r.buf[:2]) {
		return 0
	}
	return binary.LittleEndian.Uint16(r.buf[:2])
}

// UInt4 reads a little-endian uint32.
func (r *Reader) UInt4() uint32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

// ShortString reads a UShort2-prefixed string.
func (r *Reader) ShortString() string {
	n := r.UShort2()
	return r.bytes(int(n))
}

// maxString bounds String lengths so a corrupt length cannot trigger a huge
// allocation.
const maxString = 1 << 28

// String reads a UInt4-prefixed string.
func (r *Reader) String() string {
	n := r.UInt4()
	if r.err == nil && n > maxString {
		r.err = fmt.Errorf("binio: string length %d exceeds limit", n)
		return ""
	}
	return r.bytes(int(n))
}

func (r *Reader) bytes(n int) string {
	if n == 0 || r.err != nil {
		return ""
	}
	p := make([]byte, n)
	if !r.read(p) {
		return ""
	}
	return string(p)
}
