package bitio

import (
	"encoding/binary"
	"math"
)

// Writer is an append-only binary writer.
//
// The zero value is ready to use. A Writer can be reused across ticks via
// Reset, which keeps the underlying buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// AppendWriter returns a Writer that appends to buf.
func AppendWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Bytes returns the written bytes. The slice aliases the internal buffer
// and is only valid until the next write or Reset.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset discards written bytes but keeps the allocated buffer.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// ReserveBits appends a zeroed bit-vector of n bits and returns its offset.
// Bits are filled afterwards with SetBit.
func (w *Writer) ReserveBits(n int) int {
	off := len(w.buf)
	size := BitVectorLen(n)
	for i := 0; i < size; i++ {
		w.buf = append(w.buf, 0)
	}
	return off
}

// SetBit sets bit i of the bit-vector reserved at off.
func (w *Writer) SetBit(off, i int) {
	w.buf[off+(i>>3)] |= 0x80 >> (uint(i) & 7)
}

// WriteBits appends a packed bit-vector for the given flags.
func (w *Writer) WriteBits(bits []bool) {
	off := w.ReserveBits(len(bits))
	for i, b := range bits {
		if b {
			w.SetBit(off, i)
		}
	}
}

// WriteUint8 appends one byte.
func (w *Writer) WriteUint8(b byte) {
	w.buf = append(w.buf, b)
}

// WriteBool appends a boolean as a single byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

// WriteUvarint appends an unsigned LEB128 integer.
func (w *Writer) WriteUvarint(v uint64) {
	w.buf = binary.AppendUvarint(w.buf, v)
}

// WriteVarint appends a zig-zag LEB128 integer.
func (w *Writer) WriteVarint(v int64) {
	w.buf = binary.AppendVarint(w.buf, v)
}

// WriteUint16 appends a fixed-width little-endian uint16.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteUint64 appends a fixed-width little-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteFloat64 appends the IEEE-754 bits of v, little-endian.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteString appends a length-prefixed string.
func (w *Writer) WriteString(s string) {
	w.WriteUvarint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteBytes appends a length-prefixed byte block.
func (w *Writer) WriteBytes(p []byte) {
	w.WriteUvarint(uint64(len(p)))
	w.buf = append(w.buf, p...)
}

// WriteRaw appends p without a length prefix.
func (w *Writer) WriteRaw(p []byte) {
	w.buf = append(w.buf, p...)
}

// BitVectorLen returns the byte length of an n-bit vector.
func BitVectorLen(n int) int {
	return (n + 7) >> 3
}

// BitAt reports whether bit i is set in a packed MSB-first vector.
func BitAt(vec []byte, i int) bool {
	return vec[i>>3]&(0x80>>(uint(i)&7)) != 0
}
