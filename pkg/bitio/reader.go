package bitio

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrShortBuffer is returned when the input ends before a value is complete.
	ErrShortBuffer = errors.New("bitio: short buffer")

	// ErrOverflow is returned for a varint that does not fit in 64 bits.
	ErrOverflow = errors.New("bitio: varint overflows 64 bits")

	// ErrLengthOutOfRange is returned for a length prefix larger than the remaining input.
	ErrLengthOutOfRange = errors.New("bitio: length prefix out of range")
)

// Reader reads values written by Writer.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader over p. The Reader does not copy p.
func NewReader(p []byte) *Reader {
	return &Reader{buf: p}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int {
	return r.off
}

// ReadBits reads an n-bit vector and returns the packed bytes.
// The returned slice aliases the input; use BitAt to test bits.
func (r *Reader) ReadBits(n int) ([]byte, error) {
	return r.next(BitVectorLen(n))
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, ErrShortBuffer
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// ReadBool reads a single-byte boolean. Any non-zero byte is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadUint8()
	return b != 0, err
}

// ReadUvarint reads an unsigned LEB128 integer.
func (r *Reader) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	switch {
	case n == 0:
		return 0, ErrShortBuffer
	case n < 0:
		return 0, ErrOverflow
	}
	r.off += n
	return v, nil
}

// ReadVarint reads a zig-zag LEB128 integer.
func (r *Reader) ReadVarint() (int64, error) {
	v, n := binary.Varint(r.buf[r.off:])
	switch {
	case n == 0:
		return 0, ErrShortBuffer
	case n < 0:
		return 0, ErrOverflow
	}
	r.off += n
	return v, nil
}

// ReadUint16 reads a fixed-width little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	p, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

// ReadUint64 reads a fixed-width little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	p, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

// ReadFloat64 reads an IEEE-754 float64.
func (r *Reader) ReadFloat64() (float64, error) {
	u, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// ReadString reads a length-prefixed string.
func (r *Reader) ReadString() (string, error) {
	p, err := r.readPrefixed()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// ReadBytes reads a length-prefixed byte block into a fresh slice.
func (r *Reader) ReadBytes() ([]byte, error) {
	p, err := r.readPrefixed()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// ReadRaw reads exactly n bytes. The returned slice aliases the input.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	return r.next(n)
}

func (r *Reader) readPrefixed() ([]byte, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		return nil, ErrLengthOutOfRange
	}
	return r.next(int(n))
}

func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, ErrShortBuffer
	}
	p := r.buf[r.off : r.off+n]
	r.off += n
	return p, nil
}
