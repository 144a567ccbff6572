// Package bitio provides the low-level byte and bit framing used by the
// delta wire codec.
//
// Writer appends to a growable byte slice and never seeks backward, except
// to fill bits inside a bit-vector it has already reserved. Reader consumes
// a byte slice sequentially and reports truncation instead of panicking.
//
// Bit-vectors are packed MSB-first: bit 0 is the high bit of the first byte.
// A vector of n bits occupies (n+7)/8 bytes; trailing padding bits are zero.
//
// Integers:
//
//   - Uvarint / Varint: LEB128 as in encoding/binary (Varint is zig-zag)
//   - Uint16 / Uint64: fixed-width little-endian
//   - Float64: IEEE-754 bits, little-endian
//
// Strings and byte blocks are prefixed by their uvarint length.
package bitio
