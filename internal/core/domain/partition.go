package domain

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
)

// PartitionID names one session partition: one append log and one
// latest-snapshot file. It is rendered in base-36 on disk and in URLs.
type PartitionID uint64

// NewPartitionID returns a non-zero partition id drawn from crypto/rand.
func NewPartitionID() (PartitionID, error) {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, ErrInternal.WithCause(err)
		}
		if id := PartitionID(binary.LittleEndian.Uint64(b[:])); id != 0 {
			return id, nil
		}
	}
}

// ParsePartitionID parses a base-36 partition id.
func ParsePartitionID(s string) (PartitionID, error) {
	v, err := strconv.ParseUint(s, 36, 64)
	if err != nil {
		return 0, ErrInvalidArgument.Detailf("partition id %q", s).WithCause(err)
	}
	return PartitionID(v), nil
}

// String returns the base-36 form.
func (p PartitionID) String() string {
	return strconv.FormatUint(uint64(p), 36)
}

// MarshalText implements encoding.TextMarshaler.
func (p PartitionID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PartitionID) UnmarshalText(text []byte) error {
	v, err := ParsePartitionID(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
