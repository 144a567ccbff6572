package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/core/schema"
	"github.com/yndnr/tickstate-go/pkg/crypto/adaptive"
)

// Magic bytes identify snapshot files.
var magicBytes = []byte("TKSNAP01")

const (
	fileExtension = ".snap"
	checksumSize  = 32
	headerVersion = 1
	lengthSize    = 4

	DefaultFilePerm = 0600
	DefaultDirPerm  = 0750
)

// Header is the JSON header of a snapshot file.
type Header struct {
	Version           int                `json:"version"`
	Partition         domain.PartitionID `json:"partition"`
	CreatedAt         int64              `json:"created_at"`
	SchemaFingerprint string             `json:"schema_fingerprint"`
	Encrypted         bool               `json:"encrypted"`
}

// Info describes a snapshot file.
type Info struct {
	Header
	Size     int64  `json:"size"`
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// Config configures the snapshot store.
type Config struct {
	Dir string

	// Cipher encrypts the data block when set.
	Cipher adaptive.Cipher
}

// Store reads and writes per-partition snapshot files.
type Store struct {
	cfg    Config
	logger *slog.Logger
}

// NewStore creates the snapshot directory if needed and returns a Store.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("snapshot: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, DefaultDirPerm); err != nil {
		return nil, domain.ErrIOFailure.WithDetails("snapshot: create dir").WithCause(err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cfg: cfg, logger: logger}, nil
}

// Path returns the snapshot file path for partition p.
func (s *Store) Path(p domain.PartitionID) string {
	return filepath.Join(s.cfg.Dir, p.String()+fileExtension)
}

// Exists reports whether p has a snapshot file.
func (s *Store) Exists(p domain.PartitionID) bool {
	_, err := os.Stat(s.Path(p))
	return err == nil
}

// Save encodes n with type t and atomically replaces p's snapshot file.
func (s *Store) Save(p domain.PartitionID, t *schema.Type, n *schema.Node) (*Info, error) {
	data, err := schema.MarshalValue(t, n)
	if err != nil {
		return nil, err
	}

	hdr := Header{
		Version:           headerVersion,
		Partition:         p,
		CreatedAt:         time.Now().UnixMilli(),
		SchemaFingerprint: schema.FingerprintString(t),
		Encrypted:         s.cfg.Cipher != nil,
	}
	if s.cfg.Cipher != nil {
		data, err = s.cfg.Cipher.Encrypt(data, []byte(hdr.SchemaFingerprint))
		if err != nil {
			return nil, domain.ErrInternal.WithDetails("snapshot: encrypt").WithCause(err)
		}
	}

	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		return nil, domain.ErrInternal.WithDetails("snapshot: marshal header").WithCause(err)
	}

	var buf bytes.Buffer
	buf.Grow(len(magicBytes) + 2*lengthSize + len(hdrJSON) + len(data) + checksumSize)
	buf.Write(magicBytes)
	writeBlock(&buf, hdrJSON)
	writeBlock(&buf, data)
	sum := sha256.Sum256(buf.Bytes())
	buf.Write(sum[:])

	path := s.Path(p)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return nil, err
	}

	s.logger.Debug("snapshot saved", "partition", p.String(), "size", buf.Len())
	return &Info{
		Header:   hdr,
		Size:     int64(buf.Len()),
		Path:     path,
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// Load reads p's snapshot and decodes it with type t.
func (s *Store) Load(p domain.PartitionID, t *schema.Type) (*schema.Node, *Info, error) {
	raw, info, err := s.read(p)
	if err != nil {
		return nil, nil, err
	}

	if want := schema.FingerprintString(t); info.SchemaFingerprint != want {
		return nil, nil, domain.ErrSchemaMismatch.Detailf("snapshot fingerprint %s, schema %s", info.SchemaFingerprint, want)
	}

	data := raw
	if info.Encrypted {
		if s.cfg.Cipher == nil {
			return nil, nil, domain.ErrSnapshotCorrupted.WithDetails("snapshot is encrypted and no key is configured")
		}
		data, err = s.cfg.Cipher.Decrypt(raw, []byte(info.SchemaFingerprint))
		if err != nil {
			return nil, nil, domain.ErrSnapshotCorrupted.WithDetails("decrypt").WithCause(err)
		}
	}

	n, err := schema.UnmarshalValue(t, data)
	if err != nil {
		return nil, nil, err
	}
	return n, info, nil
}

// Stat validates p's snapshot file and returns its metadata.
func (s *Store) Stat(p domain.PartitionID) (*Info, error) {
	_, info, err := s.read(p)
	return info, err
}

// read validates framing and checksum and returns the data block.
func (s *Store) read(p domain.PartitionID) ([]byte, *Info, error) {
	path := s.Path(p)
	file, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, domain.ErrSnapshotNotFound.WithDetails(p.String())
		}
		return nil, nil, domain.ErrIOFailure.Detailf("read %s", path).WithCause(err)
	}

	if len(file) < len(magicBytes)+2*lengthSize+checksumSize || !bytes.Equal(file[:len(magicBytes)], magicBytes) {
		return nil, nil, domain.ErrSnapshotCorrupted.WithDetails("invalid magic")
	}
	body, trailer := file[:len(file)-checksumSize], file[len(file)-checksumSize:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], trailer) {
		return nil, nil, domain.ErrSnapshotCorrupted.WithDetails("checksum mismatch")
	}

	r := bytes.NewReader(body[len(magicBytes):])
	hdrJSON, err := readBlock(r)
	if err != nil {
		return nil, nil, domain.ErrSnapshotCorrupted.WithDetails("header").WithCause(err)
	}
	data, err := readBlock(r)
	if err != nil {
		return nil, nil, domain.ErrSnapshotCorrupted.WithDetails("data").WithCause(err)
	}
	if r.Len() != 0 {
		return nil, nil, domain.ErrSnapshotCorrupted.Detailf("%d trailing bytes", r.Len())
	}

	info := &Info{
		Size:     int64(len(file)),
		Path:     path,
		Checksum: hex.EncodeToString(trailer),
	}
	if err := json.Unmarshal(hdrJSON, &info.Header); err != nil {
		return nil, nil, domain.ErrSnapshotCorrupted.WithDetails("header json").WithCause(err)
	}
	if info.Version != headerVersion {
		return nil, nil, domain.ErrSnapshotCorrupted.Detailf("unsupported version %d", info.Version)
	}
	return data, info, nil
}

// Copy duplicates src's snapshot file byte for byte as dst's. It fails
// with domain.ErrSnapshotExists if dst already has one.
func (s *Store) Copy(src, dst domain.PartitionID) error {
	if s.Exists(dst) {
		return domain.ErrSnapshotExists.WithDetails(dst.String())
	}
	data, err := os.ReadFile(s.Path(src))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrSnapshotNotFound.WithDetails(src.String())
		}
		return domain.ErrIOFailure.Detailf("read %s", s.Path(src)).WithCause(err)
	}
	return writeFileAtomic(s.Path(dst), data)
}

// Delete removes p's snapshot file. Missing files are not an error.
func (s *Store) Delete(p domain.PartitionID) error {
	if err := os.Remove(s.Path(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.ErrIOFailure.Detailf("remove %s", s.Path(p)).WithCause(err)
	}
	return nil
}

func writeBlock(buf *bytes.Buffer, p []byte) {
	var n [lengthSize]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(p)))
	buf.Write(n[:])
	buf.Write(p)
}

func readBlock(r *bytes.Reader) ([]byte, error) {
	var n [lengthSize]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(n[:])
	if int64(size) > int64(r.Len()) {
		return nil, io.ErrUnexpectedEOF
	}
	p := make([]byte, size)
	_, err := io.ReadFull(r, p)
	return p, err
}

// writeFileAtomic writes data to a temp file in the target directory,
// syncs it and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return domain.ErrIOFailure.WithDetails("snapshot: create temp file").WithCause(err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.ErrIOFailure.WithDetails("snapshot: write").WithCause(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return domain.ErrIOFailure.WithDetails("snapshot: sync").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		return domain.ErrIOFailure.WithDetails("snapshot: close").WithCause(err)
	}
	if err := os.Chmod(tmpPath, DefaultFilePerm); err != nil {
		return domain.ErrIOFailure.WithDetails("snapshot: chmod").WithCause(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return domain.ErrIOFailure.WithDetails("snapshot: rename").WithCause(err)
	}
	return nil
}
