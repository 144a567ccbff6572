package partlog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/pkg/bitio"
)

// File format constants.
const (
	HeaderSize      = 12
	MaxPayloadSize  = domain.MaxBlockSize
	DefaultFilePerm = 0600
	DefaultDirPerm  = 0750
)

// Default configuration values.
const (
	DefaultMaxOpenHandles = 1024
	DefaultReadBufferSize = 64 << 10
)

// Config configures the partition log store.
type Config struct {
	Dir string

	// MaxOpenHandles bounds the cached append handles.
	MaxOpenHandles int

	// SyncWrites fsyncs after every append.
	SyncWrites bool
}

// DefaultConfig returns the default store configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		MaxOpenHandles: DefaultMaxOpenHandles,
	}
}

// Store manages partition log files under one directory.
type Store struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics

	mu      sync.Mutex
	handles *lru.Cache
	closed  bool
}

type handle struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewStore creates the storage directory if needed and returns a Store.
func NewStore(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("partlog: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, DefaultDirPerm); err != nil {
		return nil, domain.ErrIOFailure.WithDetails("partlog: create dir").WithCause(err)
	}
	if cfg.MaxOpenHandles <= 0 {
		cfg.MaxOpenHandles = DefaultMaxOpenHandles
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(),
	}
	cache, err := lru.NewWithEvict(cfg.MaxOpenHandles, s.onEvict)
	if err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	s.handles = cache
	return s, nil
}

// Path returns the log file path for partition p.
func (s *Store) Path(p domain.PartitionID) string {
	return filepath.Join(s.cfg.Dir, p.String())
}

// Append writes one record to the end of p's log with a single write.
func (s *Store) Append(p domain.PartitionID, timeMs uint64, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return domain.ErrPayloadTooLarge.Detailf("%d bytes", len(payload))
	}

	w := bitio.NewWriter(HeaderSize + len(payload))
	w.WriteUint64(timeMs)
	w.WriteUint16(uint16(len(payload)))
	w.WriteUint16(0)
	w.WriteRaw(payload)
	frame := w.Bytes()

	for {
		h, err := s.resolve(p)
		if err != nil {
			return err
		}

		h.mu.Lock()
		if h.f == nil {
			// Evicted between resolve and lock.
			h.mu.Unlock()
			continue
		}
		_, err = h.f.Write(frame)
		if err == nil && s.cfg.SyncWrites {
			err = h.f.Sync()
		}
		h.mu.Unlock()

		if err != nil {
			return domain.ErrIOFailure.Detailf("append %s", p).WithCause(err)
		}
		s.metrics.appends.Inc()
		s.metrics.appendBytes.Add(float64(len(frame)))
		return nil
	}
}

// resolve returns the cached append handle for p, opening it on first use.
func (s *Store) resolve(p domain.PartitionID) (*handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	if v, ok := s.handles.Get(p); ok {
		return v.(*handle), nil
	}

	path := s.Path(p)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, DefaultFilePerm)
	if err != nil {
		return nil, domain.ErrIOFailure.Detailf("open %s", path).WithCause(err)
	}
	h := &handle{f: f, path: path}
	if evicted := s.handles.Add(p, h); evicted {
		s.metrics.evictions.Inc()
	}
	s.metrics.openHandles.Inc()
	return h, nil
}

// onEvict closes a handle leaving the cache, by capacity, Unload or Close.
func (s *Store) onEvict(key, value interface{}) {
	h := value.(*handle)
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.f == nil {
		return
	}
	if err := h.f.Close(); err != nil {
		s.logger.Warn("partlog: close handle failed", "path", h.path, "error", err)
	}
	h.f = nil
	s.metrics.openHandles.Dec()
}

// Unload closes and evicts the cached append handle of p, if any.
func (s *Store) Unload(p domain.PartitionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handles.Remove(p) {
		s.metrics.unloads.Inc()
	}
}

// OpenHandles returns the number of cached append handles.
func (s *Store) OpenHandles() int {
	return s.handles.Len()
}

// Load reads every record of p's log in append order. It opens its own
// handle and closes it before returning.
//
// On a truncated record Load returns the complete records read so far and
// an error matching domain.ErrLogCorruption.
func (s *Store) Load(p domain.PartitionID) ([]domain.Record, error) {
	path := s.Path(p)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrPartitionNotFound.WithDetails(p.String())
		}
		return nil, domain.ErrIOFailure.Detailf("open %s", path).WithCause(err)
	}
	defer f.Close()

	records, offset, err := readRecords(bufio.NewReaderSize(f, DefaultReadBufferSize))
	if errors.Is(err, domain.ErrLogCorruption) {
		s.metrics.corruptions.Inc()
		s.logger.Warn("partlog: truncated record",
			"partition", p.String(),
			"offset", offset,
			"records", len(records))
	}
	return records, err
}

// readRecords scans records until EOF. It returns the byte offset of the
// first incomplete record when the log is truncated.
func readRecords(r io.Reader) ([]domain.Record, int64, error) {
	var (
		records []domain.Record
		offset  int64
		hdr     [HeaderSize]byte
	)
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return records, offset, nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return records, offset, domain.ErrLogCorruption.Detailf("truncated header at offset %d", offset)
			}
			return records, offset, domain.ErrIOFailure.WithCause(err)
		}

		n := binary.LittleEndian.Uint16(hdr[8:10])
		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return records, offset, domain.ErrLogCorruption.Detailf("payload of %d bytes at offset %d runs past end of file", n, offset)
			}
			return records, offset, domain.ErrIOFailure.WithCause(err)
		}

		records = append(records, domain.Record{
			Time:    binary.LittleEndian.Uint64(hdr[0:8]),
			Payload: payload,
		})
		offset += HeaderSize + int64(n)
	}
}

// List returns the partitions that have a log file, in ascending order.
func (s *Store) List() ([]domain.PartitionID, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return nil, domain.ErrIOFailure.WithDetails("list partitions").WithCause(err)
	}
	var ids []domain.PartitionID
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.Contains(e.Name(), ".") {
			continue
		}
		id, err := domain.ParsePartitionID(e.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Close closes every cached handle. Further appends fail with
// domain.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.handles.Purge()
	return nil
}
