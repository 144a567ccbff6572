package storage

import (
	"context"
	"time"
)

// KVEngine is the embedded key-value storage used by the credential
// registry. Implementations are safe for concurrent use and durable
// across restarts unless configured in-memory.
type KVEngine interface {
	// Get returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	Set(ctx context.Context, key, value []byte) error

	// SetWithTTL stores a key that expires after ttl.
	SetWithTTL(ctx context.Context, key, value []byte, ttl time.Duration) error

	// Update applies several writes atomically.
	Update(ctx context.Context, fn func(w KVWriter) error) error

	Delete(ctx context.Context, key []byte) error

	// Scan iterates over keys with a given prefix.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// GC reclaims value log space. Returns the number of rewrite rounds.
	GC(ctx context.Context) (int, error)

	Stats(ctx context.Context) (*KVStats, error)

	Close() error
}

// KVWriter is the write side of an atomic KVEngine.Update.
type KVWriter interface {
	Set(key, value []byte, ttl time.Duration) error
	Delete(key []byte) error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	TotalSize    uint64
	LSMSize      uint64
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	GCRounds uint64
}

// KVConfig configures an embedded KV engine.
type KVConfig struct {
	Dir string

	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 16MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// SyncWrites enables fsync after each write.
	SyncWrites bool

	// InMemory keeps all data in memory; Dir is ignored.
	InMemory bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        16 << 20,
		ValueLogFileSize: 64 << 20,
		SyncWrites:       true,
	}
}
