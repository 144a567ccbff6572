package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// BadgerEngine implements KVEngine using Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	lastGCTime atomic.Int64 // Unix milliseconds
	gcRounds   atomic.Uint64
	closed     atomic.Bool

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsGCRounds     prometheus.Counter

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerEngine opens a Badger database and starts its GC loop.
func NewBadgerEngine(cfg KVConfig, logger *slog.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" && !cfg.Badger.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.Badger.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	if cfg.Badger.CacheSize > 0 {
		opts.BlockCacheSize = cfg.Badger.CacheSize
	}
	if cfg.Badger.ValueLogFileSize > 0 && !cfg.Badger.InMemory {
		opts.ValueLogFileSize = cfg.Badger.ValueLogFileSize
	}
	opts.SyncWrites = cfg.Badger.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	e := &BadgerEngine{
		db:     db,
		cfg:    cfg.Badger,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go e.gcLoop()

	logger.Info("badger engine started",
		"dir", cfg.Dir,
		"in_memory", cfg.Badger.InMemory,
		"gc_interval", cfg.Badger.GCInterval)

	return e, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	return e.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a key-value pair that expires after ttl. A zero ttl
// never expires.
func (e *BadgerEngine) SetWithTTL(ctx context.Context, key, value []byte, ttl time.Duration) error {
	return e.Update(ctx, func(w KVWriter) error {
		return w.Set(key, value, ttl)
	})
}

// Update runs fn in one read-write transaction.
func (e *BadgerEngine) Update(ctx context.Context, fn func(w KVWriter) error) error {
	return e.db.Update(func(txn *badger.Txn) error {
		return fn(badgerWriter{txn: txn})
	})
}

// Delete removes a key.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Scan iterates over keys with a given prefix.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	return e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				break
			}
		}
		return nil
	})
}

// GC runs value log GC until Badger reports nothing left to rewrite.
func (e *BadgerEngine) GC(ctx context.Context) (int, error) {
	if e.cfg.InMemory {
		return 0, nil
	}
	start := time.Now()
	rounds := 0
	for ctx.Err() == nil {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return rounds, fmt.Errorf("gc: %w", err)
		}
		rounds++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRounds.Add(uint64(rounds))
	if e.metricsGCRounds != nil {
		e.metricsGCRounds.Add(float64(rounds))
	}
	e.logger.Debug("gc completed", "rounds", rounds, "elapsed", time.Since(start))
	return rounds, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats(ctx context.Context) (*KVStats, error) {
	lsm, vlog := e.db.Size()
	return &KVStats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   e.lastGCTime.Load(),
		GCRounds:     e.gcRounds.Load(),
	}, nil
}

// Close stops the GC loop and closes the database.
func (e *BadgerEngine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(e.stopCh)
	<-e.doneCh

	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	e.logger.Info("badger engine shutdown complete")
	return nil
}

// RegisterMetrics registers Badger metrics with Prometheus.
//
// This should be called once during initialization.
// Returns the engine for method chaining.
func (e *BadgerEngine) RegisterMetrics(registry prometheus.Registerer) *BadgerEngine {
	e.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tickstate",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	e.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tickstate",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	e.metricsGCRounds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tickstate",
		Subsystem: "badger",
		Name:      "gc_rounds_total",
		Help:      "Value log files rewritten by garbage collection",
	})
	registry.MustRegister(e.metricsLSMSize, e.metricsValueLogSize, e.metricsGCRounds)
	e.updateSizeMetrics()
	return e
}

func (e *BadgerEngine) updateSizeMetrics() {
	if e.metricsLSMSize == nil {
		return
	}
	lsm, vlog := e.db.Size()
	e.metricsLSMSize.Set(float64(lsm))
	e.metricsValueLogSize.Set(float64(vlog))
}

// gcLoop runs periodic garbage collection and refreshes size metrics.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	interval, err := time.ParseDuration(e.cfg.GCInterval)
	if err != nil || interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := e.GC(ctx); err != nil {
				e.logger.Error("auto gc failed", "error", err)
			}
			cancel()
			e.updateSizeMetrics()
		case <-e.stopCh:
			return
		}
	}
}

type badgerWriter struct {
	txn *badger.Txn
}

func (w badgerWriter) Set(key, value []byte, ttl time.Duration) error {
	entry := badger.NewEntry(key, value)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	return w.txn.SetEntry(entry)
}

func (w badgerWriter) Delete(key []byte) error {
	return w.txn.Delete(key)
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
