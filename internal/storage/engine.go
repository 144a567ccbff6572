package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tickstate-go/internal/storage/partlog"
	"github.com/yndnr/tickstate-go/internal/storage/snapshot"
)

// Default sub-directories under Config.DataDir.
const (
	DefaultLogDir         = "logs"
	DefaultSnapshotDir    = "snapshots"
	DefaultCredentialsDir = "credentials"
)

// Config configures the storage engine.
type Config struct {
	// DataDir is the base directory for all storage files.
	DataDir string

	Log partlog.Config

	Snapshot snapshot.Config

	// Encryption is applied to snapshot data blocks when Secret is set.
	Encryption snapshot.EncryptionConfig

	KV KVConfig

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:  dataDir,
		Log:      partlog.DefaultConfig(filepath.Join(dataDir, DefaultLogDir)),
		Snapshot: snapshot.Config{Dir: filepath.Join(dataDir, DefaultSnapshotDir)},
		KV:       DefaultKVConfig(filepath.Join(dataDir, DefaultCredentialsDir)),
		Logger:   slog.Default(),
	}
}

// Engine bundles the durable stores of one node.
type Engine struct {
	Logs        *partlog.Store
	Snapshots   *snapshot.Store
	Credentials *CredentialStore

	kv     *BadgerEngine
	logger *slog.Logger
}

// New opens every store. Empty sub-store directories default to
// DataDir-relative paths.
func New(cfg Config) (*Engine, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("storage: data_dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	defaults := DefaultConfig(cfg.DataDir)
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = defaults.Log.Dir
	}
	if cfg.Snapshot.Dir == "" {
		cfg.Snapshot.Dir = defaults.Snapshot.Dir
	}
	if cfg.KV.Dir == "" {
		cfg.KV.Dir = defaults.KV.Dir
	}

	cipher, err := snapshot.NewCipher(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("storage: snapshot cipher: %w", err)
	}
	if cipher != nil {
		cfg.Snapshot.Cipher = cipher
	}

	logs, err := partlog.NewStore(cfg.Log, cfg.Logger.With("component", "partlog"))
	if err != nil {
		return nil, fmt.Errorf("storage: open partition logs: %w", err)
	}
	snaps, err := snapshot.NewStore(cfg.Snapshot, cfg.Logger.With("component", "snapshot"))
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("storage: open snapshots: %w", err)
	}
	kv, err := NewBadgerEngine(cfg.KV, cfg.Logger.With("component", "badger"))
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("storage: open credential registry: %w", err)
	}

	cfg.Logger.Info("storage engine opened",
		"data_dir", cfg.DataDir,
		"encrypted_snapshots", cipher != nil)

	return &Engine{
		Logs:        logs,
		Snapshots:   snaps,
		Credentials: NewCredentialStore(kv),
		kv:          kv,
		logger:      cfg.Logger,
	}, nil
}

// RegisterMetrics registers partition log and Badger metrics.
func (e *Engine) RegisterMetrics(registry prometheus.Registerer) *Engine {
	e.Logs.RegisterMetrics(registry)
	e.kv.RegisterMetrics(registry)
	return e
}

// Close closes every store and joins their errors.
func (e *Engine) Close() error {
	e.logger.Info("shutting down storage engine")
	err := errors.Join(e.Logs.Close(), e.kv.Close())
	if err != nil {
		e.logger.Error("storage engine shutdown failed", "error", err)
		return err
	}
	e.logger.Info("storage engine shutdown complete")
	return nil
}
