package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/core/schema"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/data")
	if cfg.Log.Dir != filepath.Join("/data", DefaultLogDir) {
		t.Errorf("Log.Dir = %q", cfg.Log.Dir)
	}
	if cfg.Snapshot.Dir != filepath.Join("/data", DefaultSnapshotDir) {
		t.Errorf("Snapshot.Dir = %q", cfg.Snapshot.Dir)
	}
	if cfg.KV.Dir != filepath.Join("/data", DefaultCredentialsDir) {
		t.Errorf("KV.Dir = %q", cfg.KV.Dir)
	}
}

func TestEngine_New(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty data dir")
	}

	dir := t.TempDir()
	cfg := Config{DataDir: dir}
	cfg.KV.Badger = DefaultBadgerConfig()
	cfg.KV.Badger.GCInterval = "1h"
	cfg.Encryption.Secret = []byte("0123456789abcdef0123456789abcdef")

	engine, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	engine.RegisterMetrics(prometheus.NewRegistry())

	for _, sub := range []string{DefaultLogDir, DefaultSnapshotDir, DefaultCredentialsDir} {
		if _, err := os.Stat(filepath.Join(dir, sub)); err != nil {
			t.Errorf("sub directory %s: %v", sub, err)
		}
	}

	// Every store is usable through the bundle.
	p := domain.PartitionID(99)
	if err := engine.Logs.Append(p, 1, []byte{1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	typ := schema.Object("Counter", schema.F("n", schema.Int()))
	info, err := engine.Snapshots.Save(p, typ, schema.NewObject(schema.NewInt(3)))
	if err != nil {
		t.Fatalf("Save snapshot: %v", err)
	}
	if !info.Encrypted {
		t.Error("snapshot not encrypted with configured secret")
	}
	c, err := domain.NewCredential(p, "alice", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Credentials.Save(context.Background(), c); err != nil {
		t.Fatalf("Save credential: %v", err)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
