package partlog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

func newTestStore(t *testing.T, maxHandles int) *Store {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.MaxOpenHandles = maxHandles
	s, err := NewStore(cfg, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("x")
	if cfg.Dir != "x" {
		t.Fatalf("Dir = %q, want %q", cfg.Dir, "x")
	}
	if cfg.MaxOpenHandles != DefaultMaxOpenHandles {
		t.Fatalf("MaxOpenHandles = %d, want %d", cfg.MaxOpenHandles, DefaultMaxOpenHandles)
	}
	if _, err := NewStore(Config{}, nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("NewStore(empty dir) err = %v", err)
	}
}

func TestStore_AppendLoad_Fidelity(t *testing.T) {
	s := newTestStore(t, 0)
	p := domain.PartitionID(0xdeadbeef)

	want := []domain.Record{
		{Time: 1, Payload: []byte("first")},
		{Time: 1<<63 + 5, Payload: []byte{}},
		{Time: 3, Payload: bytes.Repeat([]byte{0xAB}, MaxPayloadSize)},
		{Time: 3, Payload: []byte{0xFF, 0x00}},
	}
	for _, r := range want {
		if err := s.Append(p, r.Time, r.Payload); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Load() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Time != want[i].Time || !bytes.Equal(got[i].Payload, want[i].Payload) {
			t.Errorf("record %d = {%d, %d bytes}, want {%d, %d bytes}",
				i, got[i].Time, len(got[i].Payload), want[i].Time, len(want[i].Payload))
		}
	}
}

func TestStore_FileFormat(t *testing.T) {
	s := newTestStore(t, 0)
	p := domain.PartitionID(36)

	if err := s.Append(p, 0x0102030405060708, []byte("hi")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if s.Path(p) != s.cfg.Dir+string(os.PathSeparator)+"10" {
		t.Errorf("Path() = %q, want base-36 name", s.Path(p))
	}
	raw, err := os.ReadFile(s.Path(p))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, 0x02, 0x00, 0x00, 0x00, 'h', 'i'}
	if !bytes.Equal(raw, want) {
		t.Errorf("file = % x, want % x", raw, want)
	}

	info, err := os.Stat(s.Path(p))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != DefaultFilePerm {
		t.Errorf("file mode = %o, want %o", perm, DefaultFilePerm)
	}
}

func TestStore_UnloadResume(t *testing.T) {
	s := newTestStore(t, 0)
	p := domain.PartitionID(7)

	for i := 0; i < 3; i++ {
		if err := s.Append(p, uint64(i), []byte{byte(i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	s.Unload(p)
	if s.OpenHandles() != 0 {
		t.Fatalf("OpenHandles() = %d after Unload", s.OpenHandles())
	}
	s.Unload(p) // no-op

	for i := 3; i < 5; i++ {
		if err := s.Append(p, uint64(i), []byte{byte(i)}); err != nil {
			t.Fatalf("Append after Unload: %v", err)
		}
	}

	got, err := s.Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Load() returned %d records, want 5", len(got))
	}
	for i, r := range got {
		if r.Time != uint64(i) || r.Payload[0] != byte(i) {
			t.Errorf("record %d = %+v", i, r)
		}
	}
}

func TestStore_Eviction(t *testing.T) {
	s := newTestStore(t, 2)

	for round := 0; round < 3; round++ {
		for p := domain.PartitionID(1); p <= 5; p++ {
			if err := s.Append(p, uint64(round), []byte(fmt.Sprintf("%d-%d", p, round))); err != nil {
				t.Fatalf("Append(%d): %v", p, err)
			}
		}
		if n := s.OpenHandles(); n > 2 {
			t.Fatalf("OpenHandles() = %d, want <= 2", n)
		}
	}

	for p := domain.PartitionID(1); p <= 5; p++ {
		got, err := s.Load(p)
		if err != nil {
			t.Fatalf("Load(%d): %v", p, err)
		}
		if len(got) != 3 {
			t.Fatalf("Load(%d) returned %d records, want 3", p, len(got))
		}
		for round, r := range got {
			if want := fmt.Sprintf("%d-%d", p, round); string(r.Payload) != want {
				t.Errorf("partition %d record %d = %q, want %q", p, round, r.Payload, want)
			}
		}
	}
	if got := testutil.ToFloat64(s.metrics.evictions); got == 0 {
		t.Error("expected evictions to be counted")
	}
}

func TestStore_PayloadTooLarge(t *testing.T) {
	s := newTestStore(t, 0)
	p := domain.PartitionID(1)

	err := s.Append(p, 1, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
	if _, err := os.Stat(s.Path(p)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("rejected append created the log file: %v", err)
	}
}

func TestStore_LoadNotFound(t *testing.T) {
	s := newTestStore(t, 0)
	if _, err := s.Load(42); !errors.Is(err, domain.ErrPartitionNotFound) {
		t.Fatalf("err = %v, want ErrPartitionNotFound", err)
	}
}

func TestStore_LoadCorruption(t *testing.T) {
	tests := []struct {
		name string
		cut  int // bytes removed from the end of the file
	}{
		{"truncated payload", 1},
		{"payload missing", 3},
		{"truncated header", 3 + 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, 0)
			p := domain.PartitionID(9)
			_ = s.Append(p, 1, []byte("ok"))
			_ = s.Append(p, 2, []byte("bad"))
			s.Unload(p)

			info, err := os.Stat(s.Path(p))
			if err != nil {
				t.Fatalf("Stat: %v", err)
			}
			if err := os.Truncate(s.Path(p), info.Size()-int64(tt.cut)); err != nil {
				t.Fatalf("Truncate: %v", err)
			}

			got, err := s.Load(p)
			if !errors.Is(err, domain.ErrLogCorruption) {
				t.Fatalf("err = %v, want ErrLogCorruption", err)
			}
			if len(got) != 1 || string(got[0].Payload) != "ok" {
				t.Fatalf("Load() = %+v, want only the first record", got)
			}
			if n := testutil.ToFloat64(s.metrics.corruptions); n != 1 {
				t.Errorf("corruptions = %v, want 1", n)
			}
		})
	}
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t, 0)
	for _, p := range []domain.PartitionID{100, 3, 36} {
		if err := s.Append(p, 0, nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := os.WriteFile(s.cfg.Dir+"/3.snap", []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []domain.PartitionID{3, 36, 100}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestStore_Close(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Append(1, 0, []byte("x")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Append(1, 0, []byte("y")); !errors.Is(err, domain.ErrStoreClosed) {
		t.Fatalf("Append after Close err = %v, want ErrStoreClosed", err)
	}
	if got, err := s.Load(1); err != nil || len(got) != 1 {
		t.Fatalf("Load after Close = %d records, %v", len(got), err)
	}
}

func TestStore_RegisterMetrics(t *testing.T) {
	s := newTestStore(t, 0)
	reg := prometheus.NewRegistry()
	s.RegisterMetrics(reg)

	if err := s.Append(1, 0, []byte("abc")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if n := testutil.ToFloat64(s.metrics.appends); n != 1 {
		t.Errorf("appends = %v, want 1", n)
	}
	if n := testutil.ToFloat64(s.metrics.appendBytes); n != HeaderSize+3 {
		t.Errorf("append bytes = %v, want %d", n, HeaderSize+3)
	}
	if n := testutil.ToFloat64(s.metrics.openHandles); n != 1 {
		t.Errorf("open handles = %v, want 1", n)
	}
}
