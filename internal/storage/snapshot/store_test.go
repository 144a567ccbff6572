package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yndnr/tickstate-go/internal/core/domain"
	"github.com/yndnr/tickstate-go/internal/core/schema"
)

var boardType = schema.Object("Board",
	schema.F("turn", schema.Uint()),
	schema.F("cells", schema.Sequence(schema.Optional(schema.String()))),
)

func board(turn uint64, cells ...*schema.Node) *schema.Node {
	return schema.NewObject(schema.NewUint(turn), schema.NewSequence(cells...))
}

func newTestStore(t *testing.T, secret string) *Store {
	t.Helper()
	c, err := NewCipher(EncryptionConfig{Secret: []byte(secret)})
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	s, err := NewStore(Config{Dir: t.TempDir(), Cipher: c}, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	for _, secret := range []string{"", "0123456789abcdef-secret"} {
		name := "plain"
		if secret != "" {
			name = "encrypted"
		}
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t, secret)
			p := domain.PartitionID(1234)
			want := board(3, schema.NewString("x"), nil, schema.NewString("o"))

			info, err := s.Save(p, boardType, want)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if info.Encrypted != (secret != "") || info.Partition != p {
				t.Errorf("Save() info = %+v", info)
			}
			if filepath.Base(info.Path) != p.String()+".snap" {
				t.Errorf("Path = %q", info.Path)
			}

			got, loaded, err := s.Load(p, boardType)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("Load() = %s, want %s", got, want)
			}
			if loaded.Checksum != info.Checksum {
				t.Errorf("checksum = %s, want %s", loaded.Checksum, info.Checksum)
			}
		})
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	s := newTestStore(t, "")
	p := domain.PartitionID(5)
	if _, err := s.Save(p, boardType, board(1)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Save(p, boardType, board(2)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _, err := s.Load(p, boardType)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Child(0).AsUint() != 2 {
		t.Errorf("turn = %d, want 2", got.Child(0).AsUint())
	}

	entries, _ := os.ReadDir(s.cfg.Dir)
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp files left behind?)", len(entries))
	}
}

func TestStore_SchemaDrift(t *testing.T) {
	s := newTestStore(t, "")
	p := domain.PartitionID(5)
	if _, err := s.Save(p, boardType, board(1)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	drifted := schema.Object("Board", schema.F("turn", schema.Int()), schema.F("cells", schema.Sequence(schema.Optional(schema.String()))))
	if _, _, err := s.Load(p, drifted); !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
}

func TestStore_Corruption(t *testing.T) {
	s := newTestStore(t, "")
	p := domain.PartitionID(5)
	if _, err := s.Save(p, boardType, board(1, schema.NewString("x"))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(s.Path(p))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"flipped data byte", func(b []byte) []byte { b[len(b)-checksumSize-1] ^= 0xFF; return b }},
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"truncated", func(b []byte) []byte { return b[:len(b)-5] }},
		{"too short", func(b []byte) []byte { return b[:6] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(bytes.Clone(raw))
			if err := os.WriteFile(s.Path(p), data, DefaultFilePerm); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, _, err := s.Load(p, boardType); !errors.Is(err, domain.ErrSnapshotCorrupted) {
				t.Fatalf("err = %v, want ErrSnapshotCorrupted", err)
			}
		})
	}
}

func TestStore_EncryptedNeedsKey(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewCipher(EncryptionConfig{Secret: []byte("0123456789abcdef-secret")})
	enc, _ := NewStore(Config{Dir: dir, Cipher: c}, nil)
	if _, err := enc.Save(1, boardType, board(1)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	plain, _ := NewStore(Config{Dir: dir}, nil)
	if _, _, err := plain.Load(1, boardType); !errors.Is(err, domain.ErrSnapshotCorrupted) {
		t.Fatalf("load without key err = %v", err)
	}

	other, _ := NewCipher(EncryptionConfig{Secret: []byte("another-secret-0123456")})
	wrong, _ := NewStore(Config{Dir: dir, Cipher: other}, nil)
	if _, _, err := wrong.Load(1, boardType); !errors.Is(err, domain.ErrSnapshotCorrupted) {
		t.Fatalf("load with wrong key err = %v", err)
	}
}

func TestStore_Copy(t *testing.T) {
	s := newTestStore(t, "0123456789abcdef-secret")
	src, dst := domain.PartitionID(10), domain.PartitionID(20)
	if _, err := s.Save(src, boardType, board(9, schema.NewString("x"))); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Copy(src, dst); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	a, _ := os.ReadFile(s.Path(src))
	b, _ := os.ReadFile(s.Path(dst))
	if !bytes.Equal(a, b) {
		t.Fatal("copy is not byte-identical")
	}
	got, _, err := s.Load(dst, boardType)
	if err != nil {
		t.Fatalf("Load(dst): %v", err)
	}
	if got.Child(0).AsUint() != 9 {
		t.Errorf("copied turn = %d", got.Child(0).AsUint())
	}

	if err := s.Copy(src, dst); !errors.Is(err, domain.ErrSnapshotExists) {
		t.Errorf("second Copy err = %v, want ErrSnapshotExists", err)
	}
	if err := s.Copy(99, 100); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Errorf("Copy(missing) err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestStore_ExistsDelete(t *testing.T) {
	s := newTestStore(t, "")
	p := domain.PartitionID(3)
	if s.Exists(p) {
		t.Fatal("Exists() = true before Save")
	}
	if _, _, err := s.Load(p, boardType); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("Load(missing) err = %v", err)
	}
	if _, err := s.Save(p, boardType, board(0)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !s.Exists(p) {
		t.Fatal("Exists() = false after Save")
	}
	if info, err := s.Stat(p); err != nil || info.Partition != p {
		t.Fatalf("Stat() = %+v, %v", info, err)
	}
	if err := s.Delete(p); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(p); err != nil {
		t.Fatalf("Delete(missing): %v", err)
	}
	if s.Exists(p) {
		t.Error("Exists() = true after Delete")
	}
}

func TestNewCipher(t *testing.T) {
	c, err := NewCipher(EncryptionConfig{})
	if err != nil || c != nil {
		t.Fatalf("NewCipher(empty) = %v, %v", c, err)
	}
	if _, err := NewCipher(EncryptionConfig{Secret: []byte("short")}); err == nil {
		t.Error("short secret should fail")
	}
	c, err = NewCipher(EncryptionConfig{Secret: []byte("0123456789abcdef"), Algorithm: "chacha20-poly1305"})
	if err != nil || c.Type() != "chacha20-poly1305" {
		t.Fatalf("NewCipher(chacha) = %v, %v", c, err)
	}
}
