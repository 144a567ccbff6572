package confloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testConfig struct {
	Server struct {
		AdminAddr string `koanf:"admin_addr"`
		Enabled   bool   `koanf:"enabled"`
	} `koanf:"server"`
	Storage struct {
		DataDir        string `koanf:"data_dir"`
		MaxOpenHandles int    `koanf:"max_open_handles"`
	} `koanf:"storage"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  admin_addr: "0.0.0.0:7070"
  enabled: true
storage:
  data_dir: /from/file
  max_open_handles: 10
`)
	t.Setenv("TICKSTATE_STORAGE__DATA_DIR", "/from/env")
	t.Setenv("TICKSTATE_STORAGE__MAX_OPEN_HANDLES", "20")

	var cfg testConfig
	cfg.Server.AdminAddr = "default"
	l := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"storage.max_open_handles": 30}),
	)
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := testConfig{}
	want.Server.AdminAddr = "0.0.0.0:7070"
	want.Server.Enabled = true
	want.Storage.DataDir = "/from/env"
	want.Storage.MaxOpenHandles = 30
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  enabled: true\n")
	var cfg testConfig
	cfg.Server.AdminAddr = "127.0.0.1:7070"
	cfg.Storage.MaxOpenHandles = 1024

	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.AdminAddr != "127.0.0.1:7070" || cfg.Storage.MaxOpenHandles != 1024 {
		t.Errorf("defaults overwritten: %+v", cfg)
	}
	if !cfg.Server.Enabled {
		t.Error("file value not applied")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") = %v", err)
	}
	if err := l.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) succeeded")
	}
	if err := l.LoadFile(writeConfig(t, "")); err != nil {
		t.Errorf("LoadFile(empty) = %v", err)
	}
	if err := l.LoadFile(writeConfig(t, "server: [unclosed")); err == nil {
		t.Error("LoadFile(invalid yaml) succeeded")
	}
}

func TestLoader_EnvKey(t *testing.T) {
	l := NewLoader(WithEnvPrefix("APP_"))
	tests := map[string]string{
		"APP_LOG__LEVEL":         "log.level",
		"APP_STORAGE__DATA_DIR":  "storage.data_dir",
		"APP_FORK__RATE__BURST":  "fork.rate.burst",
		"APP_TOPLEVEL_WITH_UNDR": "toplevel_with_undr",
	}
	for in, want := range tests {
		if got := l.envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"log.level": "debug"}); err != nil {
		t.Fatal(err)
	}
	if got := l.String("log.level"); got != "debug" {
		t.Errorf("log.level = %q", got)
	}
	if !l.Exists("log.level") || l.Exists("log.format") {
		t.Error("Exists mismatch")
	}
	if diff := cmp.Diff([]string{"log.level"}, l.Keys()); diff != "" {
		t.Errorf("Keys (-want +got):\n%s", diff)
	}
}
