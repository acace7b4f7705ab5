package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/layout"
)

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := Path(), "/custom/config/depviz/config.yml"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := Path(), filepath.Join(home, ".config", "depviz", "config.yml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg := &Config{}

	if cfg.Server() != client.DefaultBaseURL {
		t.Errorf("Server() = %q", cfg.Server())
	}
	if cfg.Layout() != layout.Default {
		t.Errorf("Layout() = %q", cfg.Layout())
	}
	if cfg.DebounceWindow() != 300*time.Millisecond {
		t.Errorf("DebounceWindow() = %v", cfg.DebounceWindow())
	}
	if cfg.Limit() != 500 {
		t.Errorf("Limit() = %d", cfg.Limit())
	}
	if got, want := cfg.Database(), "/data/depviz/depviz.db"; got != want {
		t.Errorf("Database() = %q, want %q", got, want)
	}
	if cfg.Listen() != DefaultListenAddr {
		t.Errorf("Listen() = %q", cfg.Listen())
	}
}

func TestLoad_NotFound(t *testing.T) {
	ResetCache()
	defer ResetCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvServer, "")
	t.Setenv(EnvDB, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("Load() = %+v, want empty config", cfg)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	ResetCache()
	defer ResetCache()

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv(EnvServer, "")
	t.Setenv(EnvDB, "/tmp/override.db")

	path := filepath.Join(tmpDir, ConfigDir, ConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	data := "server_url: http://deps.example:9000\ndefault_layout: cose\ndebounce_ms: 150\ntable_limit: 50\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server() != "http://deps.example:9000" {
		t.Errorf("Server() = %q", cfg.Server())
	}
	if cfg.Layout() != layout.Cose {
		t.Errorf("Layout() = %q", cfg.Layout())
	}
	if cfg.DebounceWindow() != 150*time.Millisecond {
		t.Errorf("DebounceWindow() = %v", cfg.DebounceWindow())
	}
	if cfg.Limit() != 50 {
		t.Errorf("Limit() = %d", cfg.Limit())
	}
	if cfg.Database() != "/tmp/override.db" {
		t.Errorf("Database() = %q, want env override", cfg.Database())
	}

	// cached
	again, _ := Load()
	if again != cfg {
		t.Error("second Load() should return the cached config")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "server_url: [unterminated"},
		{"bad layout", "default_layout: spiral"},
		{"negative limit", "table_limit: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFile)
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFile(path); err == nil {
				t.Error("LoadFile() expected error")
			}
		})
	}
}

func TestSetGet(t *testing.T) {
	cfg := &Config{}
	tests := []struct {
		key, value, want string
	}{
		{"server_url", "http://x:1/", "http://x:1"},
		{"default-layout", "grid", "grid"},
		{"DEBOUNCE_MS", "120", "120"},
		{"table-limit", "25", "25"},
		{"rate-limit", "2.5", "2.5"},
		{"listen-addr", "127.0.0.1:9999", "127.0.0.1:9999"},
	}
	for _, tt := range tests {
		if err := cfg.Set(tt.key, tt.value); err != nil {
			t.Fatalf("Set(%q) error = %v", tt.key, err)
		}
		got, err := cfg.Get(tt.key)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", tt.key, err)
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestSet_RejectsInvalid(t *testing.T) {
	cfg := &Config{DefaultLayout: "grid"}

	if err := cfg.Set("default-layout", "spiral"); err == nil {
		t.Error("expected error for invalid layout")
	}
	if cfg.DefaultLayout != "grid" {
		t.Errorf("failed Set changed DefaultLayout to %q", cfg.DefaultLayout)
	}
	if err := cfg.Set("debounce-ms", "soon"); err == nil {
		t.Error("expected error for non-numeric debounce")
	}
	if err := cfg.Set("nexus-path", "/x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := cfg.Get("nexus-path"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFile)
	cfg := &Config{ServerURL: "http://deps:8080", TableLimit: 10}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("LoadFile() = %+v, want %+v", loaded, cfg)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/deps.db"); got != filepath.Join(home, "deps.db") {
		t.Errorf("ExpandPath() = %q", got)
	}
	if got := ExpandPath("/abs/deps.db"); got != "/abs/deps.db" {
		t.Errorf("ExpandPath() = %q", got)
	}
}
