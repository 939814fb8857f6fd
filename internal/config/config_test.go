package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.VM.StackSize != 1024 || !cfg.Cache.Enabled || cfg.Cache.StorePath != "" || cfg.Server.Addr != ":8090" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "mumei.toml", `
[vm]
stack_size = 256
instruction_limit = 5000

[cache]
store_path = "/tmp/mumei.db"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VM.StackSize != 256 || cfg.VM.InstructionLimit != 5000 {
		t.Fatalf("vm section not applied: %+v", cfg.VM)
	}
	if cfg.Cache.StorePath != "/tmp/mumei.db" || !cfg.Cache.Enabled {
		t.Fatalf("cache section not layered over defaults: %+v", cfg.Cache)
	}
	if cfg.JIT.MaxRoutines != 1024 || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "mumei.yaml", `
server:
  addr: "127.0.0.1:9000"
jit:
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.JIT.Enabled {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Server.MaxSessions != 256 {
		t.Fatalf("defaults lost: %+v", cfg.Server)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"bad.toml", "[vm]\nstack_size = 0\n", "vm.stack_size must be positive"},
		{"bad.yml", "log:\n  level: loud\n", "unknown log level"},
		{"broken.toml", "[vm\n", "parse error"},
		{"mumei.json", "{}", "unsupported config format"},
	}
	for _, tt := range tests {
		_, err := Load(writeFile(t, tt.name, tt.content))
		if err == nil || !strings.Contains(err.Error(), tt.msg) {
			t.Fatalf("%s: expected %q, got %v", tt.name, tt.msg, err)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
