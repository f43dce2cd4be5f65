package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Window.LeadPadding != 5*time.Minute || cfg.Window.TrailPadding != 5*time.Minute {
		t.Errorf("DefaultConfig() window = %+v, want 5m/5m", cfg.Window)
	}
	if cfg.Scan.Concurrency != 4 {
		t.Errorf("DefaultConfig() concurrency = %d, want 4", cfg.Scan.Concurrency)
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "chatlog.yaml")
	content := `
storage:
  global_db: /tmp/global/state.vscdb
window:
  lead_padding: 15m
  trail_padding: 90s
scan:
  concurrency: 8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Storage.GlobalDB != "/tmp/global/state.vscdb" {
		t.Errorf("GlobalDB = %q", cfg.Storage.GlobalDB)
	}
	if cfg.Window.LeadPadding != 15*time.Minute {
		t.Errorf("LeadPadding = %v, want 15m", cfg.Window.LeadPadding)
	}
	if cfg.Window.TrailPadding != 90*time.Second {
		t.Errorf("TrailPadding = %v, want 90s", cfg.Window.TrailPadding)
	}
	if cfg.Scan.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Scan.Concurrency)
	}
	if cfg.Scan.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want default 30s", cfg.Scan.Timeout)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CURSOR_CHATLOG_STORAGE_WORKSPACE_DB", "/env/workspace.vscdb")
	t.Setenv("CURSOR_CHATLOG_WINDOW_TRAIL_PADDING", "1m")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Storage.WorkspaceDB != "/env/workspace.vscdb" {
		t.Errorf("WorkspaceDB = %q, want env value", cfg.Storage.WorkspaceDB)
	}
	if cfg.Window.TrailPadding != time.Minute {
		t.Errorf("TrailPadding = %v, want 1m", cfg.Window.TrailPadding)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() should fail for a missing explicit file")
	}
}

func TestConfig_YAML(t *testing.T) {
	data, err := DefaultConfig().YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "lead_padding: 5m0s") {
		t.Errorf("YAML() should render durations as strings, got:\n%s", out)
	}
}
