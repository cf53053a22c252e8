package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Search.PerFileTimeout != defaultPerFileTimeout {
		t.Errorf("PerFileTimeout = %d, want %d", cfg.Search.PerFileTimeout, defaultPerFileTimeout)
	}
	if cfg.Search.BatchTimeout != defaultBatchTimeout {
		t.Errorf("BatchTimeout = %d, want %d", cfg.Search.BatchTimeout, defaultBatchTimeout)
	}
	if len(cfg.Search.Languages) != 1 || cfg.Search.Languages[0] != "eng" {
		t.Errorf("Languages = %v, want [eng]", cfg.Search.Languages)
	}
}

func TestLoadParsesProviderSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[search]
languages = ["en", "Spanish"]
per_file_timeout_seconds = 60

[providers.opensubtitles]
api_key = "abc123"
delay_ms = 500

[providers.subscene]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatal("expected config file to be found")
	}
	if got := cfg.ProviderSettings("opensubtitles").APIKey; got != "abc123" {
		t.Errorf("opensubtitles api key = %q", got)
	}
	if cfg.ProviderSettings("subscene").IsEnabled() {
		t.Error("subscene should be disabled")
	}
	if cfg.ProviderSettings("podnapisi").IsEnabled() == false {
		t.Error("unmentioned provider should default to enabled")
	}
	// Languages normalize to 3-letter form, deduped.
	want := []string{"eng", "spa"}
	if len(cfg.Search.Languages) != len(want) {
		t.Fatalf("Languages = %v, want %v", cfg.Search.Languages, want)
	}
	for i := range want {
		if cfg.Search.Languages[i] != want[i] {
			t.Errorf("Languages[%d] = %q, want %q", i, cfg.Search.Languages[i], want[i])
		}
	}
	if cfg.Search.PerFileTimeout != 60 {
		t.Errorf("PerFileTimeout = %d, want 60", cfg.Search.PerFileTimeout)
	}
}

func TestValidateRejectsInvertedTimeouts(t *testing.T) {
	cfg := Default()
	cfg.Search.PerFileTimeout = 400
	cfg.Search.BatchTimeout = 300
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for per-file timeout above batch timeout")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := ExpandPath("~/x/y.toml")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "x", "y.toml") {
		t.Errorf("ExpandPath = %q", got)
	}
}

func TestWriteSampleOverwriteBehavior(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path, false); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path, false); err == nil {
		t.Fatal("expected error writing over existing config")
	}
	if err := os.WriteFile(path, []byte("# stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteSample(path, true); err != nil {
		t.Fatalf("WriteSample with overwrite: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[search]") {
		t.Errorf("overwrite left stale content:\n%s", data)
	}
}
