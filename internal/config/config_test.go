package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FilenameTemplate != DefaultConfig().FilenameTemplate {
		t.Fatalf("FilenameTemplate = %q, want %q", cfg.FilenameTemplate, DefaultConfig().FilenameTemplate)
	}
	if cfg.ConflictAction != ConflictUniquify {
		t.Fatalf("ConflictAction = %q, want %q", cfg.ConflictAction, ConflictUniquify)
	}
	if cfg.AutoSaveAll {
		t.Fatal("AutoSaveAll = true, want false by default")
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	raw := `{"auto_save_unpinned": true, "filename_template": "{url-host}-{datetime}", "conflict_action": "skip"}`
	if err := os.WriteFile(configPath, []byte(raw), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.AutoSaveUnpinned {
		t.Error("AutoSaveUnpinned = false, want true")
	}
	if cfg.FilenameTemplate != "{url-host}-{datetime}" {
		t.Errorf("FilenameTemplate = %q, want %q", cfg.FilenameTemplate, "{url-host}-{datetime}")
	}
	if cfg.ConflictAction != ConflictSkip {
		t.Errorf("ConflictAction = %q, want %q", cfg.ConflictAction, ConflictSkip)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["autosave_refresh", "tab_replaced"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "autosave_refresh" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "autosave_refresh")
	}
}

func TestMerge_ScalarsAndBooleans(t *testing.T) {
	base := &Config{
		AutoSaveAll:      true,
		FilenameTemplate: "base-{datetime}",
		ConflictAction:   ConflictOverwrite,
		DBMaxOpenConns:   1,
	}
	overlay := &Config{
		FilenameTemplate: "overlay-{datetime}",
		RemoteDropURL:    "https://drop.example.com/put",
	}

	merged := Merge(base, overlay)

	if !merged.AutoSaveAll {
		t.Error("AutoSaveAll = false, want true (base)")
	}
	if merged.FilenameTemplate != "overlay-{datetime}" {
		t.Errorf("FilenameTemplate = %q, want overlay value", merged.FilenameTemplate)
	}
	if merged.ConflictAction != ConflictOverwrite {
		t.Errorf("ConflictAction = %q, want base value", merged.ConflictAction)
	}
	if merged.DBMaxOpenConns != 1 {
		t.Errorf("DBMaxOpenConns = %d, want 1", merged.DBMaxOpenConns)
	}
	if merged.RemoteDropURL != "https://drop.example.com/put" {
		t.Errorf("RemoteDropURL = %q, want overlay value", merged.RemoteDropURL)
	}
}

func TestMerge_ArraysDeduplicated(t *testing.T) {
	base := &Config{DisabledTools: []string{"tab_replaced", "autosave_refresh"}}
	overlay := &Config{DisabledTools: []string{"autosave_refresh", " tab_suspended "}}

	merged := Merge(base, overlay)

	if len(merged.DisabledTools) != 3 {
		t.Fatalf("DisabledTools length = %d, want 3: %v", len(merged.DisabledTools), merged.DisabledTools)
	}
	if merged.DisabledTools[2] != "tab_suspended" {
		t.Errorf("DisabledTools[2] = %q, want %q (trimmed)", merged.DisabledTools[2], "tab_suspended")
	}
}
