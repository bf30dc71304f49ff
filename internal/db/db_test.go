package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eugenesvk/tabsave/internal/config"
)

func TestInit_CreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()

	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "tabsave.db")); err != nil {
		t.Errorf("database file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "saves")); err != nil {
		t.Errorf("saves directory missing: %v", err)
	}

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion() error = %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestInit_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()

	db1, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("first Init() error = %v", err)
	}
	db1.Close()

	db2, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	db2.Close()
}

func TestConfigurePool(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.DBMaxOpenConns = 1
	cfg.DBMaxIdleConns = 1

	// Should not panic; limits are observable only via behavior
	ConfigurePool(database, cfg)
	ConfigurePool(database, nil)
}

func TestSavesDir(t *testing.T) {
	got := SavesDir("/home/u/.tabsave")
	want := filepath.Join("/home/u/.tabsave", "saves")
	if got != want {
		t.Errorf("SavesDir() = %q, want %q", got, want)
	}
}
