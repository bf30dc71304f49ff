package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Conflict actions for destination skip-checks.
const (
	ConflictUniquify  = "uniquify"
	ConflictOverwrite = "overwrite"
	ConflictSkip      = "skip"
)

// Config holds application configuration.
type Config struct {
	// AutoSaveAll enables auto-save for every tab regardless of per-tab flags.
	AutoSaveAll bool `json:"auto_save_all,omitempty"`

	// AutoSaveUnpinned enables auto-save for every tab that is not pinned.
	AutoSaveUnpinned bool `json:"auto_save_unpinned,omitempty"`

	// SaveDir is the directory local deliveries land in.
	// Defaults to baseDir/saves when empty.
	SaveDir string `json:"save_dir,omitempty"`

	// FilenameTemplate is the default filename template for saved pages.
	// Supports {page-title}, {url-host}, {url-path}, {datetime}, {tab-id}.
	FilenameTemplate string `json:"filename_template,omitempty"`

	// ConflictAction controls behavior when the resolved filename already
	// exists at the destination: "uniquify", "overwrite", or "skip".
	ConflictAction string `json:"conflict_action,omitempty"`

	// RemoteDropURL, when set on a profile-less install, is the default
	// upload endpoint for profiles with a remote destination.
	RemoteDropURL string `json:"remote_drop_url,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely.
	// All tools belonging to disabled types are excluded from registration.
	// Known types: "tab", "autosave". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		FilenameTemplate: "{page-title} ({datetime})",
		ConflictAction:   ConflictUniquify,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.tabsave.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.SaveDir = overlay.SaveDir
	if result.SaveDir == "" {
		result.SaveDir = base.SaveDir
	}

	result.FilenameTemplate = overlay.FilenameTemplate
	if result.FilenameTemplate == "" {
		result.FilenameTemplate = base.FilenameTemplate
	}

	result.ConflictAction = overlay.ConflictAction
	if result.ConflictAction == "" {
		result.ConflictAction = base.ConflictAction
	}

	result.RemoteDropURL = overlay.RemoteDropURL
	if result.RemoteDropURL == "" {
		result.RemoteDropURL = base.RemoteDropURL
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.AutoSaveAll = base.AutoSaveAll || overlay.AutoSaveAll
	result.AutoSaveUnpinned = base.AutoSaveUnpinned || overlay.AutoSaveUnpinned

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
