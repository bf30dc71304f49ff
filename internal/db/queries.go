package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/rules"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.SaveError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// InsertRule stores a new URL rule.
func InsertRule(db *sql.DB, r *rules.Rule) error {
	query := `
		INSERT INTO rules (id, pattern, profile, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, r.ID, r.Pattern, r.Profile, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// ListRules returns all URL rules ordered by creation time.
func ListRules(db *sql.DB) ([]rules.Rule, error) {
	query := `
		SELECT id, pattern, profile, created_at, updated_at
		FROM rules
		ORDER BY created_at ASC
	`
	rows, err := db.Query(query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		var r rules.Rule
		if err := rows.Scan(&r.ID, &r.Pattern, &r.Profile, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// DeleteRule removes a rule by ID.
func DeleteRule(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("rule", id)
	}
	return nil
}

// ProfileRow pairs a profile name with its stored options.
type ProfileRow struct {
	Name      string        `json:"name"`
	Options   rules.Options `json:"options"`
	UpdatedAt int64         `json:"updated_at"`
}

// UpsertProfile stores or replaces a named profile's options.
func UpsertProfile(db *sql.DB, name string, opts *rules.Options) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return errors.NewInternal(err)
	}
	query := `
		INSERT INTO profiles (name, options_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			options_json = excluded.options_json,
			updated_at = excluded.updated_at
	`
	if _, err := db.Exec(query, name, string(data), time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetProfile retrieves a profile's options by name.
func GetProfile(db *sql.DB, name string) (*rules.Options, error) {
	var optionsJSON string
	err := db.QueryRow(`SELECT options_json FROM profiles WHERE name = ?`, name).Scan(&optionsJSON)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("profile", name)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	opts := &rules.Options{}
	if err := json.Unmarshal([]byte(optionsJSON), opts); err != nil {
		return nil, errors.NewInternal(err)
	}
	opts.Profile = name
	return opts, nil
}

// ListProfiles returns all stored profiles ordered by name.
func ListProfiles(db *sql.DB) ([]ProfileRow, error) {
	rows, err := db.Query(`SELECT name, options_json, updated_at FROM profiles ORDER BY name ASC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []ProfileRow
	for rows.Next() {
		var row ProfileRow
		var optionsJSON string
		if err := rows.Scan(&row.Name, &optionsJSON, &row.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &row.Options); err != nil {
			return nil, errors.NewInternal(err)
		}
		row.Options.Profile = row.Name
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// DeleteProfile removes a profile by name.
func DeleteProfile(db *sql.DB, name string) error {
	res, err := db.Exec(`DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("profile", name)
	}
	return nil
}

// GetTabFlag returns the per-tab auto-save opt-in flag.
// An absent row reads as false.
func GetTabFlag(db *sql.DB, tabID string) (bool, error) {
	var autoSave int
	err := db.QueryRow(`SELECT auto_save FROM tab_flags WHERE tab_id = ?`, tabID).Scan(&autoSave)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return autoSave != 0, nil
}

// SetTabFlag stores the per-tab auto-save opt-in flag.
func SetTabFlag(db *sql.DB, tabID string, enabled bool) error {
	val := 0
	if enabled {
		val = 1
	}
	query := `
		INSERT INTO tab_flags (tab_id, auto_save, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(tab_id) DO UPDATE SET
			auto_save = excluded.auto_save,
			updated_at = excluded.updated_at
	`
	if _, err := db.Exec(query, tabID, val, time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListTabFlags returns all per-tab flags keyed by tab ID.
func ListTabFlags(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query(`SELECT tab_id, auto_save FROM tab_flags`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var tabID string
		var autoSave int
		if err := rows.Scan(&tabID, &autoSave); err != nil {
			return nil, errors.NewInternal(err)
		}
		out[tabID] = autoSave != 0
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// ClearTabFlag removes the per-tab flag for a permanently forgotten tab.
// Clearing an absent flag is a no-op.
func ClearTabFlag(db *sql.DB, tabID string) error {
	if _, err := db.Exec(`DELETE FROM tab_flags WHERE tab_id = ?`, tabID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
