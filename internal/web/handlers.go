package web

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/eugenesvk/tabsave/internal/config"
	"github.com/eugenesvk/tabsave/internal/db"
	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/rules"
)

// Handlers holds dependencies for the HTTP handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	version string
}

// HandleHealth reports service liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleListRules returns all URL rules.
func (h *Handlers) HandleListRules(w http.ResponseWriter, r *http.Request) {
	all, err := db.ListRules(h.db)
	if err != nil {
		writeError(w, err)
		return
	}
	if all == nil {
		all = []rules.Rule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": all})
}

// createRuleRequest is the POST /rules body.
type createRuleRequest struct {
	Pattern string `json:"pattern"`
	Profile string `json:"profile,omitempty"`
}

// HandleCreateRule stores a new URL rule.
func (h *Handlers) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	var input createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}
	if input.Pattern == "" {
		writeError(w, errors.NewInvalidRequest("pattern is required"))
		return
	}
	if input.Profile == "" {
		input.Profile = rules.ProfileDefault
	}

	now := time.Now().Unix()
	rule := &rules.Rule{
		ID:        ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		Pattern:   input.Pattern,
		Profile:   input.Profile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertRule(h.db, rule); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// HandleDeleteRule removes a rule by id.
func (h *Handlers) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteRule(h.db, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListProfiles returns all stored profiles.
func (h *Handlers) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	all, err := db.ListProfiles(h.db)
	if err != nil {
		writeError(w, err)
		return
	}
	if all == nil {
		all = []db.ProfileRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": all})
}

// HandlePutProfile stores or replaces a named profile.
func (h *Handlers) HandlePutProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == rules.ProfileDisabled {
		writeError(w, errors.NewInvalidRequest("profile name is reserved"))
		return
	}

	var opts rules.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}
	opts.Profile = name

	if err := db.UpsertProfile(h.db, name, &opts); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// HandleDeleteProfile removes a profile by name. Rules referencing it fall
// back to the default profile at resolve time.
func (h *Handlers) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteProfile(h.db, r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListFlags returns the per-tab auto-save opt-in flags.
func (h *Handlers) HandleListFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := db.ListTabFlags(h.db)
	if err != nil {
		writeError(w, err)
		return
	}
	if flags == nil {
		flags = map[string]bool{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"flags": flags})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("tabsave: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]any{
		"error": map[string]any{
			"code":    "INTERNAL",
			"message": "an internal error occurred",
		},
	}

	if saveErr, ok := err.(*errors.SaveError); ok {
		status = saveErr.Status
		errObj := map[string]any{
			"code":    saveErr.Code,
			"message": saveErr.Message,
		}
		if saveErr.Code != errors.ErrInternal && saveErr.Details != nil {
			errObj["details"] = saveErr.Details
		}
		body["error"] = errObj
	}

	writeJSON(w, status, body)
}
