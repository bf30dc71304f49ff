// Package coordinator tracks pending save intents across tab lifecycle
// events and decides when the save pipeline runs.
package coordinator

import (
	"sync"

	"github.com/eugenesvk/tabsave/internal/save"
	"github.com/eugenesvk/tabsave/internal/tab"
)

// IntentKind distinguishes the two kinds of registry entries.
type IntentKind int

const (
	// KindClosedMarker records that a tab closed before any save request
	// arrived for it.
	KindClosedMarker IntentKind = iota + 1
	// KindSaveRequest is a deferred save request waiting for a qualifying
	// lifecycle event.
	KindSaveRequest
)

// Intent is a registry entry for one tab.
type Intent struct {
	Kind IntentKind

	// Payload is the captured document data (save requests only).
	Payload *save.Payload

	// Snapshot is the tab's last known attributes at registration time.
	Snapshot *tab.Tab
}

// Registry holds at most one pending intent per tab id, plus the one-hop
// identity-redirect table for tabs whose id changed mid-flight. All methods
// are safe for concurrent use; each mutation is atomic, which is what keeps
// lifecycle events from observing half-applied state.
type Registry struct {
	mu        sync.Mutex
	intents   map[string]*Intent
	redirects map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		intents:   make(map[string]*Intent),
		redirects: make(map[string]string),
	}
}

// Set stores the intent for a tab, replacing any existing entry.
func (r *Registry) Set(id string, in *Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents[id] = in
}

// Get returns the intent for a tab, or nil when absent.
func (r *Registry) Get(id string) *Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.intents[id]
}

// Clear removes the entry for a tab. Clearing an absent entry is a no-op.
func (r *Registry) Clear(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.intents, id)
}

// Redirect moves oldID's entry to newID and records the redirect.
// It does nothing unless oldID has an entry and newID does not, which keeps
// redirects to a single hop.
func (r *Registry) Redirect(oldID, newID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.intents[oldID]
	if !ok {
		return false
	}
	if _, taken := r.intents[newID]; taken {
		return false
	}
	r.intents[newID] = in
	delete(r.intents, oldID)
	r.redirects[oldID] = newID
	return true
}

// ResolveRedirect returns the current identity for a tab id, consuming the
// redirect entry if one exists.
func (r *Registry) ResolveRedirect(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if next, ok := r.redirects[id]; ok {
		delete(r.redirects, id)
		return next
	}
	return id
}

// DropRedirectsTo removes any redirect pointing at the given id. Called when
// the redirected tab ends without the redirect ever being consumed.
func (r *Registry) DropRedirectsTo(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for old, next := range r.redirects {
		if next == id {
			delete(r.redirects, old)
		}
	}
}

// HasRedirect reports whether a redirect is recorded for the given id.
func (r *Registry) HasRedirect(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.redirects[id]
	return ok
}

// Len returns the number of pending intents.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.intents)
}
