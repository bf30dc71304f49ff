package coordinator

import (
	"context"
	"crypto/rand"
	"database/sql"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/eugenesvk/tabsave/internal/config"
	"github.com/eugenesvk/tabsave/internal/db"
	"github.com/eugenesvk/tabsave/internal/rules"
	"github.com/eugenesvk/tabsave/internal/save"
	"github.com/eugenesvk/tabsave/internal/tab"
)

// Dispatcher is the message-handling surface of the coordinator. It owns the
// registry, the reconciler, and the orchestrator; nothing else mutates them.
type Dispatcher struct {
	db       *sql.DB
	cfg      *config.Config
	dir      tab.Directory
	reg      *Registry
	rec      *Reconciler
	orch     *save.Orchestrator
	resolver *RuleResolver
	policy   *Policy
}

// New builds a dispatcher with the production pipeline collaborators.
// cfg.SaveDir must already be resolved to an absolute directory.
func New(database *sql.DB, cfg *config.Config, dir tab.Directory) *Dispatcher {
	resolver := NewRuleResolver(database, cfg)
	reg := NewRegistry()

	orch := &save.Orchestrator{
		Resolver:  resolver,
		Capturer:  save.PageAssembler{},
		Skip:      save.DirSkipChecker{},
		Overlay:   save.BannerInjector{},
		Compress:  save.ZipCompressor{},
		Upload:    save.NewHTTPUploader(2 * time.Minute),
		Deliver:   save.LocalDeliverer{},
		Notify:    &save.DirectoryNotifier{Dir: dir},
		Closer:    dir,
		Redirects: reg,
		Fetch:     save.NewHTTPFetcher(time.Minute),
	}

	d := &Dispatcher{
		db:       database,
		cfg:      cfg,
		dir:      dir,
		reg:      reg,
		orch:     orch,
		resolver: resolver,
		policy:   NewPolicy(database, cfg, resolver),
	}
	d.rec = NewReconciler(reg, orch.ExecuteSave)
	return d
}

// Registry exposes the pending-intent registry, mainly for tests and the
// status surface.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Resolver exposes the rule resolver so in-process rule edits can invalidate
// its cache.
func (d *Dispatcher) Resolver() *RuleResolver { return d.resolver }

// InitResult is the response to a tab's init message.
type InitResult struct {
	Options         *rules.Options `json:"options"`
	AutoSaveEnabled bool           `json:"auto_save_enabled"`
	TabID           string         `json:"tab_id"`
	TabIndex        int            `json:"tab_index"`
}

// HandleInit registers the tab and returns its resolved options and
// eligibility. Tabs arriving without an id are assigned one.
func (d *Dispatcher) HandleInit(ctx context.Context, t *tab.Tab) (*InitResult, error) {
	if t.ID == "" {
		t.ID = newTabID()
	}
	d.dir.Put(t)

	opts, err := d.resolver.ResolveOptions(ctx, t.URL, false)
	if err != nil {
		return nil, err
	}
	eligible, err := d.policy.Eligible(t)
	if err != nil {
		return nil, err
	}

	return &InitResult{
		Options:         opts,
		AutoSaveEnabled: eligible,
		TabID:           t.ID,
		TabIndex:        t.Index,
	}, nil
}

// SaveMessage is a save request as received from a client.
type SaveMessage struct {
	// TabID keys the intent when no session context accompanies the request.
	TabID   string
	Payload *save.Payload
}

// HandleSaveRequest reconciles a save request against the registry.
// Requests carrying discard/remove flags are deferred until a qualifying
// lifecycle event unless a matching closed-marker or the unload flag forces
// an immediate flush. Plain requests flush immediately.
func (d *Dispatcher) HandleSaveRequest(ctx context.Context, msg *SaveMessage, sessionTab *tab.Tab) error {
	p := msg.Payload
	id := msg.TabID
	if sessionTab != nil {
		id = sessionTab.ID
	}
	if id == "" {
		return nil
	}

	flushTab := sessionTab
	if flushTab == nil {
		flushTab = &tab.Tab{ID: id, URL: p.URL, Title: p.Title}
	}

	if p.DiscardOnSave || p.RemoveOnSave {
		// The unload flag wins over deferral: the page is going away now.
		if p.UnloadOnSave {
			d.reg.Clear(id)
			return d.orch.ExecuteSave(ctx, p, flushTab)
		}

		if sessionTab == nil {
			if in := d.reg.Get(id); in != nil && in.Kind == KindClosedMarker {
				if p.RemoveOnSave {
					// The tab already closed; the save must run now or never.
					d.reg.Clear(id)
					return d.orch.ExecuteSave(ctx, p, flushTab)
				}
				// Discard-only with the tab already gone: keep the marker
				// for a remove-on-save request that may still arrive.
				return nil
			}
		}

		d.reg.Set(id, &Intent{
			Kind:     KindSaveRequest,
			Payload:  p,
			Snapshot: flushTab.Clone(),
		})
		return nil
	}

	// Plain save: supersede any pending intent and flush immediately.
	d.reg.Clear(id)
	return d.orch.ExecuteSave(ctx, p, flushTab)
}

// HandleEnableAutoSave sets the per-tab opt-in flag and refreshes the tab's UI.
func (d *Dispatcher) HandleEnableAutoSave(t *tab.Tab, enabled bool) error {
	if err := db.SetTabFlag(d.db, t.ID, enabled); err != nil {
		return err
	}
	d.orch.Notify.RefreshUI(t)
	return nil
}

// HandleIsAutoSaveEnabled returns the eligibility policy result for the tab.
func (d *Dispatcher) HandleIsAutoSaveEnabled(t *tab.Tab) (bool, error) {
	return d.policy.Eligible(t)
}

// HandleBroadcastRefresh pushes current options and eligibility to every
// known tab. Tabs that cannot be reached are skipped.
func (d *Dispatcher) HandleBroadcastRefresh(ctx context.Context) error {
	for _, t := range d.dir.List() {
		opts, err := d.resolver.ResolveOptions(ctx, t.URL, false)
		if err != nil {
			return err
		}
		eligible, err := d.policy.Eligible(t)
		if err != nil {
			return err
		}

		body := map[string]any{"auto_save_enabled": eligible}
		if opts != nil {
			body["profile"] = opts.Profile
		}
		if err := d.dir.Send(t.ID, tab.Message{Method: "options.refresh", Body: body}); err != nil {
			log.Printf("tabsave: refresh tab %s: %v", t.ID, err)
		}
	}
	return nil
}

// Lifecycle event entry points, fed by the hosting environment.

// OnTabUpdated records the tab's new attributes and discards any pending
// intent, which the newer document state supersedes.
func (d *Dispatcher) OnTabUpdated(t *tab.Tab) {
	d.dir.Put(t)
	d.rec.OnContentUpdated(t.ID)
}

// OnTabClosed reconciles the close against the registry and forgets the tab.
func (d *Dispatcher) OnTabClosed(ctx context.Context, id string) {
	d.rec.OnTabClosed(ctx, id)
	d.dir.Remove(id)
	if err := db.ClearTabFlag(d.db, id); err != nil {
		log.Printf("tabsave: clear flag for tab %s: %v", id, err)
	}
}

// OnTabSuspended flushes any pending intent before the tab's data becomes
// unreachable. The tab itself stays known.
func (d *Dispatcher) OnTabSuspended(ctx context.Context, id string) {
	d.rec.OnTabSuspended(ctx, id)
}

// OnTabReplaced moves the tab's registry entry, directory entry, and opt-in
// flag to its new identity.
func (d *Dispatcher) OnTabReplaced(oldID, newID string) {
	d.rec.OnTabReplaced(oldID, newID)

	if t, ok := d.dir.Get(oldID); ok {
		t.ID = newID
		d.dir.Put(t)
		d.dir.Remove(oldID)
	}

	enabled, err := db.GetTabFlag(d.db, oldID)
	if err != nil {
		log.Printf("tabsave: read flag for tab %s: %v", oldID, err)
		return
	}
	if enabled {
		if err := db.SetTabFlag(d.db, newID, true); err != nil {
			log.Printf("tabsave: move flag to tab %s: %v", newID, err)
		}
	}
	if err := db.ClearTabFlag(d.db, oldID); err != nil {
		log.Printf("tabsave: clear flag for tab %s: %v", oldID, err)
	}
}

// newTabID generates a ULID for a tab that registered without an id.
func newTabID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return ""
	}
	return id.String()
}
