package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eugenesvk/tabsave/internal/db"
	"github.com/eugenesvk/tabsave/internal/save"
	"github.com/eugenesvk/tabsave/internal/tab"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *tab.MemoryDirectory, string) {
	t.Helper()
	database, cfg := testStore(t)
	dir := tab.NewMemoryDirectory()
	return New(database, cfg, dir), dir, cfg.SaveDir
}

func savedArchives(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.zip"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func testPayload() *save.Payload {
	return &save.Payload{
		Content: "<html><head><title>Example</title></head><body>hi</body></html>",
		Title:   "Example",
		URL:     "https://example.com/page",
	}
}

func TestHandleInit_AssignsIDAndRegisters(t *testing.T) {
	d, dir, _ := newTestDispatcher(t)

	res, err := d.HandleInit(context.Background(), &tab.Tab{URL: "https://example.com", Index: 3})
	if err != nil {
		t.Fatalf("HandleInit: %v", err)
	}
	if res.TabID == "" {
		t.Fatal("HandleInit left the tab without an id")
	}
	if res.TabIndex != 3 {
		t.Errorf("TabIndex = %d, want 3", res.TabIndex)
	}
	if res.Options == nil {
		t.Error("Options = nil, want resolved defaults")
	}
	if res.AutoSaveEnabled {
		t.Error("AutoSaveEnabled = true with no global flag and no opt-in")
	}
	if _, ok := dir.Get(res.TabID); !ok {
		t.Error("tab not registered in the directory")
	}
}

func TestHandleInit_KeepsExistingID(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	res, err := d.HandleInit(context.Background(), &tab.Tab{ID: "t1", URL: "https://example.com"})
	if err != nil {
		t.Fatalf("HandleInit: %v", err)
	}
	if res.TabID != "t1" {
		t.Errorf("TabID = %q, want t1", res.TabID)
	}
}

func TestHandleSaveRequest_PlainSaveWritesArchive(t *testing.T) {
	d, dir, saveDir := newTestDispatcher(t)
	sess := &tab.Tab{ID: "t1", URL: "https://example.com/page", Title: "Example"}
	dir.Put(sess)

	err := d.HandleSaveRequest(context.Background(), &SaveMessage{Payload: testPayload()}, sess)
	if err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}

	archives := savedArchives(t, saveDir)
	if len(archives) != 1 {
		t.Fatalf("found %d archives, want 1", len(archives))
	}
	info, err := os.Stat(archives[0])
	if err != nil || info.Size() == 0 {
		t.Errorf("archive %s unreadable or empty: %v", archives[0], err)
	}
	if d.Registry().Len() != 0 {
		t.Errorf("registry has %d entries after plain save, want 0", d.Registry().Len())
	}

	methods := drainMethods(dir, "t1")
	if !containsMethod(methods, "save.started") || !containsMethod(methods, "save.ended") {
		t.Errorf("tab notifications = %v, want save.started and save.ended", methods)
	}
}

func TestHandleSaveRequest_DeferredIsStoredNotFlushed(t *testing.T) {
	d, dir, saveDir := newTestDispatcher(t)
	sess := &tab.Tab{ID: "t1", URL: "https://example.com/page"}
	dir.Put(sess)

	p := testPayload()
	p.DiscardOnSave = true
	if err := d.HandleSaveRequest(context.Background(), &SaveMessage{Payload: p}, sess); err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}

	if len(savedArchives(t, saveDir)) != 0 {
		t.Error("deferred request produced an archive")
	}
	in := d.Registry().Get("t1")
	if in == nil || in.Kind != KindSaveRequest {
		t.Fatalf("registry entry = %+v, want a pending save request", in)
	}
	if in.Snapshot == nil || in.Snapshot.ID != "t1" {
		t.Errorf("snapshot = %+v, want a copy of the session tab", in.Snapshot)
	}
}

func TestHandleSaveRequest_ClosedMarkerFlushesImmediately(t *testing.T) {
	d, _, saveDir := newTestDispatcher(t)

	// The tab closed before its save request arrived.
	d.OnTabClosed(context.Background(), "t1")
	if in := d.Registry().Get("t1"); in == nil || in.Kind != KindClosedMarker {
		t.Fatalf("registry entry = %+v, want closed marker", in)
	}

	p := testPayload()
	p.RemoveOnSave = true
	err := d.HandleSaveRequest(context.Background(), &SaveMessage{TabID: "t1", Payload: p}, nil)
	if err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}

	if len(savedArchives(t, saveDir)) != 1 {
		t.Error("marker-matching request did not flush")
	}
	if d.Registry().Len() != 0 {
		t.Errorf("registry has %d entries, want 0", d.Registry().Len())
	}
}

func TestHandleSaveRequest_DiscardOnlyKeepsClosedMarker(t *testing.T) {
	d, _, saveDir := newTestDispatcher(t)

	// The tab closed before any save request arrived.
	d.OnTabClosed(context.Background(), "t1")

	// A discard-only request for the already-gone tab can never be
	// flushed by a later lifecycle event; the marker stays put.
	p := testPayload()
	p.DiscardOnSave = true
	err := d.HandleSaveRequest(context.Background(), &SaveMessage{TabID: "t1", Payload: p}, nil)
	if err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}

	if len(savedArchives(t, saveDir)) != 0 {
		t.Fatal("discard-only request flushed for a closed tab")
	}
	if in := d.Registry().Get("t1"); in == nil || in.Kind != KindClosedMarker {
		t.Fatalf("registry entry = %+v, want the closed marker preserved", in)
	}

	// The marker still matches a remove-on-save request.
	p2 := testPayload()
	p2.RemoveOnSave = true
	if err := d.HandleSaveRequest(context.Background(), &SaveMessage{TabID: "t1", Payload: p2}, nil); err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}
	if len(savedArchives(t, saveDir)) != 1 {
		t.Error("marker-matching request did not flush")
	}
	if d.Registry().Len() != 0 {
		t.Errorf("registry has %d entries, want 0", d.Registry().Len())
	}
}

func TestHandleSaveRequest_NoSessionNoMarkerStoresPending(t *testing.T) {
	d, _, saveDir := newTestDispatcher(t)

	p := testPayload()
	p.RemoveOnSave = true
	err := d.HandleSaveRequest(context.Background(), &SaveMessage{TabID: "t1", Payload: p}, nil)
	if err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}

	if len(savedArchives(t, saveDir)) != 0 {
		t.Fatal("request without session context flushed early")
	}
	in := d.Registry().Get("t1")
	if in == nil || in.Kind != KindSaveRequest {
		t.Fatalf("registry entry = %+v, want a pending save request", in)
	}

	// The later close runs exactly the stored capture.
	d.OnTabClosed(context.Background(), "t1")
	if len(savedArchives(t, saveDir)) != 1 {
		t.Error("close did not flush the stored intent")
	}
	if d.Registry().Len() != 0 {
		t.Errorf("registry has %d entries, want 0", d.Registry().Len())
	}
}

func TestHandleSaveRequest_UnloadFlushesImmediately(t *testing.T) {
	d, dir, saveDir := newTestDispatcher(t)
	sess := &tab.Tab{ID: "t1", URL: "https://example.com/page"}
	dir.Put(sess)

	p := testPayload()
	p.DiscardOnSave = true
	p.UnloadOnSave = true
	if err := d.HandleSaveRequest(context.Background(), &SaveMessage{Payload: p}, sess); err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}

	if len(savedArchives(t, saveDir)) != 1 {
		t.Error("unload-on-save request did not flush")
	}
	if d.Registry().Len() != 0 {
		t.Errorf("registry has %d entries, want 0", d.Registry().Len())
	}
}

func TestOnTabClosed_FlushesDeferredRemoveOnSave(t *testing.T) {
	d, dir, saveDir := newTestDispatcher(t)
	sess := &tab.Tab{ID: "t1", URL: "https://example.com/page"}
	dir.Put(sess)

	p := testPayload()
	p.RemoveOnSave = true
	if err := d.HandleSaveRequest(context.Background(), &SaveMessage{Payload: p}, sess); err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}
	if len(savedArchives(t, saveDir)) != 0 {
		t.Fatal("deferred request flushed early")
	}

	d.OnTabClosed(context.Background(), "t1")

	if len(savedArchives(t, saveDir)) != 1 {
		t.Error("close did not flush the deferred save")
	}
	if d.Registry().Len() != 0 {
		t.Errorf("registry has %d entries, want 0", d.Registry().Len())
	}
	if _, ok := dir.Get("t1"); ok {
		t.Error("closed tab still in the directory")
	}
}

func TestOnTabSuspended_FlushesDeferred(t *testing.T) {
	d, dir, saveDir := newTestDispatcher(t)
	sess := &tab.Tab{ID: "t1", URL: "https://example.com/page"}
	dir.Put(sess)

	p := testPayload()
	p.DiscardOnSave = true
	if err := d.HandleSaveRequest(context.Background(), &SaveMessage{Payload: p}, sess); err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}

	d.OnTabSuspended(context.Background(), "t1")

	if len(savedArchives(t, saveDir)) != 1 {
		t.Error("suspend did not flush the deferred save")
	}
	if _, ok := dir.Get("t1"); !ok {
		t.Error("suspended tab was removed from the directory")
	}
}

func TestOnTabUpdated_DiscardsPendingIntent(t *testing.T) {
	d, dir, saveDir := newTestDispatcher(t)
	sess := &tab.Tab{ID: "t1", URL: "https://example.com/page"}
	dir.Put(sess)

	p := testPayload()
	p.DiscardOnSave = true
	if err := d.HandleSaveRequest(context.Background(), &SaveMessage{Payload: p}, sess); err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}

	d.OnTabUpdated(&tab.Tab{ID: "t1", URL: "https://example.com/other"})

	if d.Registry().Len() != 0 {
		t.Error("content update did not discard the pending intent")
	}
	// A later close must not flush stale data.
	d.OnTabClosed(context.Background(), "t1")
	if len(savedArchives(t, saveDir)) != 0 {
		t.Error("stale intent flushed after a content update")
	}
}

func TestEnableAutoSave_PersistsAndRefreshes(t *testing.T) {
	database, cfg := testStore(t)
	dir := tab.NewMemoryDirectory()
	d := New(database, cfg, dir)

	sess := &tab.Tab{ID: "t1", URL: "https://example.com"}
	dir.Put(sess)

	if err := d.HandleEnableAutoSave(sess, true); err != nil {
		t.Fatalf("HandleEnableAutoSave: %v", err)
	}

	enabled, err := db.GetTabFlag(database, "t1")
	if err != nil || !enabled {
		t.Errorf("flag = (%v, %v), want (true, nil)", enabled, err)
	}
	if got, _ := d.HandleIsAutoSaveEnabled(sess); !got {
		t.Error("HandleIsAutoSaveEnabled = false after enable")
	}
	if !containsMethod(drainMethods(dir, "t1"), "ui.refresh") {
		t.Error("enable did not refresh the tab UI")
	}
}

func TestOnTabReplaced_MovesEverything(t *testing.T) {
	database, cfg := testStore(t)
	dir := tab.NewMemoryDirectory()
	d := New(database, cfg, dir)

	sess := &tab.Tab{ID: "t1", URL: "https://example.com/page"}
	dir.Put(sess)
	if err := db.SetTabFlag(database, "t1", true); err != nil {
		t.Fatalf("SetTabFlag: %v", err)
	}
	p := testPayload()
	p.DiscardOnSave = true
	if err := d.HandleSaveRequest(context.Background(), &SaveMessage{Payload: p}, sess); err != nil {
		t.Fatalf("HandleSaveRequest: %v", err)
	}

	d.OnTabReplaced("t1", "t2")

	if in := d.Registry().Get("t2"); in == nil {
		t.Error("pending intent did not move to the new id")
	}
	if _, ok := dir.Get("t1"); ok {
		t.Error("old id still in the directory")
	}
	if nt, ok := dir.Get("t2"); !ok || nt.URL != "https://example.com/page" {
		t.Errorf("new directory entry = (%+v, %v)", nt, ok)
	}
	if enabled, _ := db.GetTabFlag(database, "t2"); !enabled {
		t.Error("opt-in flag did not move to the new id")
	}
	if enabled, _ := db.GetTabFlag(database, "t1"); enabled {
		t.Error("opt-in flag still set on the old id")
	}
}

func TestBroadcastRefresh(t *testing.T) {
	d, dir, _ := newTestDispatcher(t)
	dir.Put(&tab.Tab{ID: "t1", URL: "https://example.com/a"})
	dir.Put(&tab.Tab{ID: "t2", URL: "https://example.com/b"})

	if err := d.HandleBroadcastRefresh(context.Background()); err != nil {
		t.Fatalf("HandleBroadcastRefresh: %v", err)
	}

	for _, id := range []string{"t1", "t2"} {
		if !containsMethod(drainMethods(dir, id), "options.refresh") {
			t.Errorf("tab %s did not receive options.refresh", id)
		}
	}
}

func drainMethods(dir *tab.MemoryDirectory, id string) []string {
	var out []string
	for _, m := range dir.Drain(id) {
		out = append(out, m.Method)
	}
	return out
}

func containsMethod(methods []string, want string) bool {
	for _, m := range methods {
		if m == want {
			return true
		}
	}
	return false
}

func TestNewTabID_Unique(t *testing.T) {
	a, b := newTabID(), newTabID()
	if a == "" || b == "" || a == b {
		t.Errorf("newTabID produced %q and %q", a, b)
	}
	if strings.ContainsAny(a, "/\\") {
		t.Errorf("id %q contains path separators", a)
	}
}
