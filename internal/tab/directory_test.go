package tab

import "testing"

func TestMemoryDirectory_PutGetList(t *testing.T) {
	d := NewMemoryDirectory()

	d.Put(&Tab{ID: "a", URL: "https://example.com", Index: 0})
	d.Put(&Tab{ID: "b", URL: "https://other.org", Index: 1, Pinned: true})

	got, ok := d.Get("a")
	if !ok {
		t.Fatal("Get(a) not found")
	}
	if got.URL != "https://example.com" {
		t.Errorf("URL = %q, want %q", got.URL, "https://example.com")
	}

	// Returned tab is a copy; mutations don't leak back
	got.URL = "mutated"
	again, _ := d.Get("a")
	if again.URL != "https://example.com" {
		t.Error("Get() returned shared state")
	}

	if len(d.List()) != 2 {
		t.Errorf("List() length = %d, want 2", len(d.List()))
	}
}

func TestMemoryDirectory_Put_UpdatesExisting(t *testing.T) {
	d := NewMemoryDirectory()
	d.Put(&Tab{ID: "a", URL: "https://example.com"})
	d.Put(&Tab{ID: "a", URL: "https://example.com/next", Pinned: true})

	got, _ := d.Get("a")
	if got.URL != "https://example.com/next" || !got.Pinned {
		t.Errorf("updated tab = %+v", got)
	}
	if len(d.List()) != 1 {
		t.Errorf("List() length = %d, want 1", len(d.List()))
	}
}

func TestMemoryDirectory_SendAndDrain(t *testing.T) {
	d := NewMemoryDirectory()
	d.Put(&Tab{ID: "a"})

	if err := d.Send("a", Message{Method: "options.refresh"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := d.Send("ghost", Message{Method: "options.refresh"}); err == nil {
		t.Error("Send(unknown) error = nil, want error")
	}

	msgs := d.Drain("a")
	if len(msgs) != 1 || msgs[0].Method != "options.refresh" {
		t.Errorf("Drain() = %+v", msgs)
	}
	if len(d.Drain("a")) != 0 {
		t.Error("second Drain() should be empty")
	}
}

func TestMemoryDirectory_Close(t *testing.T) {
	d := NewMemoryDirectory()
	d.Put(&Tab{ID: "a"})

	if err := d.Close("a"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := d.Get("a"); ok {
		t.Error("tab still present after Close()")
	}
	if err := d.Close("a"); err == nil {
		t.Error("Close(absent) error = nil, want error")
	}
}

func TestTab_Clone_Nil(t *testing.T) {
	var tb *Tab
	if tb.Clone() != nil {
		t.Error("Clone(nil) should be nil")
	}
}
