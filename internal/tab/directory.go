package tab

import (
	"fmt"
	"sync"
)

// Directory tracks known tabs and delivers notifications to them.
// List, Send, and Close correspond to the hosting environment's session
// enumeration, messaging, and close capabilities.
type Directory interface {
	Put(t *Tab)
	Get(id string) (*Tab, bool)
	List() []*Tab
	Remove(id string)
	Send(id string, msg Message) error
	Close(id string) error
}

// MemoryDirectory is an in-process Directory. Notifications land in a
// per-tab outbox that the connected client drains.
type MemoryDirectory struct {
	mu       sync.Mutex
	tabs     map[string]*Tab
	outboxes map[string][]Message
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		tabs:     make(map[string]*Tab),
		outboxes: make(map[string][]Message),
	}
}

// Put registers or updates a tab.
func (d *MemoryDirectory) Put(t *Tab) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tabs[t.ID] = t.Clone()
}

// Get returns a copy of the tab with the given id.
func (d *MemoryDirectory) Get(id string) (*Tab, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tabs[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// List returns copies of all known tabs.
func (d *MemoryDirectory) List() []*Tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Tab, 0, len(d.tabs))
	for _, t := range d.tabs {
		out = append(out, t.Clone())
	}
	return out
}

// Remove forgets a tab and drops its outbox.
func (d *MemoryDirectory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tabs, id)
	delete(d.outboxes, id)
}

// Send queues a message for the tab. Unknown tabs are an error so that
// broadcast callers can skip unreachable sessions.
func (d *MemoryDirectory) Send(id string, msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tabs[id]; !ok {
		return fmt.Errorf("tab %s not connected", id)
	}
	d.outboxes[id] = append(d.outboxes[id], msg)
	return nil
}

// Drain returns and clears the queued messages for a tab.
func (d *MemoryDirectory) Drain(id string) []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	msgs := d.outboxes[id]
	delete(d.outboxes, id)
	return msgs
}

// Close removes the tab, standing in for the host closing it.
func (d *MemoryDirectory) Close(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tabs[id]; !ok {
		return fmt.Errorf("tab %s not found", id)
	}
	delete(d.tabs, id)
	delete(d.outboxes, id)
	return nil
}
