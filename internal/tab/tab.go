// Package tab models long-lived client sessions (browser tabs) and the
// directory used to reach them.
package tab

// Tab holds the mutable attributes of a session at a point in time.
type Tab struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Index   int    `json:"index"`
	Pinned  bool   `json:"pinned,omitempty"`
	Private bool   `json:"private,omitempty"`
}

// Clone returns a copy of the tab, used to capture a snapshot of its
// attributes before they can change under a pending intent.
func (t *Tab) Clone() *Tab {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Message is a notification delivered to a tab.
type Message struct {
	Method string         `json:"method"`
	Body   map[string]any `json:"body,omitempty"`
}
