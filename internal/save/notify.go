package save

import (
	"log"

	"github.com/eugenesvk/tabsave/internal/tab"
)

// DirectoryNotifier delivers save progress to tabs through the directory.
// Delivery failures are logged and swallowed: a tab that cannot receive a
// notification must not break the save.
type DirectoryNotifier struct {
	Dir tab.Directory
}

// SaveStarted implements Notifier.
func (n *DirectoryNotifier) SaveStarted(id string, count int, autoSave bool) {
	n.send(id, tab.Message{
		Method: "save.started",
		Body:   map[string]any{"count": count, "auto_save": autoSave},
	})
}

// SaveEnded implements Notifier.
func (n *DirectoryNotifier) SaveEnded(id string, autoSave bool) {
	n.send(id, tab.Message{
		Method: "save.ended",
		Body:   map[string]any{"auto_save": autoSave},
	})
}

// ExternalSaveComplete implements Notifier. The correlation id travels back
// to the external initiator as a directory-wide message.
func (n *DirectoryNotifier) ExternalSaveComplete(taskID string) {
	log.Printf("tabsave: external save complete, task %s", taskID)
	for _, t := range n.Dir.List() {
		n.send(t.ID, tab.Message{
			Method: "save.external_complete",
			Body:   map[string]any{"task_id": taskID},
		})
	}
}

// RefreshUI implements Notifier.
func (n *DirectoryNotifier) RefreshUI(t *tab.Tab) {
	n.send(t.ID, tab.Message{Method: "ui.refresh"})
}

func (n *DirectoryNotifier) send(id string, msg tab.Message) {
	if err := n.Dir.Send(id, msg); err != nil {
		log.Printf("tabsave: notify tab %s: %v", id, err)
	}
}
