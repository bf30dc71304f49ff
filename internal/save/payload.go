// Package save runs the multi-stage save pipeline for a single tab:
// resolve options, capture, skip-check, overlay injection, compression, and
// upload or local delivery, with cleanup guaranteed on every exit path.
package save

import (
	"time"

	"github.com/eugenesvk/tabsave/internal/page"
	"github.com/eugenesvk/tabsave/internal/rules"
	"github.com/eugenesvk/tabsave/internal/tab"
)

// Payload is the captured document data carried by a save request.
type Payload struct {
	Content   string          `json:"content,omitempty"`
	Title     string          `json:"title,omitempty"`
	URL       string          `json:"url,omitempty"`
	Referrer  string          `json:"referrer,omitempty"`
	Resources []page.Resource `json:"resources,omitempty"`
	Fonts     []page.Resource `json:"fonts,omitempty"`
	Images    []page.Resource `json:"images,omitempty"`
	VisitTime time.Time       `json:"visit_time,omitzero"`

	// TaskID is the external caller's correlation id, if any.
	TaskID string `json:"task_id,omitempty"`

	// Lifecycle flags: which transition, if any, must still execute the
	// save before the tab's data becomes unreachable.
	DiscardOnSave bool `json:"discard_on_save,omitempty"`
	RemoveOnSave  bool `json:"remove_on_save,omitempty"`
	UnloadOnSave  bool `json:"unload_on_save,omitempty"`
}

// Request is a payload merged with its session context and resolved options,
// the unit of work the pipeline stages operate on.
type Request struct {
	Tab     *tab.Tab
	Payload *Payload
	Options *rules.Options

	// OpID identifies this save operation in logs and artifact names.
	OpID string
}
