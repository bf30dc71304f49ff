// Package page defines the captured-page model and filename resolution.
package page

import "time"

// Resource is a subresource referenced by a captured page.
type Resource struct {
	URL     string `json:"url"`
	Content string `json:"content,omitempty"`
}

// Data is a captured page ready for the compress and delivery stages.
type Data struct {
	// Filename is the resolved destination filename (template already expanded).
	Filename string

	// Title is the page title at capture time.
	Title string

	// URL is the page address the content was captured from.
	URL string

	// Content is the serialized page markup.
	Content string

	// Resources are inlined subresources bundled with the page.
	Resources []Resource

	// SavedAt is the capture timestamp.
	SavedAt time.Time
}
