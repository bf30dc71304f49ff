package rules

import "github.com/eugenesvk/tabsave/internal/config"

// Destination selects where the save artifact is handed off.
type Destination string

const (
	// DestinationLocal delivers the artifact into the saves directory.
	DestinationLocal Destination = "local"
	// DestinationRemote uploads the artifact to the configured drop URL.
	DestinationRemote Destination = "remote"
)

// Options is the per-save configuration resolved from a URL rule's profile.
// A nil *Options means auto-save is inactive for that URL context.
type Options struct {
	Profile          string      `json:"profile"`
	FilenameTemplate string      `json:"filename_template,omitempty"`
	ConflictAction   string      `json:"conflict_action,omitempty"`
	Destination      Destination `json:"destination,omitempty"`
	RemoteDropURL    string      `json:"remote_drop_url,omitempty"`
	SaveDir          string      `json:"save_dir,omitempty"`

	// InsertOverlay injects the informational save banner into the page.
	InsertOverlay bool `json:"insert_overlay,omitempty"`
	// IncludeResources inlines the subresources listed in the save payload.
	IncludeResources bool `json:"include_resources,omitempty"`
	// AutoClose closes the tab after a discard-on-save flush completes.
	AutoClose bool `json:"auto_close,omitempty"`
}

// DefaultOptions builds options for the default profile from config.
func DefaultOptions(cfg *config.Config) *Options {
	dest := DestinationLocal
	if cfg.RemoteDropURL != "" {
		dest = DestinationRemote
	}
	return &Options{
		Profile:          ProfileDefault,
		FilenameTemplate: cfg.FilenameTemplate,
		ConflictAction:   cfg.ConflictAction,
		Destination:      dest,
		RemoteDropURL:    cfg.RemoteDropURL,
		SaveDir:          cfg.SaveDir,
		IncludeResources: true,
	}
}

// Normalize fills unset fields from config defaults.
// Stored profiles may omit fields; resolution always yields complete options.
func (o *Options) Normalize(cfg *config.Config) {
	if o.FilenameTemplate == "" {
		o.FilenameTemplate = cfg.FilenameTemplate
	}
	if o.ConflictAction == "" {
		o.ConflictAction = cfg.ConflictAction
	}
	if o.Destination == "" {
		o.Destination = DestinationLocal
	}
	if o.Destination == DestinationRemote && o.RemoteDropURL == "" {
		o.RemoteDropURL = cfg.RemoteDropURL
	}
	if o.SaveDir == "" {
		o.SaveDir = cfg.SaveDir
	}
}
