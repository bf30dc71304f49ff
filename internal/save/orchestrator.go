package save

import (
	"context"
	"crypto/rand"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/eugenesvk/tabsave/internal/page"
	"github.com/eugenesvk/tabsave/internal/rules"
	"github.com/eugenesvk/tabsave/internal/tab"
)

// OptionsResolver resolves per-save options from a URL and stored rules.
// A nil result with nil error means auto-save is inactive for that URL.
type OptionsResolver interface {
	ResolveOptions(ctx context.Context, url string, forceConsider bool) (*rules.Options, error)
}

// Capturer assembles page data from a request, using the supplied fetch
// capability for anything not already present in the payload.
type Capturer interface {
	Capture(ctx context.Context, req *Request, fetch Fetcher) (*page.Data, error)
}

// SkipResult is the outcome of a destination conflict check.
type SkipResult struct {
	Skipped bool
	// Filename is the final destination filename, possibly uniquified.
	Filename string
}

// SkipChecker decides whether a save to the given filename should be skipped
// under the options' conflict action.
type SkipChecker interface {
	CheckSkip(filename string, opts *rules.Options) (SkipResult, error)
}

// Compressor serializes page data into a transportable artifact.
type Compressor interface {
	Compress(ctx context.Context, data *page.Data, req *Request) (*Artifact, error)
}

// Uploader sends an artifact to a remote-drop destination.
type Uploader interface {
	Upload(ctx context.Context, taskID, filename string, a *Artifact, opts *rules.Options) error
}

// Deliverer hands an artifact off to local delivery.
type Deliverer interface {
	Deliver(ctx context.Context, data *page.Data, a *Artifact, opts *rules.Options) error
}

// OverlayInjector adds the informational save banner to captured page data.
type OverlayInjector interface {
	Inject(data *page.Data)
}

// Notifier reports save progress to the session and to external callers.
type Notifier interface {
	SaveStarted(id string, count int, autoSave bool)
	SaveEnded(id string, autoSave bool)
	ExternalSaveComplete(taskID string)
	RefreshUI(t *tab.Tab)
}

// TabCloser closes a tab by its current identity.
type TabCloser interface {
	Close(id string) error
}

// RedirectResolver maps a tab id through the identity-redirect table,
// consuming the redirect entry.
type RedirectResolver interface {
	ResolveRedirect(id string) string
}

// Orchestrator wires the pipeline collaborators together.
type Orchestrator struct {
	Resolver  OptionsResolver
	Capturer  Capturer
	Skip      SkipChecker
	Overlay   OverlayInjector
	Compress  Compressor
	Upload    Uploader
	Deliver   Deliverer
	Notify    Notifier
	Closer    TabCloser
	Redirects RedirectResolver
	Fetch     Fetcher
}

// ExecuteSave runs the save pipeline for one intent. All outcomes, including
// skip and failure, run the cleanup steps exactly once: external completion
// or tab auto-close, artifact release, then the save-ended notification.
func (o *Orchestrator) ExecuteSave(ctx context.Context, p *Payload, t *tab.Tab) error {
	opts, err := o.Resolver.ResolveOptions(ctx, t.URL, true)
	if err != nil {
		return err
	}
	if opts == nil {
		// Auto-save is inactive for this URL right now. Not an error.
		return nil
	}

	o.Notify.SaveStarted(t.ID, 1, true)

	var artifact *Artifact
	defer func() {
		if p.TaskID != "" {
			o.Notify.ExternalSaveComplete(p.TaskID)
		} else if p.DiscardOnSave && opts.AutoClose {
			id := o.Redirects.ResolveRedirect(t.ID)
			if err := o.Closer.Close(id); err != nil {
				log.Printf("tabsave: close tab %s: %v", id, err)
			}
		}
		if err := artifact.Release(); err != nil {
			log.Printf("tabsave: release artifact: %v", err)
		}
		o.Notify.SaveEnded(t.ID, true)
	}()

	req := &Request{Tab: t, Payload: p, Options: opts, OpID: newOpID()}

	data, err := o.Capturer.Capture(ctx, req, o.Fetch)
	if err != nil {
		return err
	}

	if opts.Destination != rules.DestinationRemote {
		skip, err := o.Skip.CheckSkip(data.Filename, opts)
		if err != nil {
			return err
		}
		if skip.Skipped {
			return nil
		}
		data.Filename = skip.Filename
	}

	if opts.InsertOverlay {
		o.Overlay.Inject(data)
	}

	artifact, err = o.Compress.Compress(ctx, data, req)
	if err != nil {
		return err
	}

	if opts.Destination == rules.DestinationRemote {
		return o.Upload.Upload(ctx, p.TaskID, data.Filename, artifact, opts)
	}
	return o.Deliver.Deliver(ctx, data, artifact, opts)
}

// newOpID generates a ULID naming one save operation.
func newOpID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return ""
	}
	return id.String()
}
