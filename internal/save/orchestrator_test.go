package save

import (
	"context"
	"fmt"
	"testing"

	"github.com/eugenesvk/tabsave/internal/page"
	"github.com/eugenesvk/tabsave/internal/rules"
	"github.com/eugenesvk/tabsave/internal/tab"
)

// Fake collaborators

type fakeResolver struct {
	opts *rules.Options
	err  error
}

func (f *fakeResolver) ResolveOptions(_ context.Context, _ string, _ bool) (*rules.Options, error) {
	return f.opts, f.err
}

type fakeCapturer struct {
	data  *page.Data
	err   error
	calls int
}

func (f *fakeCapturer) Capture(_ context.Context, req *Request, _ Fetcher) (*page.Data, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.data != nil {
		return f.data, nil
	}
	return &page.Data{Filename: "page.zip", URL: req.Tab.URL, Content: req.Payload.Content}, nil
}

type fakeSkip struct {
	skip  bool
	calls int
}

func (f *fakeSkip) CheckSkip(filename string, _ *rules.Options) (SkipResult, error) {
	f.calls++
	return SkipResult{Skipped: f.skip, Filename: filename}, nil
}

type fakeCompressor struct {
	err      error
	calls    int
	artifact *Artifact
}

func (f *fakeCompressor) Compress(_ context.Context, data *page.Data, _ *Request) (*Artifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.artifact = &Artifact{Filename: data.Filename}
	return f.artifact, nil
}

type fakeUploader struct {
	err   error
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, _, _ string, _ *Artifact, _ *rules.Options) error {
	f.calls++
	return f.err
}

type fakeDeliverer struct {
	err   error
	calls int
}

func (f *fakeDeliverer) Deliver(_ context.Context, _ *page.Data, _ *Artifact, _ *rules.Options) error {
	f.calls++
	return f.err
}

type fakeOverlay struct{ calls int }

func (f *fakeOverlay) Inject(_ *page.Data) { f.calls++ }

type fakeNotifier struct {
	started  []string
	ended    []string
	external []string
	refresh  []string
}

func (f *fakeNotifier) SaveStarted(id string, _ int, _ bool) { f.started = append(f.started, id) }
func (f *fakeNotifier) SaveEnded(id string, _ bool)          { f.ended = append(f.ended, id) }
func (f *fakeNotifier) ExternalSaveComplete(taskID string)   { f.external = append(f.external, taskID) }
func (f *fakeNotifier) RefreshUI(t *tab.Tab)                 { f.refresh = append(f.refresh, t.ID) }

type fakeCloser struct{ closed []string }

func (f *fakeCloser) Close(id string) error {
	f.closed = append(f.closed, id)
	return nil
}

type fakeRedirects struct{ mapping map[string]string }

func (f *fakeRedirects) ResolveRedirect(id string) string {
	if next, ok := f.mapping[id]; ok {
		return next
	}
	return id
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(_ context.Context, url string) (*FetchResponse, error) {
	return &FetchResponse{Status: 200, Body: []byte("<html>" + url + "</html>")}, nil
}

type harness struct {
	o        *Orchestrator
	resolver *fakeResolver
	capturer *fakeCapturer
	skip     *fakeSkip
	compress *fakeCompressor
	upload   *fakeUploader
	deliver  *fakeDeliverer
	overlay  *fakeOverlay
	notify   *fakeNotifier
	closer   *fakeCloser
}

func newHarness(opts *rules.Options) *harness {
	h := &harness{
		resolver: &fakeResolver{opts: opts},
		capturer: &fakeCapturer{},
		skip:     &fakeSkip{},
		compress: &fakeCompressor{},
		upload:   &fakeUploader{},
		deliver:  &fakeDeliverer{},
		overlay:  &fakeOverlay{},
		notify:   &fakeNotifier{},
		closer:   &fakeCloser{},
	}
	h.o = &Orchestrator{
		Resolver:  h.resolver,
		Capturer:  h.capturer,
		Skip:      h.skip,
		Overlay:   h.overlay,
		Compress:  h.compress,
		Upload:    h.upload,
		Deliver:   h.deliver,
		Notify:    h.notify,
		Closer:    h.closer,
		Redirects: &fakeRedirects{},
		Fetch:     fakeFetcher{},
	}
	return h
}

func localOptions() *rules.Options {
	return &rules.Options{
		Profile:          rules.ProfileDefault,
		FilenameTemplate: "{page-title}",
		Destination:      rules.DestinationLocal,
		SaveDir:          "/tmp/x",
	}
}

func TestExecuteSave_Success_LocalDelivery(t *testing.T) {
	h := newHarness(localOptions())
	tb := &tab.Tab{ID: "t1", URL: "https://example.com"}

	err := h.o.ExecuteSave(context.Background(), &Payload{Content: "<html></html>"}, tb)
	if err != nil {
		t.Fatalf("ExecuteSave() error = %v", err)
	}

	if h.deliver.calls != 1 {
		t.Errorf("Deliver calls = %d, want 1", h.deliver.calls)
	}
	if h.upload.calls != 0 {
		t.Errorf("Upload calls = %d, want 0", h.upload.calls)
	}
	if len(h.notify.started) != 1 || len(h.notify.ended) != 1 {
		t.Errorf("started = %v, ended = %v, want one each", h.notify.started, h.notify.ended)
	}
	if !h.compress.artifact.Released() {
		t.Error("artifact not released after success")
	}
}

func TestExecuteSave_OptionsAbsent_SilentAbort(t *testing.T) {
	h := newHarness(nil)
	tb := &tab.Tab{ID: "t1", URL: "https://example.com"}

	err := h.o.ExecuteSave(context.Background(), &Payload{}, tb)
	if err != nil {
		t.Fatalf("ExecuteSave() error = %v, want nil for absent options", err)
	}
	if h.capturer.calls != 0 {
		t.Error("capture ran despite absent options")
	}
	if len(h.notify.started) != 0 || len(h.notify.ended) != 0 {
		t.Error("notifications fired despite absent options")
	}
}

func TestExecuteSave_CaptureFailure_CleanupStillRuns(t *testing.T) {
	h := newHarness(localOptions())
	h.capturer.err = fmt.Errorf("capture blew up")
	tb := &tab.Tab{ID: "t1", URL: "https://example.com"}

	err := h.o.ExecuteSave(context.Background(), &Payload{}, tb)
	if err == nil {
		t.Fatal("ExecuteSave() error = nil, want capture error")
	}
	if len(h.notify.ended) != 1 {
		t.Errorf("ended notifications = %d, want exactly 1 despite failure", len(h.notify.ended))
	}
	if h.compress.calls != 0 {
		t.Error("compress ran after capture failure")
	}
}

func TestExecuteSave_UploadFailure_ReleasesArtifact(t *testing.T) {
	opts := localOptions()
	opts.Destination = rules.DestinationRemote
	h := newHarness(opts)
	h.upload.err = fmt.Errorf("503")
	tb := &tab.Tab{ID: "t1", URL: "https://example.com"}

	err := h.o.ExecuteSave(context.Background(), &Payload{Content: "x"}, tb)
	if err == nil {
		t.Fatal("ExecuteSave() error = nil, want upload error")
	}
	if len(h.notify.ended) != 1 {
		t.Errorf("ended notifications = %d, want 1", len(h.notify.ended))
	}
	if !h.compress.artifact.Released() {
		t.Error("artifact not released after upload failure")
	}
	// Remote destination bypasses the skip-check
	if h.skip.calls != 0 {
		t.Errorf("skip-check calls = %d, want 0 for remote destination", h.skip.calls)
	}
}

func TestExecuteSave_Skipped_NoLaterStages(t *testing.T) {
	h := newHarness(localOptions())
	h.skip.skip = true
	tb := &tab.Tab{ID: "t1", URL: "https://example.com"}

	err := h.o.ExecuteSave(context.Background(), &Payload{Content: "x"}, tb)
	if err != nil {
		t.Fatalf("ExecuteSave() error = %v", err)
	}
	if h.compress.calls != 0 || h.deliver.calls != 0 || h.upload.calls != 0 {
		t.Error("later stages ran despite skip")
	}
	if h.overlay.calls != 0 {
		t.Error("overlay ran despite skip")
	}
	if len(h.notify.started) != 1 || len(h.notify.ended) != 1 {
		t.Error("cleanup notifications missing on skip")
	}
}

func TestExecuteSave_OverlayOnlyWhenConfigured(t *testing.T) {
	opts := localOptions()
	opts.InsertOverlay = true
	h := newHarness(opts)
	tb := &tab.Tab{ID: "t1", URL: "https://example.com"}

	if err := h.o.ExecuteSave(context.Background(), &Payload{Content: "x"}, tb); err != nil {
		t.Fatalf("ExecuteSave() error = %v", err)
	}
	if h.overlay.calls != 1 {
		t.Errorf("overlay calls = %d, want 1", h.overlay.calls)
	}
}

func TestExecuteSave_ExternalTask_SignalsCompletion(t *testing.T) {
	opts := localOptions()
	opts.AutoClose = true
	h := newHarness(opts)
	tb := &tab.Tab{ID: "t1", URL: "https://example.com"}

	p := &Payload{Content: "x", TaskID: "task-9", DiscardOnSave: true}
	if err := h.o.ExecuteSave(context.Background(), p, tb); err != nil {
		t.Fatalf("ExecuteSave() error = %v", err)
	}

	if len(h.notify.external) != 1 || h.notify.external[0] != "task-9" {
		t.Errorf("external completions = %v, want [task-9]", h.notify.external)
	}
	// Correlation id takes precedence over auto-close
	if len(h.closer.closed) != 0 {
		t.Errorf("closed tabs = %v, want none when task id present", h.closer.closed)
	}
}

func TestExecuteSave_DiscardAutoClose_ResolvesRedirect(t *testing.T) {
	opts := localOptions()
	opts.AutoClose = true
	h := newHarness(opts)
	h.o.Redirects = &fakeRedirects{mapping: map[string]string{"t1": "t2"}}
	tb := &tab.Tab{ID: "t1", URL: "https://example.com"}

	p := &Payload{Content: "x", DiscardOnSave: true}
	if err := h.o.ExecuteSave(context.Background(), p, tb); err != nil {
		t.Fatalf("ExecuteSave() error = %v", err)
	}

	if len(h.closer.closed) != 1 || h.closer.closed[0] != "t2" {
		t.Errorf("closed tabs = %v, want [t2] via redirect", h.closer.closed)
	}
}

func TestExecuteSave_NoAutoClose_WithoutDiscardFlag(t *testing.T) {
	opts := localOptions()
	opts.AutoClose = true
	h := newHarness(opts)
	tb := &tab.Tab{ID: "t1", URL: "https://example.com"}

	if err := h.o.ExecuteSave(context.Background(), &Payload{Content: "x"}, tb); err != nil {
		t.Fatalf("ExecuteSave() error = %v", err)
	}
	if len(h.closer.closed) != 0 {
		t.Errorf("closed tabs = %v, want none without discard flag", h.closer.closed)
	}
}
