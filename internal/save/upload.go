package save

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/rules"
)

// HTTPUploader posts artifacts to a remote-drop URL as multipart uploads.
type HTTPUploader struct {
	client *http.Client
}

// NewHTTPUploader creates an uploader with the given request timeout.
func NewHTTPUploader(timeout time.Duration) *HTTPUploader {
	return &HTTPUploader{client: &http.Client{Timeout: timeout}}
}

// Upload implements Uploader. Retry policy, if any, belongs here and not in
// the orchestrator; this implementation makes a single attempt.
func (u *HTTPUploader) Upload(ctx context.Context, taskID, filename string, a *Artifact, opts *rules.Options) error {
	if opts.RemoteDropURL == "" {
		return errors.NewInvalidRequest("remote drop URL is not configured")
	}

	src, err := os.Open(a.Path)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer src.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if taskID != "" {
		if err := mw.WriteField("task_id", taskID); err != nil {
			return errors.NewInternal(err)
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return errors.NewInternal(err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return errors.NewInternal(err)
	}
	if err := mw.Close(); err != nil {
		return errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.RemoteDropURL, &body)
	if err != nil {
		return errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return errors.NewTransportFailed("upload", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewTransportFailed("upload", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}
