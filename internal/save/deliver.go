package save

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/page"
	"github.com/eugenesvk/tabsave/internal/rules"
)

// LocalDeliverer copies an artifact into the saves directory.
type LocalDeliverer struct{}

// Deliver implements Deliverer. The artifact's backing file stays in place;
// releasing it afterward remains the orchestrator's job.
func (LocalDeliverer) Deliver(ctx context.Context, data *page.Data, a *Artifact, opts *rules.Options) error {
	if err := ctx.Err(); err != nil {
		return errors.NewInternal(err)
	}
	if opts.SaveDir == "" {
		return errors.NewInvalidRequest("save directory is not configured")
	}
	if err := os.MkdirAll(opts.SaveDir, 0700); err != nil {
		return errors.NewInternal(err)
	}

	src, err := os.Open(a.Path)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer src.Close()

	dest := filepath.Join(opts.SaveDir, data.Filename)
	dst, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dest)
		return errors.NewInternal(err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dest)
		return errors.NewInternal(err)
	}
	return nil
}
