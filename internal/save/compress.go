package save

import (
	"archive/zip"
	"context"
	"fmt"
	"os"

	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/page"
)

// ZipCompressor serializes page data into a zip archive backed by a
// temporary file. The caller owns the returned artifact and must release it.
type ZipCompressor struct{}

// Compress implements Compressor.
func (ZipCompressor) Compress(ctx context.Context, data *page.Data, req *Request) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	tmp, err := os.CreateTemp("", "tabsave-"+req.OpID+"-*.zip")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := writeArchive(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}

	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errors.NewInternal(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, errors.NewInternal(err)
	}

	return &Artifact{
		Filename: data.Filename,
		Path:     tmp.Name(),
		Size:     info.Size(),
	}, nil
}

func writeArchive(f *os.File, data *page.Data) error {
	zw := zip.NewWriter(f)

	w, err := zw.Create("index.html")
	if err != nil {
		return errors.NewInternal(err)
	}
	if _, err := w.Write([]byte(data.Content)); err != nil {
		return errors.NewInternal(err)
	}

	for i, res := range data.Resources {
		name := fmt.Sprintf("resources/%03d_%s", i, page.Sanitize(res.URL))
		w, err := zw.Create(name)
		if err != nil {
			return errors.NewInternal(err)
		}
		if _, err := w.Write([]byte(res.Content)); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := zw.Close(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
