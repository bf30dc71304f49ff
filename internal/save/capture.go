package save

import (
	"context"
	"fmt"
	"time"

	"github.com/eugenesvk/tabsave/internal/errors"
	"github.com/eugenesvk/tabsave/internal/page"
)

// PageAssembler builds page data from a save request. Content already
// captured by the client is used as-is; anything missing is fetched through
// the supplied fetch capability.
type PageAssembler struct{}

// Capture implements Capturer.
func (PageAssembler) Capture(ctx context.Context, req *Request, fetch Fetcher) (*page.Data, error) {
	p := req.Payload
	t := req.Tab

	url := p.URL
	if url == "" {
		url = t.URL
	}
	title := p.Title
	if title == "" {
		title = t.Title
	}

	content := p.Content
	if content == "" {
		// Client sent no serialized document; fall back to fetching the page.
		resp, err := fetch.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if resp.Status < 200 || resp.Status >= 300 {
			return nil, errors.NewCaptureFailed(url, fmt.Errorf("status %d", resp.Status))
		}
		content = string(resp.Body)
	}

	savedAt := p.VisitTime
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	data := &page.Data{
		Title:   title,
		URL:     url,
		Content: content,
		SavedAt: savedAt,
	}

	if req.Options.IncludeResources {
		resources, err := collectResources(ctx, fetch, p)
		if err != nil {
			return nil, err
		}
		data.Resources = resources
	}

	data.Filename = page.ExpandTemplate(req.Options.FilenameTemplate, page.TemplateVars{
		PageTitle: title,
		URL:       url,
		TabID:     t.ID,
		Now:       savedAt,
	})

	return data, nil
}

// collectResources merges the payload's resource lists, fetching bodies for
// entries that carry only a URL.
func collectResources(ctx context.Context, fetch Fetcher, p *Payload) ([]page.Resource, error) {
	lists := [][]page.Resource{p.Resources, p.Fonts, p.Images}

	var out []page.Resource
	for _, list := range lists {
		for _, res := range list {
			if res.Content == "" && res.URL != "" {
				resp, err := fetch.Fetch(ctx, res.URL)
				if err != nil {
					return nil, err
				}
				res.Content = string(resp.Body)
			}
			out = append(out, res)
		}
	}
	return out, nil
}
