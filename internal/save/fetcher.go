package save

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/eugenesvk/tabsave/internal/errors"
)

// FetchResponse is the result of a single resource fetch.
type FetchResponse struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Fetcher is the minimal HTTP GET capability handed to the capture stage.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResponse, error)
}

// HTTPFetcher fetches resources with cookies included, scoped to one
// orchestrator. Response bodies are capped to avoid unbounded reads.
type HTTPFetcher struct {
	client  *http.Client
	maxBody int64
}

const defaultMaxFetchBody = 32 << 20 // 32 MiB

// NewHTTPFetcher creates a fetcher with a cookie jar and request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	jar, _ := cookiejar.New(nil)
	return &HTTPFetcher{
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		maxBody: defaultMaxFetchBody,
	}
}

// Fetch performs a GET request for the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.NewTransportFailed("fetch", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, errors.NewTransportFailed("fetch", err)
	}

	return &FetchResponse{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    body,
	}, nil
}
