package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPFetcher downloads the source object through the presigned URL the
// Object Lambda event carries.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds a fetcher; a nil client falls back to
// http.DefaultClient.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

// Fetch GETs the URL and returns the response body. The URL is presigned
// and never included in errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build source request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch source object: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read source object: %w", err)
	}
	return body, nil
}
