package tle

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const userAgent = "skytrack/1.0"

// Fetcher retrieves raw element-set text for Celestrak group tags.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a Fetcher with a bounded request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
	}
}

// FetchGroup downloads the element-set text for one group tag. Unknown tags
// fail without a network round trip.
func (f *Fetcher) FetchGroup(ctx context.Context, group string) ([]byte, error) {
	url, ok := GroupURL(group)
	if !ok {
		return nil, errors.Errorf("unknown group tag %q", group)
	}
	return f.fetch(ctx, url)
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching element data")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	if len(body) == 0 {
		return nil, errors.Errorf("empty response from %s", url)
	}

	return body, nil
}
