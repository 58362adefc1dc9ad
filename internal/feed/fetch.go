package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tazhate/tisscal/internal/domain"
)

const DefaultFetchTimeout = 5 * time.Second

// Fetcher retrieves remote iCalendar feeds. Fetches are bounded by the
// client timeout; failures surface immediately to the caller, there are no
// retries here.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and parses the feed at url. Network failures, timeouts
// and non-200 responses wrap domain.ErrCalendarUnavailable; a body that
// fails to parse wraps domain.ErrMalformedFeed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCalendarUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCalendarUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrCalendarUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCalendarUnavailable, err)
	}

	return Parse(body)
}
