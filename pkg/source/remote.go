package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

const (
	userAgent   = "scriptdex/1.0"
	maxBodySize = 32 << 20
)

// Remote fetches the catalog over HTTP, retrying transient failures.
type Remote struct {
	URL    string
	client *retryablehttp.Client
}

// NewRemote returns a Remote for url with five retries and a 30s timeout.
func NewRemote(url string) *Remote {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = 5
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = 30 * time.Second
	return &Remote{URL: url, client: retryClient}
}

func (r *Remote) Categories(ctx context.Context) ([]catalog.Category, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building catalog request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching catalog: unexpected status %d", res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCategories(body)
}
