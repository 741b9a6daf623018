// Package scraper fetches the news site's pages and pulls the latest article out of them.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/deusflow/cryptonews/internal/logger"
	"github.com/deusflow/cryptonews/internal/site"
)

// maxPageSize caps how much of a page is read into memory.
const maxPageSize = 10 << 20

// ErrNoArticle means the index page carries no recognisable latest-article link.
var ErrNoArticle = errors.New("no latest article found")

// NetworkError is returned when a page cannot be retrieved.
type NetworkError struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("network error for %s: %s", e.URL, e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Fetcher downloads pages with a browser-like user agent and a fixed timeout.
type Fetcher struct {
	client    *http.Client
	userAgent string
	indexURL  string
	maxBody   int64
}

func NewFetcher(profile *site.Profile) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: profile.Timeout},
		userAgent: profile.UserAgent,
		indexURL:  profile.IndexURL,
		maxBody:   maxPageSize,
	}
}

// IndexURL is the page FetchIndexPage retrieves.
func (f *Fetcher) IndexURL() string {
	return f.indexURL
}

// FetchIndexPage gets the site's front page.
func (f *Fetcher) FetchIndexPage(ctx context.Context) (string, error) {
	return f.FetchArticlePage(ctx, f.indexURL)
}

// FetchArticlePage gets any page of the site as HTML.
func (f *Fetcher) FetchArticlePage(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &NetworkError{URL: pageURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &NetworkError{URL: pageURL, Message: "failed to create request", Cause: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: pageURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &NetworkError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", &NetworkError{URL: pageURL, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}
	if int64(len(body)) > f.maxBody {
		return "", &NetworkError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("page too large (over %d bytes)", f.maxBody),
		}
	}

	logger.Debug("page fetched", "url", pageURL, "bytes", len(body), "took", time.Since(start))
	return string(body), nil
}
