package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/cryptonews/internal/site"
)

func testProfile(indexURL string) *site.Profile {
	p := site.Default()
	p.IndexURL = indexURL
	p.Timeout = 2 * time.Second
	return p
}

func TestFetchIndexPage_SendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html><body>index</body></html>"))
	}))
	defer server.Close()

	f := NewFetcher(testProfile(server.URL))
	page, err := f.FetchIndexPage(context.Background())
	require.NoError(t, err)

	assert.Contains(t, page, "index")
	assert.Equal(t, "Mozilla/5.0", gotUA)
}

func TestFetchArticlePage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcher(testProfile(server.URL))
	_, err := f.FetchArticlePage(context.Background(), server.URL+"/news/x")
	require.Error(t, err)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusForbidden, netErr.StatusCode)
	assert.Contains(t, err.Error(), "403")
}

func TestFetchArticlePage_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	p := testProfile(server.URL)
	p.Timeout = 50 * time.Millisecond
	f := NewFetcher(p)

	_, err := f.FetchIndexPage(context.Background())
	require.Error(t, err)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "HTTP request failed", netErr.Message)
}

func TestFetchArticlePage_InvalidURL(t *testing.T) {
	f := NewFetcher(testProfile("https://crypto.news/"))
	_, err := f.FetchArticlePage(context.Background(), "not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestFetchArticlePage_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 65)))
	}))
	defer server.Close()

	f := NewFetcher(testProfile(server.URL))
	f.maxBody = 64

	_, err := f.FetchArticlePage(context.Background(), server.URL+"/news/huge")
	require.Error(t, err)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Contains(t, netErr.Message, "page too large")
}

func TestFetchArticlePage_ExactlyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	f := NewFetcher(testProfile(server.URL))
	f.maxBody = 64

	page, err := f.FetchArticlePage(context.Background(), server.URL+"/news/fits")
	require.NoError(t, err)
	assert.Len(t, page, 64)
}
