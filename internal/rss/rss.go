// Package rss lists the newest entries of the site's RSS feed.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/cryptonews/internal/logger"
	"github.com/deusflow/cryptonews/internal/site"
)

// Entry is one feed item.
type Entry struct {
	Title     string
	Link      string
	Published time.Time
}

// LatestEntries downloads the profile's feed and returns up to limit entries, newest first.
func LatestEntries(ctx context.Context, profile *site.Profile, limit int) ([]Entry, error) {
	if profile.FeedURL == "" {
		return nil, fmt.Errorf("site profile %q has no feed_url", profile.Name)
	}

	parser := gofeed.NewParser()
	parser.UserAgent = profile.UserAgent
	parser.Client = &http.Client{Timeout: profile.Timeout}

	feed, err := parser.ParseURLWithContext(profile.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("error parsing RSS %s: %w", profile.FeedURL, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		e := Entry{Title: strings.TrimSpace(item.Title), Link: strings.TrimSpace(item.Link)}
		if item.PublishedParsed != nil {
			e.Published = *item.PublishedParsed
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Published.After(entries[j].Published)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	logger.Info("Loaded news from feed", "count", len(entries), "feed", profile.FeedURL)
	return entries, nil
}
