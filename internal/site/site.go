// Package site describes where the news site keeps its latest articles and how its pages are marked up.
//
// The profile is YAML so markup changes on the site are a data edit:
//
//	index_url: https://crypto.news/
//	selectors:
//	  latest_list: .home-latest-news__list
package site

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed crypto_news.yaml
var defaultProfile []byte

// Selectors are the CSS selectors the extractor relies on.
type Selectors struct {
	LatestList    string   `yaml:"latest_list"`
	LatestItem    string   `yaml:"latest_item"`
	Content       string   `yaml:"content"`
	Noise         []string `yaml:"noise"`
	Title         string   `yaml:"title"`
	Image         string   `yaml:"image"`
	Picture       string   `yaml:"picture"`
	PictureSource string   `yaml:"picture_source"`
}

// Profile is one news site.
type Profile struct {
	Name      string        `yaml:"name"`
	IndexURL  string        `yaml:"index_url"`
	FeedURL   string        `yaml:"feed_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Selectors Selectors     `yaml:"selectors"`
}

// Load decodes a profile and checks the fields the pipeline cannot run without.
func Load(r io.Reader) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode site profile: %w", err)
	}

	switch {
	case p.IndexURL == "":
		return nil, fmt.Errorf("site profile %q: index_url is required", p.Name)
	case p.Selectors.LatestList == "" || p.Selectors.LatestItem == "":
		return nil, fmt.Errorf("site profile %q: latest_list and latest_item selectors are required", p.Name)
	case p.Selectors.Content == "":
		return nil, fmt.Errorf("site profile %q: content selector is required", p.Name)
	}

	if p.Selectors.Title == "" {
		p.Selectors.Title = "h1"
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	return &p, nil
}

// Default returns the built-in crypto.news profile.
func Default() *Profile {
	p, err := Load(bytes.NewReader(defaultProfile))
	if err != nil {
		panic(fmt.Sprintf("embedded site profile is invalid: %v", err))
	}
	return p
}
