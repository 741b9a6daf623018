package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/deusflow/cryptonews/internal/logger"
	"github.com/deusflow/cryptonews/internal/site"
)

// TitleNotFound stands in for the headline when the page has none.
const TitleNotFound = "Заголовок не найден"

// Article is what the pipeline needs from an article page.
type Article struct {
	Body     string
	Title    string
	ImageURL string // empty when the article has no lead image

	// HasContent is false when the body container was missing from the page.
	HasContent bool
}

// Extractor reads the site's markup using the selectors of a site profile.
type Extractor struct {
	sel site.Selectors
}

func NewExtractor(profile *site.Profile) *Extractor {
	return &Extractor{sel: profile.Selectors}
}

func parse(page string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}

// FindLatestArticleLink returns the href of the first article in the "latest news" list.
// A page without the list or without an article in it yields ErrNoArticle.
func (e *Extractor) FindLatestArticleLink(page string) (string, error) {
	doc, err := parse(page)
	if err != nil {
		return "", err
	}

	list := doc.Find(e.sel.LatestList).First()
	if list.Length() == 0 {
		logger.Warn("❌ latest news list not found", "selector", e.sel.LatestList)
		return "", ErrNoArticle
	}

	href, ok := list.Find(e.sel.LatestItem).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", ErrNoArticle
	}
	return href, nil
}

// ExtractContent pulls body text, title and lead image from an article page.
// A missing body container is not an error: the Article comes back with HasContent unset.
func (e *Extractor) ExtractContent(page string) (*Article, error) {
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}

	article := &Article{Title: e.title(doc)}

	content := doc.Find(e.sel.Content).First()
	if content.Length() == 0 {
		logger.Warn("⚠️ article content not found", "selector", e.sel.Content)
		return article, nil
	}

	if len(e.sel.Noise) > 0 {
		content.Find(strings.Join(e.sel.Noise, ", ")).Remove()
	}

	article.HasContent = true
	article.Body = visibleText(content)
	article.ImageURL = e.imageURL(doc)
	return article, nil
}

// ResolveImageURL finds the lead image of an article page, or "" when there is none.
func (e *Extractor) ResolveImageURL(page string) (string, error) {
	doc, err := parse(page)
	if err != nil {
		return "", err
	}
	return e.imageURL(doc), nil
}

// imageURL handles both shapes the site uses: a bare <img> and a responsive <picture>.
func (e *Extractor) imageURL(doc *goquery.Document) string {
	if e.sel.Image != "" {
		if src, ok := doc.Find(e.sel.Image).First().Attr("src"); ok && strings.TrimSpace(src) != "" {
			return strings.TrimSpace(src)
		}
	}

	if e.sel.Picture == "" {
		return ""
	}
	picture := doc.Find(e.sel.Picture).First()
	if picture.Length() == 0 {
		return ""
	}

	if e.sel.PictureSource != "" {
		if srcset, ok := picture.Find(e.sel.PictureSource).First().Attr("srcset"); ok {
			if u := firstSrcsetURL(srcset); u != "" {
				return u
			}
		}
	}

	src, _ := picture.Find("img").First().Attr("src")
	return strings.TrimSpace(src)
}

func (e *Extractor) title(doc *goquery.Document) string {
	h := doc.Find(e.sel.Title).First()
	if h.Length() == 0 {
		return TitleNotFound
	}
	if t := visibleText(h); t != "" {
		return t
	}
	return TitleNotFound
}

// firstSrcsetURL takes the first candidate of a srcset ("a.webp 1x, b.webp 2x" -> "a.webp").
func firstSrcsetURL(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// visibleText joins every non-blank text node under the selection with single spaces.
func visibleText(s *goquery.Selection) string {
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, strings.Join(strings.Fields(t), " "))
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// AbsoluteURL resolves ref against the page it was found on. Unparseable input is returned as is.
func AbsoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
