// Package app runs the pipeline once: latest article → summary → translation → channel post.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/deusflow/cryptonews/internal/config"
	"github.com/deusflow/cryptonews/internal/imaging"
	"github.com/deusflow/cryptonews/internal/logger"
	"github.com/deusflow/cryptonews/internal/metrics"
	"github.com/deusflow/cryptonews/internal/publisher"
	"github.com/deusflow/cryptonews/internal/scraper"
	"github.com/deusflow/cryptonews/internal/summarize"
	"github.com/deusflow/cryptonews/internal/telegram"
	"github.com/deusflow/cryptonews/internal/translate"
)

// summarizeTimeout is longer than page fetches: hosted models may need to load first.
const summarizeTimeout = 60 * time.Second

// autoDetect asks the translator to detect the source language.
const autoDetect = "auto"

var errSummaryPlaceholder = errors.New("summary unavailable, placeholder used")

type PageFetcher interface {
	IndexURL() string
	FetchIndexPage(ctx context.Context) (string, error)
	FetchArticlePage(ctx context.Context, url string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, post publisher.Post) (publisher.Result, error)
}

// Deps are the pipeline's collaborators.
type Deps struct {
	Fetcher    PageFetcher
	Extractor  *scraper.Extractor
	Summarizer Summarizer
	Translator Translator
	Publisher  Publisher
}

type Options struct {
	// DryRun prints the post instead of publishing it.
	DryRun bool
	// Out receives the human-readable preview; defaults to stdout.
	Out io.Writer
}

type Pipeline struct {
	cfg     *config.Config
	deps    Deps
	opts    Options
	closers []func()
}

// New wires the production services from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) *Pipeline {
	backends := []summarize.Backend{summarize.NewHuggingFace(cfg.HuggingFaceAPIKey, summarizeTimeout)}

	var closers []func()
	if cfg.GeminiAPIKey != "" {
		g, err := summarize.NewGemini(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("⚠️ Gemini fallback disabled", "error", err)
		} else {
			backends = append(backends, g)
			closers = append(closers, g.Close)
		}
	}

	sender := telegram.NewClient(cfg.BotToken, cfg.ChatID, cfg.RequestTimeout)

	p := NewWithDeps(cfg, Deps{
		Fetcher:    scraper.NewFetcher(cfg.Site),
		Extractor:  scraper.NewExtractor(cfg.Site),
		Summarizer: summarize.New(backends...),
		Translator: translate.New(cfg.RequestTimeout, cfg.OpenAIAPIKey),
		Publisher:  publisher.New(sender, imaging.NewCropper(cfg.Site), cfg.CropPixels),
	}, opts)
	p.closers = closers
	return p
}

func NewWithDeps(cfg *config.Config, deps Deps, opts Options) *Pipeline {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Pipeline{cfg: cfg, deps: deps, opts: opts}
}

// Close releases API clients.
func (p *Pipeline) Close() {
	for _, c := range p.closers {
		c()
	}
}

// Run executes every stage once, in order, and reports how each one ended.
// Fetch and translation failures stop the run; extraction and summarization
// failures degrade the post; no article on the index page ends the run quietly.
func (p *Pipeline) Run(ctx context.Context) *metrics.Report {
	report := metrics.NewReport()
	defer report.Finish()
	log := logger.With("run_id", report.RunID.String())

	start := time.Now()
	indexPage, err := p.deps.Fetcher.FetchIndexPage(ctx)
	if err != nil {
		log.Error("❌ failed to fetch index page", "error", err)
		report.Record(metrics.StageFetchIndex, metrics.OutcomeFailed, start, err)
		return report
	}
	report.Record(metrics.StageFetchIndex, metrics.OutcomeOK, start, nil)

	start = time.Now()
	link, err := p.deps.Extractor.FindLatestArticleLink(indexPage)
	switch {
	case errors.Is(err, scraper.ErrNoArticle):
		log.Warn("❌ Не удалось получить новость.")
		report.Record(metrics.StageFindLink, metrics.OutcomeSkipped, start, err)
		report.MarkNoNews()
		return report
	case err != nil:
		log.Error("❌ failed to read index page", "error", err)
		report.Record(metrics.StageFindLink, metrics.OutcomeFailed, start, err)
		return report
	}
	link = scraper.AbsoluteURL(p.deps.Fetcher.IndexURL(), link)
	report.ArticleLink = link
	report.Record(metrics.StageFindLink, metrics.OutcomeOK, start, nil)
	log.Info("latest article found", "link", link)

	start = time.Now()
	articlePage, err := p.deps.Fetcher.FetchArticlePage(ctx, link)
	if err != nil {
		log.Error("❌ failed to fetch article", "link", link, "error", err)
		report.Record(metrics.StageFetchArticle, metrics.OutcomeFailed, start, err)
		return report
	}
	report.Record(metrics.StageFetchArticle, metrics.OutcomeOK, start, nil)

	start = time.Now()
	article, err := p.deps.Extractor.ExtractContent(articlePage)
	switch {
	case err != nil:
		log.Warn("⚠️ failed to parse article, continuing without content", "error", err)
		article = &scraper.Article{Title: scraper.TitleNotFound}
		report.Record(metrics.StageExtract, metrics.OutcomeDegraded, start, err)
	case !article.HasContent:
		report.Record(metrics.StageExtract, metrics.OutcomeDegraded, start, errors.New("article content not found"))
	default:
		report.Record(metrics.StageExtract, metrics.OutcomeOK, start, nil)
	}
	imageURL := scraper.AbsoluteURL(link, article.ImageURL)
	log.Debug("article extracted", "chars", len(article.Body), "title", article.Title, "image", imageURL)

	start = time.Now()
	summary := p.deps.Summarizer.Summarize(ctx, article.Body)
	if summary == summarize.Placeholder {
		report.Record(metrics.StageSummarize, metrics.OutcomeDegraded, start, errSummaryPlaceholder)
	} else {
		report.Record(metrics.StageSummarize, metrics.OutcomeOK, start, nil)
	}

	start = time.Now()
	title, summaryRU, err := p.translate(ctx, article.Title, summary)
	if err != nil {
		log.Error("❌ translation failed", "error", err)
		report.Record(metrics.StageTranslate, metrics.OutcomeFailed, start, err)
		return report
	}
	report.Record(metrics.StageTranslate, metrics.OutcomeOK, start, nil)

	fmt.Fprintf(p.opts.Out, "🌍 Последняя новость:\n🔗 %s\n", link)
	fmt.Fprintf(p.opts.Out, "📢 Заголовок: %s\n", title)
	fmt.Fprintf(p.opts.Out, "📜 Анализ: %s\n", summaryRU)

	post := publisher.Post{
		Title:      title,
		Summary:    summaryRU,
		ImageURL:   imageURL,
		SourceLink: link,
	}

	start = time.Now()
	if p.opts.DryRun {
		limit := telegram.MaxTextRunes
		if post.ImageURL != "" {
			limit = telegram.MaxCaptionRunes
		}
		fmt.Fprintf(p.opts.Out, "--- dry run, not published ---\n%s\n", publisher.ComposeMessage(post, limit))
		if post.ImageURL != "" {
			fmt.Fprintf(p.opts.Out, "🖼 %s\n", post.ImageURL)
		}
		report.Record(metrics.StagePublish, metrics.OutcomeSkipped, start, nil)
		return report
	}

	res, err := p.deps.Publisher.Publish(ctx, post)
	report.PostKind = string(res.Kind)
	switch {
	case err != nil:
		report.Record(metrics.StagePublish, metrics.OutcomeFailed, start, err)
	case res.Degraded:
		report.Record(metrics.StagePublish, metrics.OutcomeDegraded, start, errors.New("image unavailable, posted as text"))
	default:
		report.Record(metrics.StagePublish, metrics.OutcomeOK, start, nil)
	}
	return report
}

// translate renders title and summary in the target language. Placeholders are already Russian.
func (p *Pipeline) translate(ctx context.Context, title, summary string) (string, string, error) {
	var err error
	if title != scraper.TitleNotFound {
		if title, err = p.deps.Translator.Translate(ctx, title, autoDetect, p.cfg.TargetLang); err != nil {
			return "", "", fmt.Errorf("translate title: %w", err)
		}
	}
	if summary != summarize.Placeholder {
		if summary, err = p.deps.Translator.Translate(ctx, summary, p.cfg.SummaryLang, p.cfg.TargetLang); err != nil {
			return "", "", fmt.Errorf("translate summary: %w", err)
		}
	}
	return title, summary, nil
}
