// Package summarize condenses article text through hosted language models.
//
// Backends are tried in order; when none of them produces a summary the
// Summarizer answers with Placeholder so the post still goes out.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/deusflow/cryptonews/internal/logger"
)

// Placeholder replaces the summary when every backend failed.
const Placeholder = "⚠️ Ошибка анализа"

const (
	// MaxLength bounds the generated summary.
	MaxLength = 1000
	// Temperature is the fixed sampling temperature.
	Temperature = 0.5
)

// Backend is one hosted model.
type Backend interface {
	Name() string
	Summarize(ctx context.Context, prompt string) (string, error)
}

// APIError is a non-success answer from a summarization API.
type APIError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Backend, e.StatusCode, e.Body)
}

// Prompt is the instruction sent with the full article text. The text is not truncated.
func Prompt(text string) string {
	return "Please summarize the following news article in a clear and concise manner, " +
		"highlighting the main points and keeping the context intact: " + text
}

type Summarizer struct {
	backends []Backend
}

func New(backends ...Backend) *Summarizer {
	return &Summarizer{backends: backends}
}

// Summarize returns an English summary of text, or Placeholder. It never fails.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("⚠️ nothing to summarize, using placeholder")
		return Placeholder
	}

	prompt := Prompt(text)
	for _, b := range s.backends {
		summary, err := b.Summarize(ctx, prompt)
		if err != nil {
			logger.Warn("⚠️ summarization failed", "backend", b.Name(), "error", err)
			continue
		}
		if summary = strings.TrimSpace(summary); summary == "" {
			logger.Warn("⚠️ summarization returned empty text", "backend", b.Name())
			continue
		}
		logger.Info("✅ summary ready", "backend", b.Name(), "chars", len([]rune(summary)))
		return summary
	}
	return Placeholder
}
