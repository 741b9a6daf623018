// Package publisher turns a translated article into a channel post.
package publisher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/deusflow/cryptonews/internal/logger"
	"github.com/deusflow/cryptonews/internal/telegram"
)

// PhotoFilename is the name the cropped image is uploaded under.
const PhotoFilename = "cropped.jpg"

// Sender delivers posts to the channel.
type Sender interface {
	SendMessage(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, photo io.Reader, filename, caption string) error
}

// Cropper prepares the lead image.
type Cropper interface {
	CropBottom(ctx context.Context, imageURL string, pixels int) (*bytes.Reader, error)
}

// Post is a translated article ready for publishing.
type Post struct {
	Title      string
	Summary    string
	ImageURL   string // empty: text-only post
	SourceLink string
}

type Kind string

const (
	KindPhoto Kind = "photo"
	KindText  Kind = "text"
)

// Result tells how the post went out.
type Result struct {
	Kind Kind
	// Degraded is set when an image existed but could not be prepared, so a text post was sent instead.
	Degraded bool
}

type Publisher struct {
	sender     Sender
	cropper    Cropper
	cropPixels int
}

func New(sender Sender, cropper Cropper, cropPixels int) *Publisher {
	return &Publisher{sender: sender, cropper: cropper, cropPixels: cropPixels}
}

var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

const messageFormat = "*%s*\n\n%s\n\n🔗 Источник: %s"

// ComposeMessage renders the post body in Telegram Markdown: bold title, summary, source line.
// When limit is positive only the summary is shortened to fit, so the title and source link
// always reach the channel.
func ComposeMessage(p Post, limit int) string {
	title := markdownEscaper.Replace(strings.TrimSpace(p.Title))
	link := markdownEscaper.Replace(strings.TrimSpace(p.SourceLink))
	summary := strings.TrimSpace(p.Summary)

	if limit > 0 {
		frame := utf8.RuneCountInString(fmt.Sprintf(messageFormat, title, "", link))
		summary = fitSummary(summary, limit-frame)
	} else {
		summary = markdownEscaper.Replace(summary)
	}
	return fmt.Sprintf(messageFormat, title, summary, link)
}

// fitSummary escapes summary and cuts it to budget runes, counting the escapes.
// A cut summary ends with an ellipsis and never splits an escape sequence.
func fitSummary(summary string, budget int) string {
	escaped := markdownEscaper.Replace(summary)
	if utf8.RuneCountInString(escaped) <= budget {
		return escaped
	}
	if budget < 1 {
		return ""
	}

	var b strings.Builder
	used := 0
	for _, r := range summary {
		piece := markdownEscaper.Replace(string(r))
		n := utf8.RuneCountInString(piece)
		if used+n > budget-1 {
			break
		}
		b.WriteString(piece)
		used += n
	}
	return strings.TrimRight(b.String(), " \n") + "…"
}

// Publish sends a photo with caption when the post has an image and a text message otherwise.
// An image that cannot be downloaded or decoded downgrades the post to text.
func (p *Publisher) Publish(ctx context.Context, post Post) (Result, error) {
	if post.ImageURL != "" {
		photo, err := p.cropper.CropBottom(ctx, post.ImageURL, p.cropPixels)
		if err == nil {
			caption := ComposeMessage(post, telegram.MaxCaptionRunes)
			if err := p.sender.SendPhoto(ctx, photo, PhotoFilename, caption); err != nil {
				logger.Error("❌ Ошибка при отправке поста", "error", err)
				return Result{Kind: KindPhoto}, fmt.Errorf("send photo post: %w", err)
			}
			logger.Info("✅ Пост отправлен в Telegram!")
			return Result{Kind: KindPhoto}, nil
		}
		logger.Warn("⚠️ image unavailable, sending text only", "url", post.ImageURL, "error", err)

		res, sendErr := p.sendText(ctx, ComposeMessage(post, telegram.MaxTextRunes))
		res.Degraded = true
		return res, sendErr
	}

	return p.sendText(ctx, ComposeMessage(post, telegram.MaxTextRunes))
}

func (p *Publisher) sendText(ctx context.Context, message string) (Result, error) {
	if err := p.sender.SendMessage(ctx, message); err != nil {
		logger.Error("❌ Ошибка при отправке сообщения", "error", err)
		return Result{Kind: KindText}, fmt.Errorf("send text post: %w", err)
	}
	logger.Info("✅ Сообщение отправлено!")
	return Result{Kind: KindText}, nil
}
