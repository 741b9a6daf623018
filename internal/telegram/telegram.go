// Package telegram talks to the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/cryptonews/internal/logger"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	// ParseMode is Telegram's legacy Markdown: *bold*, _italic_.
	ParseMode = "Markdown"

	MaxCaptionRunes = 1024
	MaxTextRunes    = 4096
)

// APIError is a non-200 answer from the Bot API.
type APIError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error: %s: status %d: %s", e.Method, e.StatusCode, e.Body)
}

// Client posts to one chat or channel.
type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
}

func NewClient(token, chatID string, timeout time.Duration) *Client {
	return &Client{
		token:   token,
		chatID:  chatID,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithBaseURL points the client at another Bot API server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// SendMessage sends a text message as a form post.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", c.chatID)
	form.Set("text", Truncate(text, MaxTextRunes))
	form.Set("parse_mode", ParseMode)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := c.do(req, "sendMessage"); err != nil {
		return err
	}
	logger.Debug("telegram sendMessage ok")
	return nil
}

// SendPhoto uploads a JPEG with a caption as multipart form data.
func (c *Client) SendPhoto(ctx context.Context, photo io.Reader, filename, caption string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := [][2]string{
		{"chat_id", c.chatID},
		{"caption", Truncate(caption, MaxCaptionRunes)},
		{"parse_mode", ParseMode},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("error writing form field %s: %w", f[0], err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename="%s"`, filename))
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("error creating photo part: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return fmt.Errorf("error writing photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("error closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if err := c.do(req, "sendPhoto"); err != nil {
		return err
	}
	logger.Debug("telegram sendPhoto ok")
	return nil
}

func (c *Client) do(req *http.Request, method string) error {
	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("error HTTP request %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return nil
}

// Truncate cuts s to at most limit runes, ending with an ellipsis when cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
