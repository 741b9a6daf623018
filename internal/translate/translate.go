// Package translate turns titles and summaries into the channel's language.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/deusflow/cryptonews/internal/logger"
)

const (
	// DefaultGoogleURL is the public Google Translate endpoint.
	DefaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

	// maxChunkRunes keeps each request under the endpoint's query limit.
	maxChunkRunes = 1800
)

// Translator uses Google Translate and, when an OpenAI key is configured, falls back to OpenAI.
type Translator struct {
	client    *http.Client
	googleURL string
	openai    *openai.Client
}

func New(timeout time.Duration, openaiKey string) *Translator {
	t := &Translator{
		client:    &http.Client{Timeout: timeout},
		googleURL: DefaultGoogleURL,
	}
	if openaiKey != "" {
		t.openai = openai.NewClient(openaiKey)
	}
	return t
}

// WithGoogleEndpoint replaces the Google Translate URL.
func (t *Translator) WithGoogleEndpoint(endpoint string) *Translator {
	t.googleURL = endpoint
	return t
}

// WithOpenAI replaces the fallback client; nil disables the fallback.
func (t *Translator) WithOpenAI(c *openai.Client) *Translator {
	t.openai = c
	return t
}

// Translate converts text from source ("auto" to detect) to target.
// It fails only when every configured service failed.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	chunks := splitForTranslation(text, maxChunkRunes)
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		translated, err := t.translateChunk(ctx, chunk, source, target)
		if err != nil {
			return "", err
		}
		out = append(out, translated)
	}
	return strings.Join(out, " "), nil
}

func (t *Translator) translateChunk(ctx context.Context, text, source, target string) (string, error) {
	result, googleErr := t.translateWithGoogle(ctx, text, source, target)
	if googleErr == nil && strings.TrimSpace(result) != "" {
		logger.Debug("✅ Google Translate ok", "from", source, "to", target)
		return result, nil
	}
	if googleErr == nil {
		googleErr = errors.New("google Translate returned empty text")
	}
	logger.Warn("⚠️ Google Translate not work", "from", source, "to", target, "error", googleErr)

	if t.openai == nil {
		return "", fmt.Errorf("translate %s->%s: %w", source, target, googleErr)
	}

	result, openaiErr := t.translateWithOpenAI(ctx, text, source, target)
	if openaiErr == nil {
		logger.Info("✅ OpenAI translate ok", "from", source, "to", target)
		return result, nil
	}
	logger.Warn("⚠️ OpenAI not work", "from", source, "to", target, "error", openaiErr)
	return "", fmt.Errorf("translate %s->%s: %w", source, target, errors.Join(googleErr, openaiErr))
}

func (t *Translator) translateWithGoogle(ctx context.Context, text, source, target string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t") // return translations
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.googleURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP error: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google Translate API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	translation, err := parseGoogleTranslateResponse(body)
	if err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	return translation, nil
}

// parseGoogleTranslateResponse concatenates the translated segments of
// [[["Привет","Hello",null,null,10], ...], null, "en", ...].
func parseGoogleTranslateResponse(body []byte) (string, error) {
	var response []interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", errors.New("empty response from Google Translate")
	}

	translations, ok := response[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var result strings.Builder
	for _, translation := range translations {
		if segment, ok := translation.([]interface{}); ok && len(segment) > 0 {
			if translatedText, ok := segment[0].(string); ok {
				result.WriteString(translatedText)
			}
		}
	}
	return result.String(), nil
}

var languageNames = map[string]string{
	"ru": "Russian",
	"en": "English",
	"uk": "Ukrainian",
	"de": "German",
}

func (t *Translator) translateWithOpenAI(ctx context.Context, text, source, target string) (string, error) {
	targetName, ok := languageNames[target]
	if !ok {
		targetName = target
	}
	from := "the original language"
	if name, ok := languageNames[source]; ok {
		from = name
	}

	prompt := fmt.Sprintf(`Translate the following crypto news text from %s to %s.
Keep the meaning, names, tickers and numbers of the original.
Translate only the text itself, without additional comments.

Text to translate:
%s`, from, targetName, text)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := t.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: 2000,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translation == "" {
		return "", errors.New("empty translation from OpenAI")
	}
	return translation, nil
}

// splitForTranslation cuts text into pieces of at most limit runes, preferring sentence ends, then spaces.
func splitForTranslation(text string, limit int) []string {
	text = strings.TrimSpace(text)
	var chunks []string

	for utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		window := string(runes[:limit])

		cut := -1
		for _, sep := range []string{". ", "! ", "? ", "\n"} {
			if i := strings.LastIndex(window, sep); i >= 0 && i+1 > cut {
				cut = i + 1
			}
		}
		if cut <= 0 {
			cut = strings.LastIndex(window, " ")
		}
		if cut <= 0 {
			cut = len(window)
		}

		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
