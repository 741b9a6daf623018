// Package config loads the job's credentials from the environment and holds the fixed run settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/deusflow/cryptonews/internal/site"
)

const (
	// TargetLang is the language posts are published in.
	TargetLang = "ru"
	// SummaryLang is the language the summarization model answers in.
	SummaryLang = "en"
	// CropPixels is the band removed from the bottom of lead images (the site's watermark strip).
	CropPixels = 100
)

type Config struct {
	// Summarization
	HuggingFaceAPIKey string `env:"HUGGING_FACE_API_KEY" validate:"required"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"` // optional fallback summarizer

	// Translation
	OpenAIAPIKey string `env:"OPENAI_API_KEY"` // optional fallback translator

	// Telegram settings
	BotToken string `env:"BOT_TOKEN" validate:"required"`
	ChatID   string `env:"CHAT_ID" validate:"required"`

	// Fixed run settings
	Site           *site.Profile `validate:"required"`
	TargetLang     string
	SummaryLang    string
	CropPixels     int           `validate:"gt=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
}

// DebugEnabled reports whether DEBUG=true asks for debug logging.
func DebugEnabled() bool {
	return os.Getenv("DEBUG") == "true"
}

// Load reads the environment and validates it. The returned Config is usable for
// logging even when validation fails.
func Load() (*Config, error) {
	profile := site.Default()

	cfg := &Config{
		HuggingFaceAPIKey: strings.TrimSpace(os.Getenv("HUGGING_FACE_API_KEY")),
		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BotToken:          strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		ChatID:            strings.TrimSpace(os.Getenv("CHAT_ID")),

		Site:           profile,
		TargetLang:     TargetLang,
		SummaryLang:    SummaryLang,
		CropPixels:     CropPixels,
		RequestTimeout: profile.Timeout,
	}

	return cfg, cfg.Validate()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report env variable names so the operator knows what to set.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate reports every missing or invalid setting in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
