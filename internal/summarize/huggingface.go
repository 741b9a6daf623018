package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHuggingFaceURL is the hosted BART summarization model.
const DefaultHuggingFaceURL = "https://api-inference.huggingface.co/models/facebook/bart-large-cnn"

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
}

type hfSummary struct {
	SummaryText *string `json:"summary_text"`
}

// HuggingFace calls the Hugging Face inference API.
type HuggingFace struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewHuggingFace(apiKey string, timeout time.Duration) *HuggingFace {
	return &HuggingFace{
		apiKey:   apiKey,
		endpoint: DefaultHuggingFaceURL,
		client:   &http.Client{Timeout: timeout},
	}
}

// WithEndpoint points the client at another model URL.
func (h *HuggingFace) WithEndpoint(endpoint string) *HuggingFace {
	h.endpoint = endpoint
	return h
}

func (h *HuggingFace) Name() string { return "huggingface" }

func (h *HuggingFace) Summarize(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:     prompt,
		Parameters: hfParameters{MaxLength: MaxLength, Temperature: Temperature},
	})
	if err != nil {
		return "", fmt.Errorf("error make JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error HTTP request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Backend: h.Name(), StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out []hfSummary
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if len(out) == 0 || out[0].SummaryText == nil {
		return "", fmt.Errorf("response has no summary_text")
	}
	return *out[0].SummaryText, nil
}
