// Package vision calls a hosted multimodal model to rate a thumbnail.
// The wire formats are OpenAI-compatible chat completions and Anthropic
// messages; which one is used depends on the configured provider.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"thumbscope/internal/domain/model"
	"thumbscope/internal/domain/rating"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Default client configuration.
const (
	defaultOpenAIBase     = "https://api.openai.com"
	defaultAnthropicBase  = "https://api.anthropic.com"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultTimeout        = 60 * time.Second
	maxErrorBody          = 1024
	anthropicMaxTokens    = 1024
)

const systemPrompt = `You are a senior thumbnail designer reviewing one YouTube thumbnail for click-worthiness in today's feed.

Judge clarity at small size, expression strength, foreground/background separation, text hierarchy and readability, color intention, and curiosity appeal. Respect intentional cinematic or moody grading; darker is not automatically worse. Professional, current-meta thumbnails belong in the 8.0-10.0 range.

Return ONLY valid JSON, no extra text, with exactly this structure:
{
  "quality_score": 0.0,
  "overall_verdict": "one specific, designer-facing sentence",
  "positives": ["2-6 concrete strengths"],
  "improvements": ["0-6 practical changes a designer can act on"],
  "ratings": {"clarity": 0.0, "contrast": 0.0, "text_readability": 0.0, "subject_focus": 0.0, "emotional_impact": 0.0}
}
All numbers are on a 0-10 scale.`

// Context is the textual side channel given to the model alongside the
// image.
type Context struct {
	Title       string
	Description string
	Features    model.FeatureSet
	History     string
}

// Option applies a configuration option to the Rater.
type Option func(*Rater)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Rater) {
		if c != nil {
			r.client = c
		}
	}
}

// Rater is the remote model client.
type Rater struct {
	client   *http.Client
	provider string
	model    string
	apiKey   string
	baseURL  string
}

// NewRater creates a Rater. An empty model falls back to the provider
// default. An empty apiKey disables the rater; callers should check
// Enabled before dialing.
func NewRater(provider, modelName, apiKey, baseURL string, opts ...Option) *Rater {
	if modelName == "" {
		switch provider {
		case ProviderAnthropic:
			modelName = defaultAnthropicModel
		default:
			modelName = defaultOpenAIModel
		}
	}
	r := &Rater{
		client:   &http.Client{Timeout: defaultTimeout},
		provider: provider,
		model:    modelName,
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled reports whether the rater has credentials to dial out with.
func (r *Rater) Enabled() bool {
	return r.apiKey != ""
}

// Rate sends the image plus context to the model and decodes the reply.
// Transport and HTTP failures return an error; unparseable content returns
// a degraded opinion with a nil error, per the boundary contract.
func (r *Rater) Rate(ctx context.Context, imageData []byte, rc Context) (rating.Opinion, error) {
	prompt := r.buildPrompt(rc)
	mime := http.DetectContentType(imageData)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	b64 := base64.StdEncoding.EncodeToString(imageData)

	var raw string
	var err error
	switch r.provider {
	case ProviderAnthropic:
		raw, err = r.callAnthropic(ctx, prompt, mime, b64)
	default:
		raw, err = r.callOpenAI(ctx, prompt, mime, b64)
	}
	if err != nil {
		return rating.Opinion{}, err
	}
	return rating.Decode(raw), nil
}

func (r *Rater) buildPrompt(rc Context) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\nCONTEXT\n")
	sb.WriteString("TITLE: " + orNone(rc.Title) + "\n")
	sb.WriteString("DESCRIPTION: " + orNone(rc.Description) + "\n")

	if feats, err := json.Marshal(rc.Features); err == nil {
		sb.WriteString("PIXEL_METRICS: " + string(feats) + "\n")
	}
	sb.WriteString("SESSION_HISTORY: " + orNone(rc.History) + "\n")
	return sb.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

func (r *Rater) callOpenAI(ctx context.Context, prompt, mime, b64 string) (string, error) {
	baseURL := r.baseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBase
	}

	payload := map[string]any{
		"model":       r.model,
		"temperature": 0.1,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]string{
						"url": "data:" + mime + ";base64," + b64,
					}},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal openai payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("openai", resp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

func (r *Rater) callAnthropic(ctx context.Context, prompt, mime, b64 string) (string, error) {
	baseURL := r.baseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBase
	}

	payload := map[string]any{
		"model":      r.model,
		"max_tokens": anthropicMaxTokens,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "image", "source": map[string]string{
						"type":       "base64",
						"media_type": mime,
						"data":       b64,
					}},
					{"type": "text", "text": prompt},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal anthropic payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("anthropic", resp)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic: no content returned")
	}
	return result.Content[0].Text, nil
}

func statusError(provider string, resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%s status %d: %s", provider, resp.StatusCode, strings.TrimSpace(string(payload)))
}
