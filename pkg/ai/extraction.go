package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/johnquangdev/handoff-assistant/pkg/config"
	"github.com/johnquangdev/handoff-assistant/pkg/jobcontext"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// ExtractionRequest is what the extraction endpoint is asked to read
type ExtractionRequest struct {
	Transcript     string
	HandoffTime    string
	PatientContext string
}

// ExtractionClient calls an OpenAI-compatible chat completions endpoint to pull
// candidate clinical fields out of a handoff transcript
type ExtractionClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	retry       retryPolicy
	client      *http.Client
}

type retryPolicy struct {
	initial    time.Duration
	maxElapsed time.Duration
}

// NewExtractionClient creates a client from config
func NewExtractionClient(cfg *config.ExtractionConfig) *ExtractionClient {
	c := &ExtractionClient{
		baseURL:     defaultBaseURL,
		model:       "llama-3.3-70b-versatile",
		temperature: 0.1,
		maxTokens:   4000,
		retry:       retryPolicy{initial: 2 * time.Second, maxElapsed: 40 * time.Second},
		client:      &http.Client{Timeout: 30 * time.Second},
	}
	if cfg == nil {
		return c
	}

	c.apiKey = cfg.APIKey
	if cfg.BaseURL != "" {
		c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Model != "" {
		c.model = cfg.Model
	}
	if cfg.Temperature > 0 {
		c.temperature = cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		c.maxTokens = cfg.MaxTokens
	}
	if cfg.RequestTimeout > 0 {
		c.client.Timeout = cfg.RequestTimeout
	}
	if cfg.InitialInterval > 0 {
		c.retry.initial = cfg.InitialInterval
	}
	if cfg.MaxElapsed > 0 {
		c.retry.maxElapsed = cfg.MaxElapsed
	}
	return c
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model          string            `json:"model"`
	Messages       []ChatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract returns the raw model content for the transcript. Transient failures
// are retried with exponential backoff until ctx expires or the retry budget is spent.
func (c *ExtractionClient) Extract(ctx context.Context, req ExtractionRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("extraction api key is not configured")
	}

	body, err := json.Marshal(ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: buildExtractionUserPrompt(req)},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode extraction request: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retry.initial
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = c.retry.maxElapsed

	var content string
	attempt := func() error {
		start := time.Now()
		out, status, err := c.complete(ctx, body)
		recordExtractionMetric(ctx, c.model, status, time.Since(start), err)
		if err != nil {
			if ctx.Err() != nil || !jobcontext.IsRetryableError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		content = out
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(bo, ctx)); err != nil {
		return "", fmt.Errorf("extraction request failed: %w", err)
	}
	return content, nil
}

func (c *ExtractionClient) complete(ctx context.Context, body []byte) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", resp.StatusCode, fmt.Errorf("extraction endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", resp.StatusCode, fmt.Errorf("empty response from extraction endpoint")
	}
	return cr.Choices[0].Message.Content, resp.StatusCode, nil
}

const extractionSystemPrompt = `You are a clinical entity extraction system for nurse shift handoffs.
Transcripts may mix Hindi and English. Return ONLY one JSON object with exactly these fields:

{
  "summary": {"patient_name": "string", "bed": "string", "age": null, "chief_complaint": "string or null"},
  "medications": [{"name": "string", "dose": "string", "route": "string or null", "frequency": "Q4H|Q6H|Q8H|BD|OD|PRN|... or null", "time_given": "exact phrase from transcript, e.g. subah, 4 hours ago, 07:00", "reason": "string or null"}],
  "vitals": [{"type": "BP|HR|Temp|SpO2|RR", "value": "current value, e.g. 90 or 140/90", "trend": "stable|rising|dropping|unknown"}],
  "allergies": [{"substance": "string", "reaction": "string or null"}],
  "events": [{"description": "string", "time": "string or null"}],
  "notes": ["string"],
  "pending_tasks": ["string"],
  "alerts": [{"alert_type": "snake_case string", "severity": "LOW|MEDIUM|HIGH|CRITICAL", "reason": "string", "action_required": "string"}]
}

Rules:
- "X se Y ho gaya" means the value changed from X to Y; the current value is Y.
- Preserve the original time phrase in time_given.
- Only list allergies that are explicitly stated.
- Return [] for empty lists and null for missing optional fields. No markdown, no explanation.`

func buildExtractionUserPrompt(req ExtractionRequest) string {
	var b strings.Builder
	if req.PatientContext != "" {
		b.WriteString("Previous handoffs:\n")
		b.WriteString(req.PatientContext)
		b.WriteString("\n\n")
	}
	if req.HandoffTime != "" {
		fmt.Fprintf(&b, "Handoff time: %s\n\n", req.HandoffTime)
	}
	b.WriteString("Handoff transcript:\n")
	b.WriteString(req.Transcript)
	b.WriteString("\n\nReturn ONLY the JSON:")
	return b.String()
}
