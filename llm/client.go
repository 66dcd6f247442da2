// Package llm turns a finished analysis into a short natural-language
// summary. A Gemini-style endpoint is tried across a preference list of
// models; any failure falls back to the deterministic template, so the
// pipeline never depends on the narrative service being up.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FallbackProvider marks summaries produced by the local template.
const FallbackProvider = "fallback-template"

// defaultModels is the preference order. Flash models first: the
// summary is two sentences, latency matters more than depth.
var defaultModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-1.5-flash",
}

// Client represents a client for a Gemini-style generateContent API.
// An empty API key disables remote generation entirely.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	models     []string
}

// NewClient creates a new summarizer client.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://generativelanguage.googleapis.com",
		apiKey:  apiKey,
		models:  defaultModels,
	}
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client
func NewClientWithHTTPClient(httpClient *http.Client, apiKey string) *Client {
	c := NewClient(apiKey)
	c.httpClient = httpClient
	return c
}

// SetBaseURL sets the base URL for the API (useful for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SetModels overrides the model preference list.
func (c *Client) SetModels(models []string) {
	c.models = models
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// APIError represents an error returned by the generation API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// Summarize produces a narrative for the report. On any failure,
// including a missing API key, it returns the deterministic template
// and FallbackProvider instead of an error: the caller never has to
// care whether the narrative service was reachable.
func (c *Client) Summarize(ctx context.Context, report SiteReport) (summary, provider string) {
	if c.apiKey == "" {
		return TemplateSummary(report), FallbackProvider
	}

	prompt := BuildPrompt(report)
	for _, model := range c.models {
		text, err := c.generate(ctx, model, prompt)
		if err == nil && text != "" {
			return text, model
		}
		if ctx.Err() != nil {
			break
		}
	}
	return TemplateSummary(report), FallbackProvider
}

// generate performs one generateContent call against one model.
func (c *Client) generate(ctx context.Context, model, prompt string) (string, error) {
	reqURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidate in response")
	}

	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}
