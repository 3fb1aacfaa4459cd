// Package replicate is a minimal client for the Replicate predictions API.
// It submits a prediction and polls until the provider reports a terminal
// status, bounded by the request context.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	BaseURL      string
	APIToken     string
	ModelVersion string
	HTTPClient   *http.Client
	PollInterval time.Duration
	Timeout      time.Duration
}

type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	modelVersion string
	pollInterval time.Duration
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.replicate.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		httpClient:   client,
		baseURL:      base,
		token:        strings.TrimSpace(opts.APIToken),
		modelVersion: strings.TrimSpace(opts.ModelVersion),
		pollInterval: interval,
	}
}

// GenerationInput mirrors the SDXL input schema. Image and PromptStrength
// are set only for image-to-image runs.
type GenerationInput struct {
	Prompt            string  `json:"prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumOutputs        int     `json:"num_outputs"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
	GuidanceScale     float64 `json:"guidance_scale,omitempty"`
	Image             string  `json:"image,omitempty"`
	PromptStrength    float64 `json:"prompt_strength,omitempty"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

type apiError struct {
	Detail string `json:"detail"`
	Title  string `json:"title"`
}

// Generate runs one prediction to completion and returns the output URLs.
// The caller's context bounds both the submission and the polling loop.
func (c *Client) Generate(ctx context.Context, input GenerationInput) ([]string, error) {
	if c == nil {
		return nil, errors.New("replicate client not configured")
	}
	if c.token == "" {
		return nil, errors.New("replicate: API token is missing")
	}
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, errors.New("replicate: prompt required")
	}

	pred, err := c.createPrediction(ctx, input)
	if err != nil {
		return nil, err
	}

	for !isTerminal(pred.Status) {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("replicate: prediction %s: %w", pred.ID, ctx.Err())
		case <-time.After(c.pollInterval):
		}
		pred, err = c.getPrediction(ctx, pred.ID)
		if err != nil {
			return nil, err
		}
	}

	if pred.Status != "succeeded" {
		if pred.Error != "" {
			return nil, fmt.Errorf("replicate: prediction %s: %s", pred.Status, pred.Error)
		}
		return nil, fmt.Errorf("replicate: prediction %s", pred.Status)
	}
	return decodeOutput(pred.Output)
}

func (c *Client) createPrediction(ctx context.Context, input GenerationInput) (*prediction, error) {
	payload := struct {
		Version string          `json:"version"`
		Input   GenerationInput `json:"input"`
	}{Version: c.modelVersion, Input: input}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.do(req)
}

func (c *Client) getPrediction(ctx context.Context, id string) (*prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*prediction, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			msg := apiErr.Detail
			if msg == "" {
				msg = apiErr.Title
			}
			if msg != "" {
				return nil, fmt.Errorf("replicate: %s (http %d)", msg, resp.StatusCode)
			}
		}
		return nil, fmt.Errorf("replicate: http %d", resp.StatusCode)
	}

	var pred prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("replicate: decode response: %w", err)
	}
	if pred.ID == "" {
		return nil, errors.New("replicate: response missing prediction id")
	}
	return &pred, nil
}

func isTerminal(status string) bool {
	switch status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// decodeOutput handles both output shapes the API produces: a list of URLs
// or a single URL string.
func decodeOutput(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, errors.New("replicate: empty output")
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil {
		if len(urls) == 0 {
			return nil, errors.New("replicate: empty output")
		}
		return urls, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}, nil
	}
	return nil, errors.New("replicate: unrecognized output shape")
}
