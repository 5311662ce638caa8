// Package openai is a minimal REST client for the OpenAI endpoints the
// generation capabilities depend on: chat completions, speech synthesis and
// content moderation.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4"
	defaultTimeout = 60 * time.Second

	speechModel     = "tts-1"
	moderationModel = "omni-moderation-latest"
)

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client calls the OpenAI REST API with a shared http.Client.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient validates options and builds a client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		model:   model,
		client:  client,
		logger:  logger,
	}, nil
}

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat runs one chat completion and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, prompt string, temperature float64) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	}
	var out chatResponse
	if err := c.post(ctx, "/chat/completions", payload, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai: empty completion")
	}
	return content, nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// Speech synthesizes narration audio (mp3 bytes) for the given text.
func (c *Client) Speech(ctx context.Context, voice, input string) ([]byte, error) {
	payload := speechRequest{
		Model:          speechModel,
		Voice:          voice,
		Input:          input,
		ResponseFormat: "mp3",
	}
	body, err := c.request(ctx, "/audio/speech", payload)
	if err != nil {
		return nil, err
	}
	return body, nil
}

type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// Moderate classifies the text and returns whether it was flagged along with
// the highest category score.
func (c *Client) Moderate(ctx context.Context, input string) (bool, float64, error) {
	payload := moderationRequest{Model: moderationModel, Input: input}
	var out moderationResponse
	if err := c.post(ctx, "/moderations", payload, &out); err != nil {
		return false, 0, err
	}
	if len(out.Results) == 0 {
		return false, 0, errors.New("openai: empty moderation result")
	}
	result := out.Results[0]
	var max float64
	for _, score := range result.CategoryScores {
		if score > max {
			max = score
		}
	}
	return result.Flagged, max, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := c.request(ctx, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, path string, payload any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("openai: request failed")
		return nil, fmt.Errorf("openai: status %d", resp.StatusCode)
	}
	return body, nil
}
