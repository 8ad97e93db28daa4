// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

// Package llm implements an OpenAI-compatible chat completions client
// with a circuit breaker around the upstream call. The recommendation
// engine consumes it through a one-method interface, so any gateway
// speaking the same protocol works.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/epigraphlabs/epigraph/internal/config"
	"github.com/epigraphlabs/epigraph/internal/logging"
	"github.com/epigraphlabs/epigraph/internal/metrics"
)

// ErrEmptyCompletion is returned when the upstream responds 200 but
// carries no choices or an empty message.
var ErrEmptyCompletion = errors.New("llm: completion contained no content")

// Client calls the chat completions endpoint of an OpenAI-compatible
// API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *breaker
	logger     zerolog.Logger
}

// NewClient builds a Client from configuration. The HTTP client's
// timeout acts as the hard upper bound on a single generation call.
func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: newBreaker("llm-api"),
		logger:  logging.With().Str("component", "llm").Logger(),
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends prompt as a single user message and returns the raw
// completion text. When structured is true the request asks for a JSON
// object response format; callers still run the output through the
// resilient decoder because not every gateway honors the hint.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64, structured bool) (string, error) {
	start := time.Now()
	out, err := c.breaker.execute(func() (string, error) {
		return c.complete(ctx, prompt, temperature, structured)
	})
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.GenerationCallsTotal.WithLabelValues("success").Inc()
	case isOpenCircuit(err):
		metrics.GenerationCallsTotal.WithLabelValues("open_circuit").Inc()
	default:
		metrics.GenerationCallsTotal.WithLabelValues("error").Inc()
	}
	return out, err
}

func (c *Client) complete(ctx context.Context, prompt string, temperature float64, structured bool) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
	}
	if structured {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("llm: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(body), 256)).
			Msg("Generation request rejected by upstream")
		return "", fmt.Errorf("llm: upstream returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm: decoding response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm: upstream error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return parsed.Choices[0].Message.Content, nil
}

// truncate cuts on rune boundaries; completions are mostly Korean.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
