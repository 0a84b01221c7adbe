// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm calls an OpenAI-compatible chat completions endpoint.
// Both the semantic filter and the enrichment stages speak through the
// Client interface so tests can supply a mock.
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

	"github.com/pdiddy/paperflow/internal/httputil"
)

// Client sends one prompt and returns the model's reply text.
type Client interface {
	Chat(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// HTTPClient is the production Client. Failures are retried under the
// configured policy; callers treat an error as an absent result.
type HTTPClient struct {
	// APIURL is the chat completions endpoint.
	APIURL string

	// APIKey is sent as a bearer token. Empty or "none" sends no
	// Authorization header.
	APIKey string

	// Model is the model identifier passed through verbatim.
	Model string

	// HTTP is the underlying client; nil falls back to a client with
	// the given timeout.
	HTTP *http.Client

	// Timeout applies when HTTP is nil.
	Timeout time.Duration

	// Retry bounds the attempts for one Chat call.
	Retry httputil.Policy
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Thinking    *thinkingOpt  `json:"thinking,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type thinkingOpt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			// ReasoningContent is the fallback some providers use when
			// the main content field comes back empty.
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends the prompt and returns the reply text after bounded
// retries. Thinking mode is disabled on every request so replies stay
// parseable.
func (c *HTTPClient) Chat(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if c.APIURL == "" {
		return "", fmt.Errorf("llm: api url not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Thinking:    &thinkingOpt{Type: "disabled"},
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshaling request: %w", err)
	}

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}

	var reply string
	err = c.Retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" && c.APIKey != "none" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("chat request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("chat API returned HTTP %d: %s", resp.StatusCode, msg)
		}

		var cr chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return fmt.Errorf("parsing chat response: %w", err)
		}
		if len(cr.Choices) == 0 {
			return fmt.Errorf("chat response has no choices")
		}

		text := strings.TrimSpace(cr.Choices[0].Message.Content)
		if text == "" {
			text = strings.TrimSpace(cr.Choices[0].Message.ReasoningContent)
		}
		if text == "" {
			return fmt.Errorf("chat response is empty")
		}
		reply = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}
