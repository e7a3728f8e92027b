// Package ai implements the smart features: turning free text into issue
// drafts, suggesting sprint plans, and parsing voice commands. All of them go
// through a single hosted-LLM client with retry and JSON extraction.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"github.com/zulandar/sprintdeck/internal/config"
)

// Messenger is the slice of the Anthropic API the client needs. Tests swap in
// a stub.
type Messenger interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client calls the hosted LLM behind the smart features.
type Client struct {
	msgr      Messenger
	model     anthropic.Model
	maxTokens int64
}

// NewClient builds a Client from config. The API key comes from the
// environment variable named in the config, never from the file itself.
func NewClient(cfg *config.Config) (*Client, error) {
	key := cfg.AIAPIKey()
	if key == "" {
		return nil, fmt.Errorf("ai: API key not set: export %s", cfg.AI.APIKeyEnv)
	}
	ac := anthropic.NewClient(option.WithAPIKey(key))
	return &Client{
		msgr:      &ac.Messages,
		model:     anthropic.Model(cfg.AI.Model),
		maxTokens: int64(cfg.AI.MaxTokens),
	}, nil
}

// complete sends a single-user-message prompt and returns the text response.
// Rate limits and server errors are retried with exponential backoff.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var text string
	op := func() error {
		message, err := c.msgr.New(ctx, params)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(message.Content) == 0 {
			return backoff.Permanent(fmt.Errorf("ai: empty response"))
		}
		block := message.Content[0]
		if block.Type != "text" {
			return backoff.Permanent(fmt.Errorf("ai: unexpected content block type %q", block.Type))
		}
		text = block.Text
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("ai: complete: %w", err)
	}
	return text, nil
}

// isRetryable reports whether an API error is worth retrying: rate limits and
// server-side failures are, everything else is not.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// extractJSON pulls a JSON document out of a model response that may wrap it
// in prose or a fenced code block.
func extractJSON(s string) string {
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			s = rest[:j]
		}
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return strings.TrimSpace(s)
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}
