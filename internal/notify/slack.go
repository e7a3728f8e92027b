package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
)

// maxRetries is the max number of retries for rate-limited Slack calls.
const maxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackPoster posts notification text to a Slack channel.
type SlackPoster struct {
	client  slackClient
	channel string
}

// NewSlackPoster creates a poster for the given bot token and channel ID.
func NewSlackPoster(botToken, channel string) *SlackPoster {
	return &SlackPoster{
		client:  slackapi.New(botToken),
		channel: channel,
	}
}

// Name identifies the poster in logs.
func (p *SlackPoster) Name() string { return "slack" }

// Post sends the text, retrying on Slack rate limits.
func (p *SlackPoster) Post(ctx context.Context, text string) error {
	if p.channel == "" {
		return fmt.Errorf("slack: channel not configured")
	}
	return retryOnRateLimit(ctx, func() error {
		_, _, err := p.client.PostMessage(p.channel, slackapi.MsgOptionText(text, false))
		return err
	})
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit
// errors, honoring the RetryAfter duration Slack returns.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
