package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo methods we use, enabling test mocks.
type discordSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordPoster posts notification text to a Discord channel.
type DiscordPoster struct {
	session discordSession
	channel string
}

// NewDiscordPoster creates a poster for the given bot token and channel ID.
// Sending plain channel messages only needs the REST API, so no gateway
// connection is opened.
func NewDiscordPoster(botToken, channel string) (*DiscordPoster, error) {
	dg, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return &DiscordPoster{session: dg, channel: channel}, nil
}

// Name identifies the poster in logs.
func (p *DiscordPoster) Name() string { return "discord" }

// Post sends the text to the configured channel.
func (p *DiscordPoster) Post(ctx context.Context, text string) error {
	if p.channel == "" {
		return fmt.Errorf("discord: channel not configured")
	}
	_, err := p.session.ChannelMessageSend(p.channel, text, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: post: %w", err)
	}
	return nil
}
