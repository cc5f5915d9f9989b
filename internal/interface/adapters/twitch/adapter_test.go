package twitchadapter

import (
	"context"
	"testing"
	"time"

	"github.com/adeithe/go-twitch/irc"
	"github.com/stretchr/testify/assert"

	"pladderBot/internal/domain"
)

func TestMapChatMessageToDomain(t *testing.T) {
	var cm irc.ChatMessage
	cm.Channel = "pladder"
	cm.Text = "~echo hi"
	cm.Sender.DisplayName = "Nick"

	now := time.Date(2026, 3, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, domain.Message{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Network:   domain.PlatformTwitch,
		Channel:   "pladder",
		Nick:      "Nick",
		Text:      "~echo hi",
	}, mapChatMessageToDomain(cm, now))
}

func TestStartValidatesConfig(t *testing.T) {
	ctx := context.Background()
	assert.EqualError(t, NewAdapter(Config{Username: "u", OAuthToken: "t"}).Start(ctx), "twitch: no channels configured")
	assert.EqualError(t, NewAdapter(Config{Channels: []string{"c"}}).Start(ctx), "twitch: empty username or oauth token")
}

func TestSendMessageRequiresConnection(t *testing.T) {
	a := NewAdapter(Config{})
	ctx := context.Background()
	assert.EqualError(t, a.SendMessage(ctx, domain.PlatformKick, "c", "x"), "twitch: unsupported network kick")
	assert.EqualError(t, a.SendMessage(ctx, domain.PlatformTwitch, "c", "x"), "twitch: not connected")
}
