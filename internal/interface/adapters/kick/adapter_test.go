package kickadapter

import (
	"context"
	"testing"
	"time"

	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"
	"github.com/stretchr/testify/assert"

	"pladderBot/internal/domain"
)

func TestMapChatMessageToDomain(t *testing.T) {
	var m kickchatwrapper.ChatMessage
	m.ChatroomID = 42
	m.Content = "~echo hi"
	m.Sender.Username = "nick"

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, domain.Message{
		Timestamp: now,
		Network:   domain.PlatformKick,
		Channel:   "42",
		Nick:      "nick",
		Text:      "~echo hi",
	}, mapChatMessageToDomain(m, now))
}

func TestStartValidatesConfig(t *testing.T) {
	ctx := context.Background()
	assert.EqualError(t, NewAdapter(Config{}).Start(ctx), "kick: empty access token")
	assert.EqualError(t, NewAdapter(Config{AccessToken: "t"}).Start(ctx), "kick: chatroom id not configured")
	assert.EqualError(t, NewAdapter(Config{AccessToken: "t", ChatroomID: 1}).Start(ctx), "kick: broadcaster user id not configured")
}

func TestSendMessage(t *testing.T) {
	a := NewAdapter(Config{})
	ctx := context.Background()
	assert.EqualError(t, a.SendMessage(ctx, domain.PlatformTwitch, "1", "x"), "kick: unsupported network twitch")
	assert.NoError(t, a.SendMessage(ctx, domain.PlatformKick, "1", ""))
	assert.EqualError(t, a.SendMessage(ctx, domain.PlatformKick, "1", "x"), "kick: not connected")
}
