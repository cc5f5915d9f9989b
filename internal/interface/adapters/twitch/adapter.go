// Package twitchadapter conecta el bot al chat IRC de Twitch.
package twitchadapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adeithe/go-twitch/irc"
	"go.uber.org/zap"

	"pladderBot/internal/domain"
)

type Config struct {
	Username   string
	OAuthToken string
	Channels   []string
	Logger     *zap.Logger
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Adapter struct {
	cfg     Config
	log     *zap.Logger
	handler MessageHandler

	mu   sync.RWMutex
	conn *irc.Conn
}

func NewAdapter(cfg Config) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, log: logger.Named("twitch")}
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

// Start conecta, se une a los canales y bloquea hasta que ctx termina.
func (a *Adapter) Start(ctx context.Context) error {
	if len(a.cfg.Channels) == 0 {
		return errors.New("twitch: no channels configured")
	}
	if a.cfg.Username == "" || a.cfg.OAuthToken == "" {
		return errors.New("twitch: empty username or oauth token")
	}

	conn := &irc.Conn{}
	if err := conn.SetLogin(a.cfg.Username, a.cfg.OAuthToken); err != nil {
		return fmt.Errorf("twitch: login: %w", err)
	}

	conn.OnMessage(func(cm irc.ChatMessage) {
		a.mu.RLock()
		handler := a.handler
		a.mu.RUnlock()
		if handler == nil {
			return
		}
		if err := handler(ctx, mapChatMessageToDomain(cm, time.Now())); err != nil {
			a.log.Warn("handler error", zap.String("channel", cm.Channel), zap.Error(err))
		}
	})

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("twitch: connect: %w", err)
	}
	if err := conn.Join(a.cfg.Channels...); err != nil {
		conn.Close()
		return fmt.Errorf("twitch: join: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	a.log.Info("connected", zap.String("user", a.cfg.Username), zap.Strings("channels", a.cfg.Channels))

	<-ctx.Done()

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.mu.Unlock()

	return ctx.Err()
}

func (a *Adapter) SendMessage(_ context.Context, platform domain.Platform, channelID, text string) error {
	if platform != domain.PlatformTwitch {
		return fmt.Errorf("twitch: unsupported network %s", platform)
	}

	a.mu.RLock()
	conn := a.conn
	a.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return errors.New("twitch: not connected")
	}

	a.log.Debug("say", zap.String("channel", channelID), zap.String("text", text))
	return conn.Say(channelID, text)
}

func mapChatMessageToDomain(cm irc.ChatMessage, now time.Time) domain.Message {
	return domain.Message{
		Timestamp: now.UTC(),
		Network:   domain.PlatformTwitch,
		Channel:   cm.Channel,
		Nick:      cm.Sender.DisplayName,
		Text:      cm.Text,
	}
}
