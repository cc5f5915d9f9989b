// Package kickadapter conecta el bot al chat de Kick: escucha por el websocket
// público y responde por la API oficial.
package kickadapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	kicksdk "github.com/glichtv/kick-sdk"
	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"
	"go.uber.org/zap"

	"pladderBot/internal/domain"
)

type Config struct {
	AccessToken string

	BroadcasterUserID int

	// ID del chatroom, distinto del userID: campo "chatroom":{"id":...} de
	// https://kick.com/api/v2/channels/{slug}
	ChatroomID int

	Logger *zap.Logger
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Adapter struct {
	cfg     Config
	log     *zap.Logger
	handler MessageHandler

	mu  sync.RWMutex
	sdk *kicksdk.Client
	ws  *kickchatwrapper.Client
}

func NewAdapter(cfg Config) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, log: logger.Named("kick")}
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

func (a *Adapter) validate() error {
	switch {
	case a.cfg.AccessToken == "":
		return errors.New("kick: empty access token")
	case a.cfg.ChatroomID == 0:
		return errors.New("kick: chatroom id not configured")
	case a.cfg.BroadcasterUserID == 0:
		return errors.New("kick: broadcaster user id not configured")
	}
	return nil
}

// Start se une al chatroom y bloquea hasta que ctx termina.
func (a *Adapter) Start(ctx context.Context) error {
	if err := a.validate(); err != nil {
		return err
	}

	sdkClient := kicksdk.NewClient(
		kicksdk.WithAccessTokens(kicksdk.AccessTokens{
			UserAccessToken: a.cfg.AccessToken,
		}),
	)

	wsClient, err := kickchatwrapper.NewClient()
	if err != nil {
		return fmt.Errorf("kick: ws client: %w", err)
	}
	if err := wsClient.JoinChannelByID(a.cfg.ChatroomID); err != nil {
		wsClient.Close()
		return fmt.Errorf("kick: join chatroom %d: %w", a.cfg.ChatroomID, err)
	}

	msgChan := wsClient.ListenForMessages()

	a.mu.Lock()
	a.sdk = sdkClient
	a.ws = wsClient
	a.mu.Unlock()

	a.log.Info("connected", zap.Int("chatroom", a.cfg.ChatroomID), zap.Int("broadcaster", a.cfg.BroadcasterUserID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case m, ok := <-msgChan:
				if !ok {
					a.log.Info("message channel closed")
					return
				}
				a.mu.RLock()
				handler := a.handler
				a.mu.RUnlock()
				if handler == nil {
					continue
				}
				if err := handler(ctx, mapChatMessageToDomain(m, time.Now())); err != nil {
					a.log.Warn("handler error", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()

	a.mu.Lock()
	if a.ws != nil {
		a.ws.Close()
		a.ws = nil
	}
	a.sdk = nil
	a.mu.Unlock()
	<-done

	return ctx.Err()
}

func (a *Adapter) SendMessage(ctx context.Context, platform domain.Platform, _, text string) error {
	if platform != domain.PlatformKick {
		return fmt.Errorf("kick: unsupported network %s", platform)
	}
	if text == "" {
		return nil
	}

	a.mu.RLock()
	client := a.sdk
	a.mu.RUnlock()
	if client == nil {
		return errors.New("kick: not connected")
	}

	resp, err := client.Chat().PostMessage(ctx, kicksdk.PostChatMessageInput{
		BroadcasterUserID: a.cfg.BroadcasterUserID,
		Content:           text,
		PosterType:        kicksdk.MessagePosterUser,
	})
	if err != nil {
		return fmt.Errorf("kick: post message: %w", err)
	}

	if !resp.Payload.IsSent {
		meta := resp.ResponseMetadata
		a.log.Warn("message rejected",
			zap.Int("status", meta.StatusCode),
			zap.String("message_id", resp.Payload.MessageID),
			zap.String("kick_message", meta.KickMessage),
			zap.String("kick_error", meta.KickError),
			zap.String("description", meta.KickErrorDescription))
		return fmt.Errorf("kick: message rejected (status %d)", meta.StatusCode)
	}

	a.log.Debug("message sent", zap.String("message_id", resp.Payload.MessageID))
	return nil
}

func mapChatMessageToDomain(m kickchatwrapper.ChatMessage, now time.Time) domain.Message {
	return domain.Message{
		Timestamp: now.UTC(),
		Network:   domain.PlatformKick,
		Channel:   strconv.Itoa(m.ChatroomID),
		Nick:      m.Sender.Username,
		Text:      m.Content,
	}
}
