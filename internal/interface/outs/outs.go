// Package outs enruta las respuestas del bot al conector de cada red.
package outs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"pladderBot/internal/domain"
)

var ErrNoSender = errors.New("outs: no sender for network")

// Sender lo implementan los adapters de chat (Twitch, Kick, ...).
type Sender interface {
	SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error
}

// MultiSender elige el Sender según la red de la que vino la línea.
type MultiSender struct {
	mu      sync.RWMutex
	senders map[domain.Platform]Sender
}

func NewMultiSender() *MultiSender {
	return &MultiSender{
		senders: make(map[domain.Platform]Sender),
	}
}

func (m *MultiSender) Register(platform domain.Platform, sender Sender) {
	if m == nil || sender == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senders[platform] = sender
}

func (m *MultiSender) Unregister(platform domain.Platform) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.senders, platform)
}

// Networks devuelve las redes con sender registrado, ordenadas.
func (m *MultiSender) Networks() []domain.Platform {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Platform, 0, len(m.senders))
	for p := range m.senders {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func (m *MultiSender) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if m == nil {
		return ErrNoSender
	}
	m.mu.RLock()
	sender, ok := m.senders[platform]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSender, platform)
	}
	if err := sender.SendMessage(ctx, platform, channelID, text); err != nil {
		return fmt.Errorf("outs: send to %s/%s: %w", platform, channelID, err)
	}
	return nil
}
