package events

import (
	"context"
	"time"

	"pladderBot/internal/domain"
	"pladderBot/internal/usecase/dispatch"
)

// ChatMessageDTO describe una línea de chat recibida por un conector.
type ChatMessageDTO struct {
	Network   string `json:"network"`
	Channel   string `json:"channel"`
	Nick      string `json:"nick"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func NewChatMessageDTO(msg domain.Message) ChatMessageDTO {
	return ChatMessageDTO{
		Network:   msg.Network.String(),
		Channel:   msg.Channel,
		Nick:      msg.Nick,
		Text:      msg.Text,
		Timestamp: timestamp(msg.Timestamp),
	}
}

// CommandResultDTO es lo que se publica en TopicCommandResult.
type CommandResultDTO struct {
	Network    string  `json:"network"`
	Channel    string  `json:"channel"`
	Nick       string  `json:"nick"`
	Input      string  `json:"input"`
	Text       string  `json:"text"`
	Command    string  `json:"command"`
	Outcome    string  `json:"outcome"`
	DurationMS float64 `json:"duration_ms"`
	Timestamp  string  `json:"timestamp"`
}

func NewCommandResultDTO(ev dispatch.Event) CommandResultDTO {
	return CommandResultDTO{
		Network:    ev.Message.Network.String(),
		Channel:    ev.Message.Channel,
		Nick:       ev.Message.Nick,
		Input:      ev.Message.Text,
		Text:       ev.Result.Text,
		Command:    ev.Result.Command,
		Outcome:    string(ev.Outcome),
		DurationMS: float64(ev.Duration.Microseconds()) / 1000,
		Timestamp:  timestamp(ev.Message.Timestamp),
	}
}

// ResultPublisher publica cada resultado del dispatcher en el bus.
func ResultPublisher(bus *Bus) dispatch.Observer {
	return dispatch.ObserverFunc(func(_ context.Context, ev dispatch.Event) {
		bus.Publish(TopicCommandResult, NewCommandResultDTO(ev))
	})
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}
