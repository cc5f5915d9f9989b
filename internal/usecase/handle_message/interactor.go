// Package handle_message conecta las líneas de chat con el dispatcher.
package handle_message

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"pladderBot/internal/domain"
)

const DefaultPrefix = "~"

type CommandRunner interface {
	RunCommand(ctx context.Context, msg domain.Message) domain.Result
}

type Interactor struct {
	runner CommandRunner
	out    domain.OutgoingMessagePort
	prefix string
	log    *zap.Logger
}

func NewInteractor(out domain.OutgoingMessagePort, runner CommandRunner, prefix string, logger *zap.Logger) *Interactor {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{
		runner: runner,
		out:    out,
		prefix: prefix,
		log:    logger.Named("handle_message"),
	}
}

// Handle ignora las líneas sin prefijo; el resto pasa por el dispatcher y, si
// el resultado tiene texto, se responde en el mismo canal.
func (uc *Interactor) Handle(ctx context.Context, msg domain.Message) error {
	text, ok := strings.CutPrefix(strings.TrimSpace(msg.Text), uc.prefix)
	if !ok {
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	msg.Text = text
	res := uc.runner.RunCommand(ctx, msg)
	if res.Text == "" {
		return nil
	}
	if uc.out == nil {
		uc.log.Warn("no output port, dropping reply", zap.String("command", res.Command))
		return nil
	}
	return uc.out.SendMessage(ctx, msg.Network, msg.Channel, res.Text)
}
