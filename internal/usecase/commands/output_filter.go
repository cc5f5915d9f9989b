package commands

import (
	"errors"
	"strings"

	"pladderBot/internal/script"
)

const OutputFilterCommand = "output-filter"

var ErrNoOutputFilter = errors.New("commands: no output filter configured")

// RegisterOutputFilter registra output-filter como un comando que delega en
// target, resuelto en cada llamada.
func RegisterOutputFilter(reg *script.Registry, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return ErrNoOutputFilter
	}
	if target == OutputFilterCommand {
		return errors.New("commands: output filter cannot delegate to itself")
	}

	g, err := reg.NewCommandGroup(GroupOutputFilter)
	if err != nil {
		return err
	}
	return g.RegisterContextual(OutputFilterCommand, func(c script.Context, args []string) (string, error) {
		b, err := resolve(c, target)
		if err != nil {
			return "", err
		}
		return b.Call(c, args)
	}, script.WithParams("text"), script.WithVarargs())
}
