package commands

import (
	"context"
	"slices"
	"strings"

	"pladderBot/internal/script"
)

func RegisterText(reg *script.Registry) error {
	g, err := reg.NewCommandGroup(GroupText)
	if err != nil {
		return err
	}

	text := []script.Option{script.WithParams("text"), script.WithVarargs()}
	return registerAll(
		g.RegisterCommand("upper", textFunc(strings.ToUpper), text...),
		g.RegisterCommand("lower", textFunc(strings.ToLower), text...),
		g.RegisterCommand("reverse", textFunc(reverse), text...),
		g.RegisterCommand("rot13", textFunc(rot13), text...),
	)
}

func textFunc(fn func(string) string) script.Handler {
	return func(_ context.Context, args []string) (string, error) {
		return fn(args[0]), nil
	}
}

func reverse(s string) string {
	runes := []rune(s)
	slices.Reverse(runes)
	return string(runes)
}

func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		default:
			return r
		}
	}, s)
}
