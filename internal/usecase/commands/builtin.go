package commands

import (
	"context"
	"fmt"
	"strings"

	"pladderBot/internal/script"
)

const (
	GroupBuiltin      = "builtin"
	GroupText         = "text"
	GroupAliasAdmin   = "alias"
	GroupAliases      = "aliases"
	GroupOutputFilter = "output-filter"
)

func RegisterBuiltins(reg *script.Registry) error {
	g, err := reg.NewCommandGroup(GroupBuiltin)
	if err != nil {
		return err
	}

	return registerAll(
		g.RegisterCommand("echo", echo, script.WithParams("text"), script.WithOptional(1), script.WithVarargs()),
		g.RegisterContextual("commands", listCommands),
		g.RegisterContextual("help", help, script.WithParams("name"), script.WithOptional(1)),
		g.RegisterContextual("usage", usage, script.WithParams("name")),
		g.RegisterContextual("source", source, script.WithParams("name")),
	)
}

func registerAll(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func echo(_ context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	return args[0], nil
}

func listCommands(c script.Context, _ []string) (string, error) {
	names, err := c.Registry.ListCommands(c.Ctx())
	if err != nil {
		return "", err
	}
	return strings.Join(names, " "), nil
}

func help(c script.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "Groups: " + strings.Join(c.Registry.Groups(), ", ") +
			". Try: commands, help [name], usage [name], source [name].", nil
	}
	b, err := resolve(c, args[0])
	if err != nil {
		return "", err
	}
	if d, ok := describe(b.Name); ok {
		return fmt.Sprintf("%s (%s): %s", script.Usage(b), d.Group, d.Description), nil
	}
	if b.Source != "" {
		return fmt.Sprintf("%s: alias", script.Usage(b)), nil
	}
	return script.Usage(b), nil
}

func usage(c script.Context, args []string) (string, error) {
	b, err := resolve(c, args[0])
	if err != nil {
		return "", err
	}
	return script.Usage(b), nil
}

func source(c script.Context, args []string) (string, error) {
	b, err := resolve(c, args[0])
	if err != nil {
		return "", err
	}
	if b.Source == "" {
		return fmt.Sprintf("%s is a native command", b.DisplayName), nil
	}
	return b.Source, nil
}

func resolve(c script.Context, name string) (*script.CommandBinding, error) {
	b, err := c.Registry.LookupCommand(c.Ctx(), name)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, script.Errorf("Unknown command name: %s", name)
	}
	return b, nil
}
