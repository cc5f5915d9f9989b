// Package plugins define la lista estándar de plugins del bot.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"pladderBot/internal/app"
	"pladderBot/internal/infrastructure/persistence/sqlite"
	"pladderBot/internal/usecase/commands"
)

const AliasDatabase = "alias.db"

type Options struct {
	// OutputFilter es el comando al que delega output-filter; vacío lo desactiva.
	OutputFilter string
}

// Standard devuelve builtin, text, alias y output-filter, en ese orden.
func Standard(opts Options) []app.Plugin {
	return []app.Plugin{
		{Name: "builtin", Load: loadBuiltin},
		{Name: "text", Load: loadText},
		{Name: "alias", Load: loadAlias},
		{Name: "output-filter", Load: outputFilter(opts.OutputFilter)},
	}
}

func loadBuiltin(_ context.Context, bot *app.Bot) (io.Closer, error) {
	return nil, commands.RegisterBuiltins(bot.Commands)
}

func loadText(_ context.Context, bot *app.Bot) (io.Closer, error) {
	return nil, commands.RegisterText(bot.Commands)
}

func loadAlias(_ context.Context, bot *app.Bot) (io.Closer, error) {
	if bot.StateDir == "" {
		return nil, fmt.Errorf("alias: no state dir: %w", app.ErrPluginUnavailable)
	}
	store, err := sqlite.NewAliasStore(filepath.Join(bot.StateDir, AliasDatabase))
	if err != nil {
		return nil, err
	}
	if _, err := commands.RegisterAliases(bot.Commands, store, bot.Interpreter, bot.Log); err != nil {
		_ = store.Close()
		return nil, err
	}
	bot.Aliases = store
	return store, nil
}

func outputFilter(target string) func(context.Context, *app.Bot) (io.Closer, error) {
	return func(_ context.Context, bot *app.Bot) (io.Closer, error) {
		err := commands.RegisterOutputFilter(bot.Commands, target)
		if errors.Is(err, commands.ErrNoOutputFilter) {
			return nil, fmt.Errorf("%w: %w", app.ErrPluginUnavailable, err)
		}
		return nil, err
	}
}
