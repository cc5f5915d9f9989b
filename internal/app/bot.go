// Package app agrupa el estado del bot y la carga ordenada de plugins.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"pladderBot/internal/domain"
	"pladderBot/internal/script"
)

// ErrPluginUnavailable lo devuelve un plugin que no puede cargarse en este
// entorno; el bot lo salta y sigue con el resto.
var ErrPluginUnavailable = errors.New("app: plugin unavailable")

type Plugin struct {
	Name string
	Load func(ctx context.Context, bot *Bot) (io.Closer, error)
}

type Bot struct {
	StateDir    string
	Commands    *script.Registry
	Interpreter script.Interpreter
	Log         *zap.Logger

	// Aliases lo fija el plugin de alias cuando está cargado.
	Aliases domain.AliasRepository

	loaded []loadedPlugin
}

type loadedPlugin struct {
	name   string
	closer io.Closer
}

func NewBot(stateDir string, interp script.Interpreter, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o755); err != nil {
			return nil, fmt.Errorf("app: state dir: %w", err)
		}
	}
	if interp == nil {
		interp = script.NewEngine(script.DefaultMaxDepth)
	}
	return &Bot{
		StateDir:    stateDir,
		Commands:    script.NewRegistry(),
		Interpreter: interp,
		Log:         logger.Named("bot"),
	}, nil
}

// LoadPlugins carga en orden. Un plugin no disponible se salta; cualquier otro
// error descarga lo ya cargado en orden inverso y se devuelve.
func (b *Bot) LoadPlugins(ctx context.Context, plugins []Plugin) error {
	for _, p := range plugins {
		closer, err := p.Load(ctx, b)
		if errors.Is(err, ErrPluginUnavailable) {
			b.Log.Info("plugin unavailable, skipping", zap.String("plugin", p.Name), zap.Error(err))
			continue
		}
		if err != nil {
			b.Log.Error("plugin failed to load", zap.String("plugin", p.Name), zap.Error(err))
			if cerr := b.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			return fmt.Errorf("app: load plugin %s: %w", p.Name, err)
		}
		b.loaded = append(b.loaded, loadedPlugin{name: p.Name, closer: closer})
		b.Log.Debug("plugin loaded", zap.String("plugin", p.Name))
	}
	return nil
}

func (b *Bot) Plugins() []string {
	names := make([]string, len(b.loaded))
	for i, p := range b.loaded {
		names[i] = p.name
	}
	return names
}

// Close descarga los plugins en orden inverso al de carga.
func (b *Bot) Close() error {
	var errs []error
	for i := len(b.loaded) - 1; i >= 0; i-- {
		p := b.loaded[i]
		if p.closer == nil {
			continue
		}
		if err := p.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p.name, err))
		}
	}
	b.loaded = nil
	return errors.Join(errs...)
}
