// Package dispatch ejecuta una línea de texto dirigida al bot y la convierte
// siempre en un domain.Result mostrable, sin importar cómo falle.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"pladderBot/internal/domain"
	"pladderBot/internal/script"
	"pladderBot/internal/usecase/fuse"
)

const (
	MaxResultLength = 10000

	OutputFilterCommand = "output-filter"

	// Amarillo claro en códigos de color IRC.
	FuseBlownNotice = "\x0308*daily fuse blown*\x0308"

	RecursionNotice = "RecursionError: Maximum recursion depth exceeded"
)

type Config struct {
	Registry    *script.Registry
	Interpreter script.Interpreter
	Fuse        *fuse.Fuse
	Logger      *zap.Logger
	Observers   []Observer
}

type Dispatcher struct {
	registry  *script.Registry
	interp    script.Interpreter
	fuse      *fuse.Fuse
	log       *zap.Logger
	observers []Observer

	// Un dispatch, con sus re-entradas y el paso de filtro, termina antes de
	// que empiece el siguiente.
	runMu sync.Mutex

	lastMu sync.RWMutex
	last   map[channelKey]script.Context
}

type channelKey struct {
	network string
	channel string
}

func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interp := cfg.Interpreter
	if interp == nil {
		interp = script.NewEngine(script.DefaultMaxDepth)
	}
	fz := cfg.Fuse
	if fz == nil {
		fz = fuse.New(nil, fuse.DefaultDailyLimit)
	}
	registry := cfg.Registry
	if registry == nil {
		registry = script.NewRegistry()
	}
	return &Dispatcher{
		registry:  registry,
		interp:    interp,
		fuse:      fz,
		log:       logger.Named("dispatch"),
		observers: append([]Observer(nil), cfg.Observers...),
		last:      make(map[channelKey]script.Context),
	}
}

func (d *Dispatcher) Registry() *script.Registry {
	return d.registry
}

// RunCommand es el único punto de entrada del transporte.
func (d *Dispatcher) RunCommand(ctx context.Context, msg domain.Message) domain.Result {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	started := time.Now()
	result, outcome := d.runInternal(ctx, msg)

	if !result.IsError() {
		result, outcome = d.applyOutputFilter(ctx, msg, result, outcome)
	}

	d.notify(ctx, Event{
		Message:  msg,
		Result:   result,
		Outcome:  outcome,
		Duration: time.Since(started),
	})
	return result
}

func (d *Dispatcher) applyOutputFilter(ctx context.Context, msg domain.Message, first domain.Result, outcome Outcome) (domain.Result, Outcome) {
	filtered, applied, err := d.runFilter(ctx, msg, first.Text)
	if err != nil {
		d.log.Error("output-filter failed",
			zap.String("network", msg.Network.String()),
			zap.String("channel", msg.Channel),
			zap.Error(err))
		return domain.Result{
			Text:    "Internal error while running output-filter: " + err.Error(),
			Command: domain.ResultCommandError,
		}, OutcomeFilterFailed
	}
	if !applied {
		return first, outcome
	}
	return domain.Result{Text: filtered.Text, Command: first.Command}, outcome
}

func (d *Dispatcher) runInternal(ctx context.Context, msg domain.Message) (result domain.Result, outcome Outcome) {
	d.log.Debug("run command",
		zap.String("network", msg.Network.String()),
		zap.String("channel", msg.Channel),
		zap.String("nick", msg.Nick),
		zap.String("text", msg.Text))

	c := d.newContext(ctx, msg)
	defer d.remember(msg, c)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			d.log.Error("internal error", zap.Error(err), zap.ByteString("stack", debug.Stack()))
			result, outcome = internalError(err), OutcomeInternal
		}
	}()

	gated, blocked, err := d.checkFuse(ctx, msg)
	if err != nil {
		return d.normalize(msg, err)
	}
	if blocked {
		return gated.result, gated.outcome
	}

	text, display, err := d.interp.Interpret(c, msg.Text)
	if err != nil {
		return d.normalize(msg, err)
	}
	return domain.Result{Text: truncate(text, MaxResultLength), Command: display}, OutcomeOK
}

// runFilter repite el pipeline sobre "output-filter {texto}" sin normalizar
// errores: cualquier fallo vuelve al llamador.
func (d *Dispatcher) runFilter(ctx context.Context, msg domain.Message, text string) (result domain.Result, applied bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("output-filter panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			result, applied, err = domain.Result{}, false, fmt.Errorf("panic: %v", r)
		}
	}()

	b, err := d.registry.LookupCommand(ctx, OutputFilterCommand)
	if err != nil {
		return domain.Result{}, false, err
	}
	if b == nil {
		return domain.Result{}, false, nil
	}

	filterMsg := msg
	filterMsg.Text = OutputFilterCommand + " " + script.EscapeBraced(text)

	c := d.newContext(ctx, filterMsg)
	defer d.remember(filterMsg, c)

	gated, blocked, err := d.checkFuse(ctx, filterMsg)
	if err != nil {
		return domain.Result{}, false, err
	}
	if blocked {
		return gated.result, true, nil
	}

	out, display, err := d.interp.Interpret(c, filterMsg.Text)
	if err != nil {
		return domain.Result{}, false, err
	}
	return domain.Result{Text: truncate(out, MaxResultLength), Command: display}, true, nil
}

type gate struct {
	result  domain.Result
	outcome Outcome
}

func (d *Dispatcher) checkFuse(ctx context.Context, msg domain.Message) (gate, bool, error) {
	state, err := d.fuse.Run(ctx, msg.Timestamp, msg.Network.String(), msg.Channel)
	if err != nil {
		return gate{}, false, err
	}
	switch state {
	case fuse.JustBlown:
		d.log.Info("fuse blown", zap.String("network", msg.Network.String()), zap.String("channel", msg.Channel))
		return gate{
			result:  domain.Result{Text: FuseBlownNotice, Command: domain.ResultCommandError},
			outcome: OutcomeFuseJustBlown,
		}, true, nil
	case fuse.Blown:
		return gate{
			result:  domain.Result{Text: "", Command: domain.ResultCommandError},
			outcome: OutcomeFuseBlown,
		}, true, nil
	default:
		return gate{}, false, nil
	}
}

func (d *Dispatcher) normalize(msg domain.Message, err error) (domain.Result, Outcome) {
	var applyErr *script.ApplyError
	var recursionErr *script.RecursionError
	var scriptErr *script.ScriptError

	switch {
	case errors.As(err, &applyErr):
		return domain.Result{
			Text:    "Usage: " + script.Usage(applyErr.Command),
			Command: applyErr.Command.DisplayName,
		}, OutcomeUsage
	case errors.As(err, &recursionErr):
		return domain.Result{Text: RecursionNotice, Command: domain.ResultCommandError}, OutcomeRecursion
	case errors.As(err, &scriptErr):
		return domain.Result{Text: "Error: " + scriptErr.Message, Command: domain.ResultCommandError}, OutcomeScriptError
	default:
		d.log.Error("internal error",
			zap.String("network", msg.Network.String()),
			zap.String("channel", msg.Channel),
			zap.String("text", msg.Text),
			zap.Error(err))
		return internalError(err), OutcomeInternal
	}
}

func internalError(err error) domain.Result {
	return domain.Result{Text: "Internal error: " + err.Error(), Command: domain.ResultCommandError}
}

func (d *Dispatcher) newContext(ctx context.Context, msg domain.Message) script.Context {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return script.NewContext(ctx, d.registry, script.Metadata{
		Datetime: ts.UTC(),
		Network:  msg.Network.String(),
		Channel:  msg.Channel,
		Nick:     msg.Nick,
		Text:     msg.Text,
	})
}

func (d *Dispatcher) remember(msg domain.Message, c script.Context) {
	d.lastMu.Lock()
	defer d.lastMu.Unlock()
	d.last[channelKey{network: msg.Network.String(), channel: msg.Channel}] = c
}

// LastContext devuelve el último Context usado en ese canal, para diagnóstico.
func (d *Dispatcher) LastContext(network, channel string) (script.Context, bool) {
	d.lastMu.RLock()
	defer d.lastMu.RUnlock()
	c, ok := d.last[channelKey{network: network, channel: channel}]
	return c, ok
}

func (d *Dispatcher) notify(ctx context.Context, ev Event) {
	for _, o := range d.observers {
		o.Observe(ctx, ev)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
