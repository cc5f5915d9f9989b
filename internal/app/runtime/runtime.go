// Package runtime arma el bot completo a partir de la configuración.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"pladderBot/internal/app"
	"pladderBot/internal/app/events"
	"pladderBot/internal/app/plugins"
	"pladderBot/internal/domain"
	"pladderBot/internal/infrastructure/config"
	"pladderBot/internal/infrastructure/metrics"
	"pladderBot/internal/infrastructure/persistence/redisfuse"
	kickadapter "pladderBot/internal/interface/adapters/kick"
	twitchadapter "pladderBot/internal/interface/adapters/twitch"
	ws "pladderBot/internal/interface/api/ws"
	"pladderBot/internal/interface/outs"
	"pladderBot/internal/script"
	"pladderBot/internal/usecase/commands"
	"pladderBot/internal/usecase/dispatch"
	"pladderBot/internal/usecase/fuse"
	"pladderBot/internal/usecase/handle_message"
)

type Runtime struct {
	cfg        *config.Config
	log        *zap.Logger
	bot        *app.Bot
	dispatcher *dispatch.Dispatcher
	bus        *events.Bus
	metrics    *metrics.Collector
	multiOut   *outs.MultiSender
	fuseStore  io.Closer
}

// New carga los plugins y arma el dispatcher. No abre puertos ni conecta chats.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("runtime: nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bot, err := app.NewBot(cfg.StateDir, script.NewEngine(cfg.MaxDepth), logger)
	if err != nil {
		return nil, err
	}
	if err := bot.LoadPlugins(ctx, plugins.Standard(plugins.Options{OutputFilter: cfg.OutputFilter})); err != nil {
		return nil, err
	}

	store, closer, err := openFuseStore(ctx, cfg, logger)
	if err != nil {
		_ = bot.Close()
		return nil, err
	}

	bus := events.NewBus(logger)
	collector := metrics.NewCollector()
	fz := fuse.New(store, cfg.FuseLimit)
	d := dispatch.New(dispatch.Config{
		Registry:    bot.Commands,
		Interpreter: bot.Interpreter,
		Fuse:        fz,
		Logger:      logger,
		Observers:   []dispatch.Observer{collector, events.ResultPublisher(bus)},
	})

	logger.Info("bot ready",
		zap.String("state_dir", cfg.StateDir),
		zap.Int("fuse_limit", fz.Limit()),
		zap.Strings("plugins", bot.Plugins()),
		zap.Strings("groups", bot.Commands.Groups()))

	return &Runtime{
		cfg:        cfg,
		log:        logger,
		bot:        bot,
		dispatcher: d,
		bus:        bus,
		metrics:    collector,
		multiOut:   outs.NewMultiSender(),
		fuseStore:  closer,
	}, nil
}

func openFuseStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (fuse.Store, io.Closer, error) {
	if cfg.RedisAddr == "" {
		return fuse.NewMemoryStore(), nil, nil
	}
	store, err := redisfuse.Dial(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("fuse counters in redis", zap.String("addr", cfg.RedisAddr))
	return store, store, nil
}

func (r *Runtime) Dispatcher() *dispatch.Dispatcher {
	return r.dispatcher
}

func (r *Runtime) Bot() *app.Bot {
	return r.bot
}

func (r *Runtime) Bus() *events.Bus {
	return r.bus
}

// Aliases devuelve el servicio de alias, o error si el plugin no se cargó.
func (r *Runtime) Aliases() (*commands.Service, error) {
	if r.bot.Aliases == nil {
		return nil, errors.New("runtime: alias plugin not loaded")
	}
	return commands.NewService(r.bot.Aliases, r.bot.Commands), nil
}

// Serve levanta la API y los conectores configurados y bloquea hasta que ctx
// termina o alguno falla.
func (r *Runtime) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := handle_message.NewInteractor(r.multiOut, r.dispatcher, r.cfg.Prefix, r.log)
	onMessage := func(ctx context.Context, msg domain.Message) error {
		r.bus.Publish(events.TopicChatMessage, events.NewChatMessageDTO(msg))
		return handler.Handle(ctx, msg)
	}

	type task struct {
		name string
		run  func(context.Context) error
	}
	tasks := []task{{
		name: "api",
		run: ws.NewServer(ws.Config{
			Addr:       r.cfg.APIAddr,
			Dispatcher: r.dispatcher,
			Commands:   r.bot.Commands,
			Events:     r.bus,
			Metrics:    r.metrics.Handler(),
			Rate:       r.cfg.APIRate,
			Logger:     r.log,
		}).Start,
	}}

	if r.cfg.Twitch.Enabled() {
		tw := twitchadapter.NewAdapter(twitchadapter.Config{
			Username:   r.cfg.Twitch.Username,
			OAuthToken: r.cfg.Twitch.Token,
			Channels:   r.cfg.Twitch.Channels,
			Logger:     r.log,
		})
		tw.SetHandler(onMessage)
		r.multiOut.Register(domain.PlatformTwitch, tw)
		tasks = append(tasks, task{name: "twitch", run: tw.Start})
	}
	if r.cfg.Kick.Enabled() {
		kc := kickadapter.NewAdapter(kickadapter.Config{
			AccessToken:       r.cfg.Kick.Token,
			BroadcasterUserID: r.cfg.Kick.BroadcasterUserID,
			ChatroomID:        r.cfg.Kick.ChatroomID,
			Logger:            r.log,
		})
		kc.SetHandler(onMessage)
		r.multiOut.Register(domain.PlatformKick, kc)
		tasks = append(tasks, task{name: "kick", run: kc.Start})
	}

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for _, t := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := t.run(ctx)
			if err == nil || errors.Is(err, context.Canceled) {
				return
			}
			r.log.Error("component stopped", zap.String("component", t.name), zap.Error(err))
			errMu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("runtime: %s: %w", t.name, err)
			}
			errMu.Unlock()
			cancel()
		}()
	}
	wg.Wait()
	return firstErr
}

func (r *Runtime) Close() error {
	r.bus.Close()
	var errs []error
	if r.fuseStore != nil {
		errs = append(errs, r.fuseStore.Close())
	}
	errs = append(errs, r.bot.Close())
	return errors.Join(errs...)
}
