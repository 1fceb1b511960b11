// Package app wires config, logging, storage, the posting loop and the
// status reporter, and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"newsbot/internal/config"
	"newsbot/internal/feed"
	"newsbot/internal/imagesearch"
	"newsbot/internal/poster"
	"newsbot/internal/publisher/xapi"
	"newsbot/internal/runtime/supervisor"
	"newsbot/internal/storage"
	"newsbot/internal/transport"
	telegram "newsbot/internal/transport/telegram/adapter"
	logx "newsbot/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	chat   transport.Sender
	store  storage.Store
	loop   *poster.Loop
	status *statusReporter
}

type Option func(*options)

type options struct {
	lookup     func(string) (string, bool)
	httpClient *http.Client
}

// WithEnvLookup replaces os.LookupEnv for credential variables.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(o *options) { o.lookup = fn }
}

// WithHTTPClient sets the client used for feed, image and API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// NewApp loads and validates the config and builds every component. Nothing
// is started and no network calls are made.
func NewApp(cfgPath string, opts ...Option) (*App, error) {
	o := options{lookup: os.LookupEnv}
	for _, fn := range opts {
		fn(&o)
	}

	cfgm := config.NewConfigManager(cfgPath)
	cfgm.SetEnvLookup(o.lookup)
	cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error { return validateConfig(cfg) })
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))

	// Operator chat (optional)
	var chat transport.Sender
	if strings.TrimSpace(cfg.Telegram.Token) != "" {
		ad, err := telegram.New(telegram.Config{Token: cfg.Telegram.Token}, bootLog)
		if err != nil {
			bootLog.Warn("telegram disabled; continuing without operator chat", logx.Err(err))
		} else {
			chat = ad
		}
	}

	// Logging: bootstrap with the Telegram sink off, set the target, then apply
	// the final config so Apply never sees an enabled sink without a chat.
	logCfg := mapLogConfig(cfg)
	boot := logCfg
	boot.Telegram.Enabled = false
	logSvc, log := logx.New(boot, chat)
	logSvc.SetTelegramTarget(cfg.Telegram.ChatID, cfg.Logging.Telegram.ThreadID)
	logSvc.Apply(logCfg)
	appLog := log.With(logx.String("comp", "app"))

	// Storage (optional)
	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(context.Background(), sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			logSvc.Close()
			return nil, fmt.Errorf("storage: %w", err)
		}
		store = st
		appLog.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	loop, err := buildLoop(cfg, o.httpClient, store, log)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		logSvc.Close()
		return nil, err
	}

	a := &App{
		cfgm:  cfgm,
		log:   appLog,
		logs:  logSvc,
		chat:  chat,
		store: store,
		loop:  loop,
	}

	if cfg.Status.Enabled {
		target := transport.ChatTarget{ChatID: cfg.Telegram.ChatID, ThreadID: cfg.Logging.Telegram.ThreadID}
		sr, err := newStatusReporter(cfg.Status, loop, log.With(logx.String("comp", "status")), chat, target)
		if err != nil {
			a.closeResources()
			return nil, err
		}
		a.status = sr
	}
	return a, nil
}

func buildLoop(cfg *config.Config, hc *http.Client, store storage.Store, log logx.Logger) (*poster.Loop, error) {
	fc, err := mapFeedConfig(cfg)
	if err != nil {
		return nil, err
	}
	var feedOpts []feed.Option
	if hc != nil {
		feedOpts = append(feedOpts, feed.WithHTTPClient(hc))
	}
	src := feed.NewSource(fc, feedOpts...)

	pc, err := mapPublisherConfig(cfg)
	if err != nil {
		return nil, err
	}
	var pubOpts []xapi.Option
	if hc != nil {
		pubOpts = append(pubOpts, xapi.WithBaseClient(hc))
	}
	pub, err := xapi.New(pc, pubOpts...)
	if err != nil {
		return nil, err
	}

	cooldowns, err := mapCooldowns(cfg)
	if err != nil {
		return nil, err
	}

	opts := []poster.Option{
		poster.WithCooldowns(cooldowns),
		poster.WithLogger(log.With(logx.String("comp", "poster"))),
	}
	if store != nil {
		opts = append(opts, poster.WithRecorder(store))
	}
	if cfg.ImagesEnabled() {
		findCfg, dlCfg, err := mapImageConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, poster.WithImages(
			imagesearch.NewFinder(findCfg, hc),
			imagesearch.NewDownloader(dlCfg, hc),
		))
	}
	return poster.New(src, pub, opts...), nil
}

// Loop exposes the posting loop (stats, seen titles).
func (a *App) Loop() *poster.Loop { return a.loop }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	a.sup.Go("poster.loop", func(c context.Context) error {
		return a.loop.Run(c)
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
			drain:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						break drain
					}
				}
				a.applyConfig(lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	if a.status != nil {
		a.status.Start()
	}

	a.log.Info("app started", logx.String("config", a.cfgm.Path()))
	return nil
}

// applyConfig applies the hot-reloadable sections and warns about the rest.
func (a *App) applyConfig(prev, next *config.Config) {
	sections := config.ChangedSections(prev, next)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	// Logging first so the lines below already use the new sinks and level.
	a.logs.SetTelegramTarget(next.Telegram.ChatID, next.Logging.Telegram.ThreadID)
	a.logs.Apply(mapLogConfig(next))

	var restart []string
	for _, s := range sections {
		if !config.HotReloadable(s) {
			restart = append(restart, s)
		}
	}
	if len(restart) > 0 {
		a.log.Warn("config changed; restart required for changes to take effect", logx.String("sections", strings.Join(restart, ",")))
	}

	a.log.Info("config reloaded", logx.String("changed", strings.Join(sections, ",")))
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		a.closeResources()
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}

	step("status", 2*time.Second, func(c context.Context) error {
		if a.status != nil {
			return a.status.Stop(c)
		}
		return nil
	})
	step("supervisor", 3*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	snap := a.loop.Stats().Snapshot()
	a.log.Info("stopped", logx.Uint64("cycles", snap.Cycles), logx.Uint64("posted", snap.Posted))
	a.closeResources()
	return nil
}

func (a *App) closeResources() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
		a.store = nil
	}
	if a.logs != nil {
		_ = a.logs.Close()
		a.logs = nil
	}
}
