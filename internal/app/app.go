// Package app wires configuration, storage, transport, notifier and watcher
// into one runnable bot.
package app

import (
	"context"
	"time"

	"barbybot/internal/config"
	"barbybot/internal/metrics"
	"barbybot/internal/notifier"
	"barbybot/internal/source"
	"barbybot/internal/store"
	"barbybot/internal/transport/telegram"
	"barbybot/internal/watcher"
	"barbybot/pkg/logx"
)

type App struct {
	cfg config.Config
	log logx.Logger

	logClose func() error
	store    store.Store
	adapter  *telegram.Adapter
	watch    *watcher.Service
	trigger  *watcher.Trigger
	metrics  *metrics.Server
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log, logClose, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, logClose: logClose}
	if err := a.build(); err != nil {
		_ = logClose()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cfg := a.cfg

	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return err
	}
	retention, err := config.ParseDurationField("storage.retention", cfg.Storage.Retention)
	if err != nil {
		return err
	}
	st, err := store.Open(store.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
		Retention:   retention,
	}, a.log.With(logx.String("comp", "store")))
	if err != nil {
		return err
	}
	a.store = st

	pollTimeout, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	if err != nil {
		return err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, st, st, a.log.With(logx.String("comp", "telegram")))
	if err != nil {
		return err
	}
	a.adapter = adapter

	fetchTimeout, err := config.ParseDurationField("venue.fetch_timeout", cfg.Venue.FetchTimeout)
	if err != nil {
		return err
	}
	src := source.New(source.Config{
		APIURL:  cfg.Venue.APIURL,
		Timeout: fetchTimeout,
	}, a.log.With(logx.String("comp", "source")))

	userDelay, err := config.ParseDurationOrDefault("notifier.user_delay", cfg.Notifier.UserDelay, 100*time.Millisecond)
	if err != nil {
		return err
	}
	showDelay, err := config.ParseDurationOrDefault("notifier.show_delay", cfg.Notifier.ShowDelay, 500*time.Millisecond)
	if err != nil {
		return err
	}
	dispatcher := notifier.New(notifier.Config{
		TicketBaseURL: cfg.Venue.BaseURL,
		ImageBaseURL:  cfg.Venue.ImageBaseURL,
		UserDelay:     userDelay,
		ShowDelay:     showDelay,
	}, adapter, st, a.log.With(logx.String("comp", "notifier")))

	a.watch = watcher.New(src, st, dispatcher, a.log.With(logx.String("comp", "watcher")))

	if cfg.Watcher.Enabled {
		runTimeout, err := config.ParseDurationField("watcher.run_timeout", cfg.Watcher.RunTimeout)
		if err != nil {
			return err
		}
		trigger, err := watcher.NewTrigger(a.watch, watcher.ScheduleConfig{
			Schedule:   cfg.Watcher.Schedule,
			RunTimeout: runTimeout,
			Timezone:   cfg.Watcher.Timezone,
		}, a.log.With(logx.String("comp", "watcher")))
		if err != nil {
			return err
		}
		a.trigger = trigger
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewServer(cfg.Metrics.Addr, a.log.With(logx.String("comp", "metrics")))
	}

	return nil
}

func (a *App) Start(ctx context.Context) error {
	if err := a.adapter.Start(ctx); err != nil {
		return err
	}
	if a.metrics != nil {
		a.metrics.Start()
	}
	if a.trigger != nil {
		a.trigger.Start()
	}

	if n, err := a.store.SubscriberCount(ctx); err == nil {
		metrics.Subscribers.Set(float64(n))
		a.log.Info("bot ready", logx.Int("subscribers", n))
	} else {
		a.log.Info("bot ready")
	}
	return nil
}

// RunOnce triggers one immediate concert check (manual trigger surface).
func (a *App) RunOnce(ctx context.Context) watcher.Outcome {
	return a.watch.RunOnce(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	if a.trigger != nil {
		a.trigger.Stop(ctx)
	}
	if a.metrics != nil {
		_ = a.metrics.Stop(ctx)
	}
	if err := a.adapter.Stop(ctx); err != nil {
		a.log.Warn("telegram stop error", logx.Err(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("store close error", logx.Err(err))
	}
	a.log.Info("stopped")
	if a.logClose != nil {
		return a.logClose()
	}
	return nil
}
