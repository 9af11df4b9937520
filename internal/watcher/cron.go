package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"barbybot/pkg/logx"
)

type ScheduleConfig struct {
	// Schedule is a robfig/cron spec, e.g. "*/15 * * * *" or "@every 15m".
	Schedule   string
	RunTimeout time.Duration
	Timezone   string
}

// Trigger owns the cron entry that invokes RunOnce periodically. Cron runs
// jobs for one entry sequentially, so invocations never overlap.
type Trigger struct {
	svc  *Service
	cfg  ScheduleConfig
	log  logx.Logger
	cron *cron.Cron
}

func NewTrigger(svc *Service, cfg ScheduleConfig, log logx.Logger) (*Trigger, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("watcher.timezone: %w", err)
		}
		loc = l
	}

	t := &Trigger{
		svc:  svc,
		cfg:  cfg,
		log:  log,
		cron: cron.New(cron.WithLocation(loc)),
	}
	if _, err := t.cron.AddFunc(cfg.Schedule, t.run); err != nil {
		return nil, fmt.Errorf("watcher.schedule %q: %w", cfg.Schedule, err)
	}
	return t, nil
}

func (t *Trigger) Start() {
	t.cron.Start()
	t.log.Info("watcher scheduled", logx.String("schedule", t.cfg.Schedule))
}

// Stop halts the schedule and waits for a running check to finish.
func (t *Trigger) Stop(ctx context.Context) {
	done := t.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		t.log.Warn("watcher stop timed out with a check still running")
	}
}

func (t *Trigger) run() {
	ctx := context.Background()
	if t.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.RunTimeout)
		defer cancel()
	}

	start := time.Now()
	out := t.svc.RunOnce(ctx)

	fields := []logx.Field{
		logx.String("status", string(out.Status)),
		logx.Duration("took", time.Since(start)),
	}
	switch out.Status {
	case StatusFailed:
		t.log.Error("concert check failed", append(fields, logx.Err(out.Err))...)
	case StatusNotified:
		t.log.Info("concert check finished", append(fields,
			logx.Int("new_shows", out.NewShows),
			logx.Int("delivered", out.Report.Delivered),
			logx.Int("removed", out.Report.Removed))...)
	default:
		t.log.Info("concert check finished", fields...)
	}
}
