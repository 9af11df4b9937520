// Package watcher runs the periodic concert check: fetch the current
// listing, diff it against the stored snapshot, persist the new snapshot and
// fan out notifications for newly announced shows.
package watcher

import (
	"context"
	"fmt"
	"sync"

	"barbybot/internal/metrics"
	"barbybot/internal/notifier"
	"barbybot/internal/shows"
	"barbybot/internal/store"
	"barbybot/pkg/logx"
)

// Status is the terminal outcome of one invocation.
type Status string

const (
	StatusNoChange Status = "no_change"
	StatusNotified Status = "notified"
	StatusFailed   Status = "failed"
)

type Outcome struct {
	Status   Status
	NewShows int
	Report   notifier.Report
	Err      error
}

// Source yields the current show listing. An error means the fetch failed;
// an empty list with nil error means the venue has nothing listed.
type Source interface {
	FetchShows(ctx context.Context) ([]shows.Show, error)
}

// Dispatcher delivers per-show notifications to all subscribers.
type Dispatcher interface {
	Notify(ctx context.Context, newShows []shows.Show) (notifier.Report, error)
}

type Service struct {
	source     Source
	snapshots  store.SnapshotStore
	dispatcher Dispatcher
	log        logx.Logger

	// Invocations are serialized by the trigger contract; the mutex is a
	// guard for manual triggers racing the cron entry.
	runMu sync.Mutex
}

func New(source Source, snapshots store.SnapshotStore, dispatcher Dispatcher, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{source: source, snapshots: snapshots, dispatcher: dispatcher, log: log}
}

// RunOnce performs one full check cycle.
//
// The snapshot is saved before dispatch: a crash mid-dispatch means some
// subscribers miss this round rather than everyone getting it twice next
// round (at-most-once bias).
func (s *Service) RunOnce(ctx context.Context) Outcome {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	metrics.ChecksTotal.Inc()

	list, err := s.source.FetchShows(ctx)
	if err != nil {
		metrics.CheckFailures.Inc()
		s.log.Error("show fetch failed, skipping cycle", logx.Err(err))
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("fetch shows: %w", err)}
	}
	if len(list) == 0 {
		s.log.Info("no shows in listing")
		return Outcome{Status: StatusNoChange}
	}

	prev, meta, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		// Degrade to "nothing seen before". Trades a risk of duplicate
		// notifications for availability.
		s.log.Warn("snapshot load failed, assuming empty baseline (may re-notify known shows)", logx.Err(err))
		prev = map[string]shows.Show{}
	} else if !meta.LastCheck.IsZero() {
		s.log.Debug("loaded snapshot",
			logx.Int("shows", len(prev)), logx.Time("last_check", meta.LastCheck))
	}

	fresh := shows.NewSince(list, prev)
	if len(fresh) == 0 {
		s.log.Info("no new shows", logx.Int("listed", len(list)))
		return Outcome{Status: StatusNoChange}
	}

	if err := s.snapshots.SaveSnapshot(ctx, shows.Keyed(list)); err != nil {
		// Dispatching without a persisted snapshot would re-notify the same
		// shows every cycle; abort instead.
		metrics.CheckFailures.Inc()
		s.log.Error("snapshot save failed, not dispatching", logx.Err(err))
		return Outcome{Status: StatusFailed, Err: fmt.Errorf("save snapshot: %w", err)}
	}

	metrics.NewShowsTotal.Add(float64(len(fresh)))
	s.log.Info("new shows detected", logx.Int("count", len(fresh)))

	rep, err := s.dispatcher.Notify(ctx, fresh)
	metrics.NotificationsSent.Add(float64(rep.Delivered))
	metrics.NotificationsFailed.Add(float64(rep.Failed))
	metrics.SubscribersRemoved.Add(float64(rep.Removed))
	if err != nil {
		// Partial dispatch is an accepted outcome: the snapshot is already
		// saved, so these shows won't be re-detected next cycle.
		s.log.Warn("dispatch interrupted", logx.Int("delivered", rep.Delivered), logx.Err(err))
	}
	return Outcome{Status: StatusNotified, NewShows: len(fresh), Report: rep, Err: err}
}
