package notifier

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"barbybot/internal/metrics"
	"barbybot/internal/shows"
	"barbybot/internal/store"
	kit "barbybot/internal/transport"
	"barbybot/pkg/logx"
)

type Config struct {
	// TicketBaseURL is the venue site root for per-show ticket links.
	TicketBaseURL string
	// ImageBaseURL is the asset host image references resolve against.
	ImageBaseURL string
	// UserDelay paces successive per-subscriber sends; ShowDelay paces
	// successive show batches. Zero disables pacing (tests).
	UserDelay time.Duration
	ShowDelay time.Duration
}

// Report summarizes one dispatch pass.
type Report struct {
	Shows     int
	Delivered int
	Fallbacks int
	Failed    int
	Removed   int
}

type Service struct {
	cfg      Config
	sender   kit.Sender
	registry store.SubscriberRegistry
	log      logx.Logger

	userPace *rate.Limiter
	showPace *rate.Limiter
}

func New(cfg Config, sender kit.Sender, registry store.SubscriberRegistry, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:      cfg,
		sender:   sender,
		registry: registry,
		log:      log,
		userPace: pacer(cfg.UserDelay),
		showPace: pacer(cfg.ShowDelay),
	}
}

func pacer(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// Notify delivers one message per show to every current subscriber, in show
// input order. Failures local to one subscriber or one show never abort the
// batch; only context cancellation does.
func (s *Service) Notify(ctx context.Context, newShows []shows.Show) (Report, error) {
	rep := Report{Shows: len(newShows)}
	if len(newShows) == 0 {
		return rep, nil
	}

	// One registry query per batch, not per show.
	count, err := s.registry.SubscriberCount(ctx)
	if err != nil {
		return rep, err
	}
	metrics.Subscribers.Set(float64(count))
	if count == 0 {
		s.log.Info("no subscribers to notify", logx.Int("shows", len(newShows)))
		return rep, nil
	}

	s.log.Info("dispatching new show notifications",
		logx.Int("shows", len(newShows)), logx.Int("subscribers", count))

	for i, sh := range newShows {
		if i > 0 {
			if err := s.showPace.Wait(ctx); err != nil {
				return rep, err
			}
		}
		if err := s.dispatchShow(ctx, sh, &rep); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// dispatchShow sends one show to the subscriber list as it stands right now.
// Subscribers removed during an earlier show's pass are naturally absent.
// The returned error is non-nil only on context cancellation.
func (s *Service) dispatchShow(ctx context.Context, sh shows.Show, rep *Report) error {
	msg := renderMessage(sh, s.cfg.TicketBaseURL)
	imageURL := resolveImageURL(sh.Image, s.cfg.ImageBaseURL)

	subs, err := s.registry.Subscribers(ctx)
	if err != nil {
		s.log.Error("subscriber list unavailable, skipping show",
			logx.String("show_id", sh.ID), logx.Err(err))
		rep.Failed++
		return nil
	}

	for i, sub := range subs {
		if i > 0 {
			if err := s.userPace.Wait(ctx); err != nil {
				return err
			}
		}
		s.deliver(ctx, sh, sub, msg, imageURL, rep)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, sh shows.Show, sub store.Subscriber, msg, imageURL string, rep *Report) {
	to := kit.ChatTarget{ChatID: sub.UserID}
	opt := &kit.SendOptions{ParseMode: "HTML"}

	var err error
	withImage := imageURL != ""
	if withImage {
		err = s.sender.SendPhoto(ctx, to, imageURL, msg, opt)
	} else {
		err = s.sender.SendText(ctx, to, msg, opt)
	}
	if err == nil {
		rep.Delivered++
		s.log.Debug("notification sent",
			logx.String("show_id", sh.ID), logx.Int64("user_id", sub.UserID), logx.Bool("image", withImage))
		return
	}

	kind := Classify(err)

	if withImage && kind == FailureAttachment {
		if err2 := s.sender.SendText(ctx, to, msg, opt); err2 == nil {
			rep.Delivered++
			rep.Fallbacks++
			s.log.Info("image rejected, fallback text sent",
				logx.String("show_id", sh.ID), logx.Int64("user_id", sub.UserID), logx.Err(err))
			return
		} else {
			err = err2
			kind = Classify(err2)
		}
	}

	if kind == FailurePermanent {
		rep.Failed++
		removed, rerr := s.registry.RemoveSubscriber(ctx, sub.UserID)
		if rerr != nil {
			s.log.Error("failed to remove dead subscriber",
				logx.Int64("user_id", sub.UserID), logx.Err(rerr))
			return
		}
		if removed {
			rep.Removed++
		}
		// Cleanup, not an error: the recipient opted out the hard way.
		s.log.Info("removed unreachable subscriber",
			logx.Int64("user_id", sub.UserID), logx.String("show_id", sh.ID), logx.Err(err))
		return
	}

	rep.Failed++
	s.log.Warn("notification delivery failed",
		logx.String("show_id", sh.ID), logx.Int64("user_id", sub.UserID),
		logx.String("kind", kind.String()), logx.Err(err))
}
