// Package metrics exposes the bot's Prometheus instrumentation.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"barbybot/pkg/logx"
)

var (
	ChecksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barbybot_checks_total",
		Help: "Concert check cycles started.",
	})
	CheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barbybot_check_failures_total",
		Help: "Concert check cycles aborted by fetch or snapshot-save failure.",
	})
	NewShowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barbybot_new_shows_total",
		Help: "Newly announced shows detected.",
	})
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barbybot_notifications_sent_total",
		Help: "Per-subscriber notification deliveries that succeeded (including text fallbacks).",
	})
	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barbybot_notifications_failed_total",
		Help: "Per-subscriber notification deliveries that failed.",
	})
	SubscribersRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barbybot_subscribers_removed_total",
		Help: "Subscribers removed after a permanent delivery failure.",
	})
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "barbybot_subscribers",
		Help: "Current registered subscriber count.",
	})
)

// Server serves /metrics on a private listener.
type Server struct {
	srv *http.Server
	log logx.Logger
}

func NewServer(addr string, log logx.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Start() {
	go func() {
		s.log.Info("metrics listener started", logx.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics listener failed", logx.Err(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
