// Package admin serves the daemon's operational HTTP endpoints: health,
// sync status, and Prometheus metrics.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/config"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/sync"
)

// Status is the payload of GET /status.
type Status struct {
	Service     string                  `json:"service"`
	Version     string                  `json:"version"`
	UptimeSecs  int64                   `json:"uptime_seconds"`
	Interval    string                  `json:"interval"`
	Connections []sync.ConnectionStatus `json:"connections"`
}

// Server is the admin HTTP server.
type Server struct {
	http     *http.Server
	logger   *slog.Logger
	started  time.Time
	interval time.Duration
	version  string
	tracker  *sync.Tracker
}

// New builds the admin server and its routes.
func New(cfg config.AdminConfig, interval time.Duration, version string, tracker *sync.Tracker, logger *slog.Logger) *Server {
	s := &Server{
		logger:   logger,
		started:  time.Now(),
		interval: interval,
		version:  version,
		tracker:  tracker,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      handlers.LoggingHandler(os.Stdout, r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("admin server listening", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := Status{
		Service:     "nubomaild",
		Version:     s.version,
		UptimeSecs:  int64(time.Since(s.started).Seconds()),
		Interval:    s.interval.String(),
		Connections: s.tracker.Statuses(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("writing status response", slog.Any("error", err))
	}
}
