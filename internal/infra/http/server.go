package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-scraper-bot/internal/config"
	"telegram-scraper-bot/internal/domain/model"
)

// QueueStatter is one resource queue as seen by the admin API.
type QueueStatter interface {
	Stats() model.QueueStats
}

// SessionReader looks up session snapshots.
type SessionReader interface {
	Session(id int64) (model.Session, bool)
}

// Server is the admin HTTP surface: health, prometheus metrics and a small JWT protected API.
type Server struct {
	cfg      config.AdminConfig
	queues   []QueueStatter
	sessions SessionReader
	auth     *AuthManager
	log      *zerolog.Logger
	server   *http.Server
}

func NewServer(cfg config.AdminConfig, queues []QueueStatter, sessions SessionReader, auth *AuthManager, logger *zerolog.Logger) *Server {
	return &Server{cfg: cfg, queues: queues, sessions: sessions, auth: auth, log: logger}
}

// Router builds the chi router. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(10*time.Second))

	r.Get("/health", s.handleHealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.RequireAdmin)
		r.Get("/queues", s.handleQueues)
		r.Get("/sessions/{id}", s.handleSession)
	})
	return r
}

// Start blocks serving until Shutdown. A non-positive port disables the server.
func (s *Server) Start() error {
	if s.cfg.Port <= 0 {
		s.log.Info().Msg("admin server disabled")
		return nil
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("admin server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (s *Server) handleQueues(w http.ResponseWriter, r *http.Request) {
	out := make([]model.QueueStats, 0, len(s.queues))
	for _, q := range s.queues {
		out = append(out, q.Stats())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	sess, ok := s.sessions.Session(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
