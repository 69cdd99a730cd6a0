// Package server implements the reference document service: a small HTTP
// API storing algorithms and their graphs, used by the editor through
// package remote.
//
// Reads are public. Writes require the bearer token when one is configured.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Server serves the document API over a [Repository].
type Server struct {
	repo     Repository
	events   Publisher
	logger   *log.Logger
	token    string
	now      func() time.Time
	newID    func() string
	validate *validator.Validate
}

// Option configures a [Server].
type Option func(*Server)

// WithPublisher sets the event publisher. The default drops events.
func WithPublisher(p Publisher) Option { return func(s *Server) { s.events = p } }

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithToken requires "Authorization: Bearer <token>" on writes.
func WithToken(token string) Option { return func(s *Server) { s.token = token } }

// WithClock replaces time.Now for update stamps.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// WithIDGenerator replaces the UUID generator for new records.
func WithIDGenerator(fn func() string) Option { return func(s *Server) { s.newID = fn } }

// New creates a server over repo.
func New(repo Repository, opts ...Option) *Server {
	s := &Server{
		repo:     repo,
		events:   NoopPublisher{},
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/algorithms", func(r chi.Router) {
		r.Get("/{id}", s.handleGetAlgorithm)
		r.Get("/{id}/nodes", s.handleGetNodes)
		r.Get("/graph/{id}", s.handleGetGraph)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/", s.handleCreateAlgorithm)
			r.Put("/graph/{id}", s.handlePutGraph)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := s.events.Close(); err != nil {
		s.logger.Warn("close publisher", "err", err)
	}
	return s.repo.Close(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
