// Package web serves the locale-prefixed search and artist pages over
// HTTP and keeps the application state, query layer and session store
// wired together behind them.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pbarbosa/descobre/internal/app"
	"github.com/pbarbosa/descobre/internal/query"
	"github.com/pbarbosa/descobre/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds the server's settings.
type Config struct {
	Addr   string // Listen address
	Market string // Market for top-tracks lookups
}

// Server is the HTTP front of the application.
type Server struct {
	cfg      Config
	queries  *query.Service
	sessions *session.Store
	logger   zerolog.Logger
	mux      *http.ServeMux
	tmpl     *template.Template

	// states holds each visitor's UI state, keyed by session id.
	mu     sync.Mutex
	states map[string]*sessionState

	// baseCtx outlives individual requests so background prefetches are
	// not cancelled when the triggering request finishes.
	baseCtx context.Context
}

// sessionState is one visitor's UI state: their store, their scroll
// guard, and the one-shot deep-link initialization flag.
type sessionState struct {
	store  *app.Store
	scroll *ScrollGuard

	// init guards the one-time URL-to-store initialization: deep link
	// parameters are applied on the session's first search request
	// only, afterwards the URL is written, never re-read.
	init sync.Once

	lastSeen time.Time // guarded by Server.mu
}

// state returns the session's UI state, creating it on first sight.
func (s *Server) state(sid string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[sid]
	if !ok {
		st = &sessionState{store: app.NewStore(), scroll: NewScrollGuard()}
		s.states[sid] = st
	}
	st.lastSeen = time.Now()
	return st
}

// pruneStates drops session state idle for longer than maxIdle. The
// durable parts (language, snapshot) live in the session store; this
// only frees in-memory UI state.
func (s *Server) pruneStates(maxIdle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for sid, st := range s.states {
		if st.lastSeen.Before(cutoff) {
			delete(s.states, sid)
		}
	}
}

// NewServer wires the handlers. Run must be called to serve.
func NewServer(cfg Config, queries *query.Service, sessions *session.Store, logger zerolog.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		queries:  queries,
		sessions: sessions,
		states:   make(map[string]*sessionState),
		logger:   logger.With().Str("component", "web").Logger(),
		mux:      http.NewServeMux(),
		tmpl:     tmpl,
		baseCtx:  context.Background(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /{locale}", s.handleSearch)
	s.mux.HandleFunc("GET /{locale}/artist/{id}", s.handleArtist)
	s.mux.HandleFunc("GET /{locale}/back", s.handleBack)
	s.mux.HandleFunc("GET /{locale}/prefetch", s.handlePrefetch)

	return s, nil
}

// Handler returns the server's root handler, wrapped with request
// logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.pruneStates(time.Hour)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("render failed")
	}
}
