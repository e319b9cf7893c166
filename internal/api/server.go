// Package api exposes the read-only dashboard surface over the store.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"flipscan/arbworker/internal/arbitrage"
	"flipscan/arbworker/internal/scraper"
	"flipscan/arbworker/logger"
	"flipscan/arbworker/services/store"
)

// Server serves listings and opportunities as JSON
type Server struct {
	store store.Store
	http  *http.Server
	log   *logger.Logger
}

// NewServer creates a dashboard API server listening on addr
func NewServer(st store.Store, addr string) *Server {
	s := &Server{
		store: st,
		log:   logger.ForAPI(),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/listings", s.handleListings)
		r.Get("/opportunities", s.handleOpportunities)
	})

	return r
}

// Start serves until the listener closes.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("Starting dashboard API")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.store.ListCandidates(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to fetch listings")
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch listings")
		return
	}
	if listings == nil {
		listings = []scraper.Candidate{}
	}
	s.writeJSON(w, http.StatusOK, listings)
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	opportunities, err := s.store.ListOpportunities(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to fetch opportunities")
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch opportunities")
		return
	}
	if opportunities == nil {
		opportunities = []arbitrage.Opportunity{}
	}
	s.writeJSON(w, http.StatusOK, opportunities)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
