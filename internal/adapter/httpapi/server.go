// Package httpapi exposes the scoring service over HTTP, along with the
// health, readiness, and metrics endpoints.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
	"github.com/GSinger-Abt/commune-vi-service/internal/scoring"
)

// Scorer is the scoring surface the server exposes.
type Scorer interface {
	Compute(ctx context.Context, req scoring.Request) (*scoring.Snapshot, error)
	Layer(code string) (*scoring.Layer, error)
	Catalog() []domain.Indicator
	Communes() []domain.Commune
	CheckReadiness(ctx context.Context) error
}

// Server exposes the scoring API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	scorer     Scorer
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, scorer Scorer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		scorer: scorer,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/indicators", s.handleIndicators)
	mux.HandleFunc("GET /v1/communes", s.handleCommunes)
	mux.HandleFunc("GET /v1/scores", s.handleScoresUnweighted)
	mux.HandleFunc("POST /v1/scores", s.handleScores)
	mux.HandleFunc("GET /v1/scores/export", s.handleExportUnweighted)
	mux.HandleFunc("POST /v1/scores/export", s.handleExport)
	mux.HandleFunc("GET /v1/layers/{code}", s.handleLayer)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.scorer.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleIndicators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"indicators": s.scorer.Catalog()})
}

func (s *Server) handleCommunes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"communes": s.scorer.Communes()})
}

func (s *Server) handleScoresUnweighted(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.compute(w, r, scoring.Request{Mode: scoring.ModeUnweighted})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	snap, ok := s.compute(w, r, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleExportUnweighted(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, scoring.Request{Mode: scoring.ModeUnweighted})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	s.export(w, r, req)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, req scoring.Request) {
	snap, ok := s.compute(w, r, req)
	if !ok {
		return
	}

	// Render to a buffer first so an encoding failure can still produce an
	// error status.
	var buf bytes.Buffer
	if err := scoring.WriteCSV(&buf, snap); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="vulnerability_index.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client gone, nothing to do
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	layer, err := s.scorer.Layer(r.PathValue("code"))
	if err != nil {
		status := http.StatusNotFound
		var degErr *domain.DegenerateIndicatorError
		var missErr *domain.MissingValueError
		if errors.As(err, &degErr) || errors.As(err, &missErr) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, layer)
}

// decodeRequest parses and validates a scoring request body.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (scoring.Request, bool) {
	var req scoring.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return scoring.Request{}, false
	}
	if _, err := scoring.ParseMode(string(req.Mode)); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return scoring.Request{}, false
	}
	if req.Mode == scoring.ModeWeighted && len(req.Weights) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("weighted mode requires weights"))
		return scoring.Request{}, false
	}
	for code, weight := range req.Weights {
		if weight < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("indicator %s: weight must be >= 0", code))
			return scoring.Request{}, false
		}
	}
	return req, true
}

func (s *Server) compute(w http.ResponseWriter, r *http.Request, req scoring.Request) (*scoring.Snapshot, bool) {
	snap, err := s.scorer.Compute(r.Context(), req)
	if err != nil {
		s.writeError(w, computeStatus(err), err)
		return nil, false
	}
	return snap, true
}

// computeStatus maps computation errors to HTTP statuses: weight problems
// are the caller's request (400), dataset problems surface as 422, anything
// else is a server error.
func computeStatus(err error) int {
	var missWErr *domain.MissingWeightError
	var degErr *domain.DegenerateIndicatorError
	var missValErr *domain.MissingValueError
	switch {
	case errors.As(err, &missWErr):
		return http.StatusBadRequest
	case errors.As(err, &degErr), errors.As(err, &missValErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
