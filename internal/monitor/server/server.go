// Package server exposes the health snapshot and metrics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/monitor/state"
)

// SystemStatus is the aggregate health across all sources.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// SourceHealth is the JSON view of one record.
type SourceHealth struct {
	Source    string `json:"source"`
	Label     string `json:"label"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	LastSeen  string `json:"last_seen,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	snap   *state.Snapshot
	server *http.Server
}

// New creates a server listening on port.
func New(snap *state.Snapshot, port int) *Server {
	s := &Server{snap: snap}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Aggregate returns healthy when every source is OK, critical when none is,
// and degraded otherwise.
func Aggregate(records []domain.HealthRecord) SystemStatus {
	down := 0
	for _, rec := range records {
		if rec.Status == domain.StatusDown {
			down++
		}
	}
	switch {
	case down == 0:
		return StatusHealthy
	case down == len(records):
		return StatusCritical
	default:
		return StatusDegraded
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := Aggregate(s.snap.Records())

	response := map[string]string{"status": string(status)}
	w.Header().Set("Content-Type", "application/json")

	if status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	records := s.snap.Records()
	sources := make([]SourceHealth, 0, len(records))
	for _, rec := range records {
		sh := SourceHealth{
			Source:    string(rec.Source),
			Label:     rec.Label,
			Kind:      string(rec.Kind),
			Status:    string(rec.Status),
			LatencyMs: rec.LastLatency.Milliseconds(),
		}
		if !rec.LastSeen.IsZero() {
			sh.LastSeen = rec.LastSeen.UTC().Format(time.RFC3339)
		}
		sources = append(sources, sh)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  Aggregate(records),
		"sources": sources,
	})
}
