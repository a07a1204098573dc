// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package adminhttp implements the optional admin HTTP surface: a
// liveness probe, a prometheus scrape endpoint, and a JSON snapshot of
// the last cycle's per-curator summary. It is deliberately thin — the
// cleanup cycle engine runs independently of whether this server exists.
package adminhttp

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// CycleSummary is one curator's outcome from its most recent cycle.
type CycleSummary struct {
	Curator   string    `json:"curator"`
	QueueSize int       `json:"queueSize"`
	JobsRun   int       `json:"jobsRun"`
	RanAt     time.Time `json:"ranAt"`
}

// SummaryStore is a tiny in-memory cache of the latest CycleSummary per
// curator, updated by the scheduler and read by the status endpoint.
type SummaryStore struct {
	mu    sync.RWMutex
	byName map[string]CycleSummary
}

// NewSummaryStore constructs an empty SummaryStore.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{byName: make(map[string]CycleSummary)}
}

// Record stores the latest summary for a curator, overwriting any prior one.
func (s *SummaryStore) Record(summary CycleSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byName[summary.Curator] = summary
}

// Snapshot returns every recorded summary, most-recently-updated curator
// name order is not guaranteed.
func (s *SummaryStore) Snapshot() []CycleSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CycleSummary, 0, len(s.byName))
	for _, v := range s.byName {
		out = append(out, v)
	}
	return out
}

// NewRouter builds the admin HTTP router: request-ID and panic-recovery
// middleware, CORS, and three routes: /healthz, /metrics, and
// /api/v1/status.
func NewRouter(registry *prometheus.Registry, summaries *SummaryStore, allowedOrigins []string, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Get("/api/v1/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summaries.Snapshot())
	})

	return r
}

// requestLogger logs each request at debug level.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("adminhttp: request")
		})
	}
}
