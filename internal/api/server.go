// Package api serves a read-only HTTP view of a running simulation. Every
// response is built from the latest published snapshot; the live world
// state is never touched from a request goroutine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/civ-world/internal/engine"
	"github.com/talgya/civ-world/internal/social"
)

// SnapshotSource provides the most recent snapshot. engine.Simulation
// implements it.
type SnapshotSource interface {
	Latest() *engine.Snapshot
}

// Event limits for /api/v1/events.
const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// Server serves the world view over HTTP.
type Server struct {
	Source  SnapshotSource
	Addr    string
	Limiter *RateLimiter // nil disables rate limiting

	srv      *http.Server
	done     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a server rate limited to rps requests per second per client.
func NewServer(src SnapshotSource, addr string, rps float64) *Server {
	return &Server{
		Source:  src,
		Addr:    addr,
		Limiter: NewRateLimiter(rps, int(rps)*2),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/civilizations", s.handleCivilizations)
	mux.HandleFunc("GET /api/v1/civilizations/{id}", s.handleCivilization)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/disasters", s.handleDisasters)

	var h http.Handler = mux
	if s.Limiter != nil {
		h = s.Limiter.Middleware(h)
	}
	return corsMiddleware(h)
}

// Start begins serving in a goroutine. It returns once the listener is
// configured; serve errors are logged.
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	s.done = make(chan struct{})
	if s.Limiter != nil {
		go func() {
			t := time.NewTicker(time.Minute)
			defer t.Stop()
			for {
				select {
				case <-s.done:
					return
				case <-t.C:
					s.Limiter.Cleanup()
					slog.Debug("rate limiter cleanup", "clients", s.Limiter.Clients())
				}
			}
		}()
	}
}

// Shutdown stops the server gracefully. Calls after the first are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		err = s.srv.Shutdown(ctx)
	})
	return err
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set
// CIVSIM_CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CIVSIM_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusResponse struct {
	RunID         string         `json:"run_id"`
	Seed          int64          `json:"seed"`
	Turn          uint64         `json:"turn"`
	Season        string         `json:"season"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	Civilizations int            `json:"civilizations"`
	Events        int            `json:"events"`
	Disasters     int            `json:"disasters"`
	Strongest     string         `json:"strongest,omitempty"`
	Weakest       string         `json:"weakest,omitempty"`
	PowerRatio    float64        `json:"power_ratio"`
	Terrain       map[string]int `json:"terrain"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Source.Latest()
	power := snap.Power()

	writeJSON(w, statusResponse{
		RunID:         snap.RunID,
		Seed:          snap.Seed,
		Turn:          snap.Turn,
		Season:        engine.SeasonName(snap.Turn),
		Width:         snap.Width,
		Height:        snap.Height,
		Civilizations: len(snap.Civilizations),
		Events:        len(snap.Events),
		Disasters:     len(snap.Disasters),
		Strongest:     power.Strongest,
		Weakest:       power.Weakest,
		PowerRatio:    power.Ratio,
		Terrain:       snap.TerrainCounts,
	})
}

type civilizationSummary struct {
	social.Civilization
	Score float64 `json:"score"`
}

func (s *Server) handleCivilizations(w http.ResponseWriter, r *http.Request) {
	snap := s.Source.Latest()
	out := make([]civilizationSummary, len(snap.Civilizations))
	for i, c := range snap.Civilizations {
		out[i] = civilizationSummary{Civilization: c, Score: c.PowerScore()}
	}
	writeJSON(w, out)
}

func (s *Server) handleCivilization(w http.ResponseWriter, r *http.Request) {
	snap := s.Source.Latest()
	c, ok := snap.Civilization(r.PathValue("id"))
	if !ok {
		http.Error(w, "civilization not found", http.StatusNotFound)
		return
	}
	writeJSON(w, civilizationSummary{Civilization: c, Score: c.PowerScore()})
}

// handleEvents returns the newest events, oldest first. Optional filters:
// since (turn), type and limit.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultEventLimit
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxEventLimit {
			limit = n
		}
	}
	since, ok := parseTurn(w, q.Get("since"))
	if !ok {
		return
	}

	snap := s.Source.Latest()
	events := snap.Events
	if q.Has("since") {
		events = snap.EventsSince(since)
	}

	if typ := q.Get("type"); typ != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Type == typ {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, nonNil(events[start:]))
}

// handleDisasters returns the disasters after ?since=T, or all of them.
func (s *Server) handleDisasters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	since, ok := parseTurn(w, q.Get("since"))
	if !ok {
		return
	}
	snap := s.Source.Latest()
	disasters := snap.Disasters
	if q.Has("since") {
		disasters = snap.DisastersSince(since)
	}
	writeJSON(w, nonNil(disasters))
}

func parseTurn(w http.ResponseWriter, v string) (uint64, bool) {
	if v == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		http.Error(w, "since must be a non-negative turn number", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}
