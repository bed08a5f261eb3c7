package app

import (
	"encoding/json"
	"net/http"
	"time"

	"solana-sniper/internal/engine"
	"solana-sniper/internal/observability"
)

// staleAfter marks the loop unhealthy when no tick completed for this long.
const staleAfter = time.Minute

// StatsProvider exposes loop statistics.
type StatsProvider interface {
	Stats() engine.Stats
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status  string       `json:"status"`
	Uptime  string       `json:"uptime"`
	Started time.Time    `json:"started"`
	Engine  engine.Stats `json:"engine"`
}

type statusServer struct {
	stats   StatsProvider
	now     func() time.Time
	started time.Time
}

// NewStatusHandler serves /health, /metrics and /status.
func NewStatusHandler(stats StatsProvider, now func() time.Time) http.Handler {
	s := &statusServer{stats: stats, now: now, started: now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// status is "starting" before the first tick, "stale" when ticks stopped.
func (s *statusServer) status(st engine.Stats) string {
	switch {
	case st.LastTick.IsZero():
		return "starting"
	case s.now().Sub(st.LastTick) > staleAfter:
		return "stale"
	default:
		return "running"
	}
}

func (s *statusServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.status(s.stats.Stats()) == "stale" {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("stale"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *statusServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.stats.Stats()
	resp := StatusResponse{
		Status:  s.status(st),
		Uptime:  s.now().Sub(s.started).Round(time.Second).String(),
		Started: s.started,
		Engine:  st,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
