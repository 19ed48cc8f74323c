package observability

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"ironhaul/server/internal/rng"
)

// Diagnostics is one published view of the simulation loop.
type Diagnostics struct {
	Tick               uint32  `json:"tick"`
	Date               string  `json:"date"`
	ObjectiveMonths    uint32  `json:"objectiveMonths"`
	AccumulatorSeconds float64 `json:"accumulatorSeconds"`
	TickDeltaMs        int64   `json:"tickDeltaMs"`
	Sessions           int     `json:"sessions"`
	Fingerprint        string  `json:"fingerprint,omitempty"`
}

// Probe hands loop snapshots to HTTP readers. The loop goroutine
// publishes after a pass; any goroutine may read the latest.
type Probe struct {
	mu   sync.RWMutex
	snap Diagnostics
}

// Publish stores d as the latest view. An empty fingerprint keeps the
// previous one, so the loop may refresh it at a slower cadence than
// it publishes the counters.
func (p *Probe) Publish(d Diagnostics) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if d.Fingerprint == "" {
		d.Fingerprint = p.snap.Fingerprint
	}
	p.snap = d
}

// Latest returns the most recently published view.
func (p *Probe) Latest() Diagnostics {
	if p == nil {
		return Diagnostics{}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// DiagnosticsHandler serves the latest probe snapshot plus the rng
// record window as JSON.
func DiagnosticsHandler(probe *Probe, record *rng.Record) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Diagnostics
			RngWindow []rng.Entry `json:"rngWindow,omitempty"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Diagnostics: probe.Latest(),
			RngWindow:   record.Entries(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
}
