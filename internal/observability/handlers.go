package observability

import (
	"net/http"
	"net/http/pprof"

	"ironhaul/server/internal/rng"
)

// HTTPHandlerConfig selects the surfaces the server mux exposes.
type HTTPHandlerConfig struct {
	Probe       *Probe
	Record      *rng.Record
	Metrics     http.Handler // nil leaves the metrics path unregistered
	MetricsPath string
	Socket      http.HandlerFunc // nil when the process hosts no peers
	EnablePprof bool
}

// NewHTTPHandler builds the server mux: health and diagnostics always,
// plus the optional metrics, websocket, and pprof surfaces.
func NewHTTPHandler(cfg HTTPHandlerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.Handle("/diagnostics", DiagnosticsHandler(cfg.Probe, cfg.Record))

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, cfg.Metrics)
	}

	if cfg.Socket != nil {
		mux.HandleFunc("/ws", cfg.Socket)
	}

	if cfg.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return mux
}
