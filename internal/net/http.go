package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"
)

// HTTPConfig carries the handler's collaborators.
type HTTPConfig struct {
	Logger *log.Logger
}

// NewHTTPHandler wires the full HTTP surface: health probe, join
// handshake, diagnostics and the websocket endpoint.
func NewHTTPHandler(hub *Hub, cfg HTTPConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			nethttp.Error(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		if r.Body != nil {
			defer r.Body.Close()
			json.NewDecoder(r.Body).Decode(&req)
		}
		join, ok := hub.Join(req.Name)
		if !ok {
			nethttp.Error(w, "arena unavailable", nethttp.StatusServiceUnavailable)
			return
		}
		data, err := json.Marshal(join)
		if err != nil {
			nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Tick       uint64 `json:"tick"`
			Players    any    `json:"players"`
			TickRate   int    `json:"tickRate"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       hub.Snapshot().Tick,
			Players:    hub.DiagnosticsSnapshot(),
			TickRate:   hub.config.TickRate,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.Handle("/ws", NewWSHandler(hub, logger))

	return mux
}
