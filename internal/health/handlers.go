package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// notReady flips when shutdown starts so load balancers drain the instance.
var notReady atomic.Bool

// SetReady toggles the readiness gate.
func SetReady(ready bool) {
	notReady.Store(!ready)
}

// Checker probes the dependencies readiness reports on.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live always answers ok while the process runs.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready answers 503 while shutting down or when a dependency probe fails,
// reporting the per-dependency status either way.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if notReady.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}

	status := map[string]string{
		"db":    probe(h.Checker.PingDB, r.Context(), orDefault(h.DBTimeout, 500*time.Millisecond)),
		"redis": probe(h.Checker.PingRedis, r.Context(), orDefault(h.RedisTimeout, 300*time.Millisecond)),
	}
	code := http.StatusOK
	for _, s := range status {
		if s != "ok" {
			code = http.StatusServiceUnavailable
			break
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func probe(ping func(context.Context, time.Duration) error, ctx context.Context, timeout time.Duration) string {
	if err := ping(ctx, timeout); err != nil {
		return err.Error()
	}
	return "ok"
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
