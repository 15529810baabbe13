package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger reports whether a dependency is reachable. The cache store is the
// only hard dependency at readiness time; upstream feeds degrade gracefully.
type Pinger interface {
	Ping(ctx context.Context) error
}

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func Readiness(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status  string   `json:"status"`
			Failing []string `json:"failing,omitempty"`
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var failing []string
		for name, p := range deps {
			if err := p.Ping(ctx); err != nil {
				failing = append(failing, name)
			}
		}
		out := resp{Status: "ready"}
		w.Header().Set("Content-Type", "application/json")
		if len(failing) > 0 {
			out = resp{Status: "not_ready", Failing: failing}
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
