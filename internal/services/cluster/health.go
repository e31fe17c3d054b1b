package cluster

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc realiza uma verificação de saúde e retorna erro se ela falhar.
type CheckFunc func(ctx context.Context) error

// HealthAggregator junta várias verificações num único endpoint HTTP.
type HealthAggregator struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

func NewHealthAggregator(timeout time.Duration) *HealthAggregator {
	return &HealthAggregator{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

func (h *HealthAggregator) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Handler responde 200 quando todas as verificações passam e 503 com os erros caso contrário.
func (h *HealthAggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		h.mu.RLock()
		failures := make(map[string]string)
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				failures[name] = err.Error()
			}
		}
		h.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(failures)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}
