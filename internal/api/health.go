package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// health is a liveness probe for Docker/Kubernetes. Always 200.
func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness reports whether the server can reach its database. Returns 503
// when the pool is unset or unreachable.
func readiness(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no database"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unreachable"})
			return
		}

		stats := pool.Stat()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"pool_total":        stats.TotalConns(),
			"pool_idle":         stats.IdleConns(),
			"pool_acquired":     stats.AcquiredConns(),
			"pool_max":          stats.MaxConns(),
			"pool_acquire_wait": stats.EmptyAcquireCount(),
		})
	})
}
