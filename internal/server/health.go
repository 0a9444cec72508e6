package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth pings every backend in use. A nil db or rdb means that
// backend is not part of this deployment and is skipped, not failed.
func handleHealth(logger *slog.Logger, db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK

		fail := func(name string, err error) {
			logger.Error("health check failed", "name", name, "error", err)
			resp.Checks[name] = "error"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}

		if db != nil {
			resp.Checks["sqlite"] = "ok"
			if err := db.PingContext(ctx); err != nil {
				fail("sqlite", err)
			}
		}
		if rdb != nil {
			resp.Checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				fail("redis", err)
			}
		}

		writeJSON(w, status, resp)
	}
}
