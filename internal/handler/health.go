package handler

import (
	"context"
	"net/http"
	"time"

	"paygate/internal/store"
)

type workerState interface {
	Running() bool
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Worker    string    `json:"worker"`
	Timestamp time.Time `json:"timestamp"`
}

func HealthHandler(db store.Pinger, worker workerState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:    "healthy",
			Database:  "connected",
			Worker:    "running",
			Timestamp: time.Now().UTC(),
		}
		status := http.StatusOK

		if err := db.Ping(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Database = "disconnected"
			status = http.StatusServiceUnavailable
		}
		if !worker.Running() {
			resp.Status = "unhealthy"
			resp.Worker = "stopped"
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, resp)
	}
}
