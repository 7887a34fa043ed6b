package handlers

import (
	"net/http"

	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	redis       *redis.Client
	engineReady func() bool
}

// NewHealthHandler wires readiness checks: Redis connectivity for job
// state and the queue, and engineReady for the loaded recognition model.
func NewHealthHandler(rdb *redis.Client, engineReady func() bool) *HealthHandler {
	return &HealthHandler{redis: rdb, engineReady: engineReady}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.engineReady != nil {
		if h.engineReady() {
			checks["engine"] = "ok"
		} else {
			checks["engine"] = "unhealthy: model not loaded"
		}
	}

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, map[string]interface{}{"status": statusStr(status), "checks": checks})
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}
