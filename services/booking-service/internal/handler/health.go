package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/payload"
)

const healthPingTimeout = 2 * time.Second

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := payload.HealthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC(),
		Database:  "connected",
	}

	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := h.health.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("health check database ping failed")
			resp.Status = "DEGRADED"
			resp.Database = "disconnected"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
