package handlers

import (
	"net/http"
	"time"

	"assistantpro-backend/internal/models"
	"assistantpro-backend/pkg/httputil"

	"go.uber.org/zap"
)

// HandleStats handles GET /v1/admin/stats.
func (h *ChatHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.chatService.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats unavailable", zap.Error(err))
		respondServiceError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.StatsResponse{
		TotalMessages:  stats.TotalMessages,
		UniqueSessions: stats.UniqueSessions,
		DatabaseStatus: "connected",
		Timestamp:      time.Now().UTC(),
	})
}

// HandleSessions handles GET /v1/admin/sessions.
func (h *ChatHandlers) HandleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.chatService.Sessions()
	httputil.RespondJSON(w, http.StatusOK, models.SessionsResponse{
		Sessions: sessions,
		Count:    len(sessions),
	})
}

// HandleTestStore handles GET /v1/admin/test-db.
func (h *ChatHandlers) HandleTestStore(w http.ResponseWriter, r *http.Request) {
	backend := h.chatService.Health().StoreBackend

	if err := h.chatService.CheckStore(r.Context()); err != nil {
		httputil.RespondJSON(w, http.StatusServiceUnavailable, models.StoreCheckResponse{
			Status:  "failed",
			Message: "Transcript store is unreachable",
			Backend: backend,
			Error:   err.Error(),
		})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.StoreCheckResponse{
		Status:  "connected",
		Message: "Transcript store is working",
		Backend: backend,
	})
}
