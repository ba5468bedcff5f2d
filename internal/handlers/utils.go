package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"assistantpro-backend/internal/services"
	"assistantpro-backend/pkg/httputil"

	"go.uber.org/zap"
)

// respondServiceError maps chat and upload service errors to HTTP statuses.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error()) // 400
	case errors.Is(err, services.ErrUnsupportedFileType):
		httputil.RespondError(w, http.StatusUnsupportedMediaType, err.Error()) // 415
	case errors.Is(err, services.ErrFileTooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error()) // 413
	case errors.Is(err, services.ErrInvalidEncoding), errors.Is(err, services.ErrEmptyFile):
		httputil.RespondError(w, http.StatusBadRequest, err.Error()) // 400
	case errors.Is(err, services.ErrNotConfigured):
		httputil.RespondError(w, http.StatusInternalServerError, "Chat is not configured on this server") // 500
	case errors.Is(err, services.ErrProviderTimeout):
		httputil.RespondError(w, http.StatusGatewayTimeout, "The assistant took too long to respond, please try again") // 504
	case errors.Is(err, services.ErrProviderUnavailable):
		httputil.RespondError(w, http.StatusServiceUnavailable, "The assistant is temporarily unavailable") // 503
	case errors.Is(err, services.ErrStoreUnavailable):
		httputil.RespondError(w, http.StatusServiceUnavailable, "Conversation storage is unavailable") // 503
	case errors.Is(err, services.ErrStoreWrite):
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to save the conversation") // 500
	default:
		logger.Error("unhandled service error", zap.Error(err))
		httputil.RespondError(w, http.StatusInternalServerError, "Internal server error") // 500
	}
}

// queryInt parses an optional positive integer query parameter bounded by max.
func queryInt(r *http.Request, key string, fallback, max int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false
	}
	if value > max {
		value = max
	}
	return value, true
}
