package handlers

import (
	"context"
	"net/http"

	"assistantpro-backend/internal/models"
	"assistantpro-backend/internal/prompt"
	"assistantpro-backend/internal/services"
	"assistantpro-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ChatService defines the operations the chat handlers need.
type ChatService interface {
	SendMessage(ctx context.Context, in services.ChatInput) (*services.ChatResult, error)
	History(ctx context.Context, sessionID string, limit int) (string, []models.Turn, error)
	Clear(ctx context.Context, sessionID string) *services.ClearResult
	Stats(ctx context.Context) (*models.TranscriptStats, error)
	CheckStore(ctx context.Context) error
	Sessions() []models.SessionInfo
	Health() models.HealthResponse
}

// ChatHandlers handles the public chat endpoints.
type ChatHandlers struct {
	chatService ChatService
	logger      *zap.Logger
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService ChatService, logger *zap.Logger) *ChatHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandlers{
		chatService: chatService,
		logger:      logger.Named("ChatHandlers"),
	}
}

// HandleChat handles POST /v1/chat. The reply is a one-element array.
func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := services.ChatInput{
		SessionID:   req.SessionID,
		Message:     req.Message,
		Personality: req.Personality,
	}
	if req.Attachment != nil {
		in.Attachment = &services.Attachment{Filename: req.Attachment.Filename, Text: req.Attachment.Text}
	}

	result, err := h.chatService.SendMessage(r.Context(), in)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	// Clients index the reply as response[0].generated_text.
	httputil.RespondJSON(w, http.StatusOK, []models.ChatResponse{{
		GeneratedText: result.Reply,
		SessionID:     result.SessionID,
		UserName:      result.UserName,
		Personality:   result.Personality,
		Persisted:     result.Persisted,
	}})
}

// HandleHistory handles GET /v1/history/{sessionID}.
func (h *ChatHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultHistoryLimit, maxHistoryLimit)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	sessionID, turns, err := h.chatService.History(r.Context(), chi.URLParam(r, "sessionID"), limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.HistoryResponse{
		SessionID: sessionID,
		History:   turns,
		Count:     len(turns),
	})
}

// HandleClear handles POST /v1/clear.
func (h *ChatHandlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	var req models.ClearRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.chatService.Clear(r.Context(), req.SessionID)
	httputil.RespondJSON(w, http.StatusOK, models.ClearResponse{
		Status:          "cleared",
		SessionID:       result.SessionID,
		DatabaseCleared: result.DatabaseCleared,
		DeletedTurns:    result.DeletedTurns,
	})
}

// HandleHealth handles GET /health.
func (h *ChatHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.chatService.Health())
}

// HandlePersonalities handles GET /v1/personalities.
func (h *ChatHandlers) HandlePersonalities(w http.ResponseWriter, r *http.Request) {
	all := prompt.All()
	resp := make([]models.PersonalityResponse, 0, len(all))
	for _, p := range all {
		resp = append(resp, models.PersonalityResponse{Key: p.Key, Name: p.Name})
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}
