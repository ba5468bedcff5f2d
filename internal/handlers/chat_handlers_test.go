package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assistantpro-backend/internal/models"
	"assistantpro-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatService struct {
	lastInput  services.ChatInput
	lastLimit  int
	sendResult *services.ChatResult
	sendErr    error
	turns      []models.Turn
	historyErr error
	clear      *services.ClearResult
	stats      *models.TranscriptStats
	statsErr   error
	pingErr    error
	sessions   []models.SessionInfo
}

func (f *fakeChatService) SendMessage(_ context.Context, in services.ChatInput) (*services.ChatResult, error) {
	f.lastInput = in
	return f.sendResult, f.sendErr
}

func (f *fakeChatService) History(_ context.Context, sessionID string, limit int) (string, []models.Turn, error) {
	f.lastLimit = limit
	return services.NormalizeSessionID(sessionID), f.turns, f.historyErr
}

func (f *fakeChatService) Clear(context.Context, string) *services.ClearResult { return f.clear }

func (f *fakeChatService) Stats(context.Context) (*models.TranscriptStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeChatService) CheckStore(context.Context) error { return f.pingErr }

func (f *fakeChatService) Sessions() []models.SessionInfo { return f.sessions }

func (f *fakeChatService) Health() models.HealthResponse {
	return models.HealthResponse{Status: "healthy", StoreBackend: "postgres", Model: "m", APIConfigured: true}
}

func newChatRouter(svc ChatService) http.Handler {
	h := NewChatHandlers(svc, nil)
	r := chi.NewRouter()
	r.Post("/v1/chat", h.HandleChat)
	r.Get("/v1/history/{sessionID}", h.HandleHistory)
	r.Post("/v1/clear", h.HandleClear)
	r.Get("/health", h.HandleHealth)
	r.Get("/v1/personalities", h.HandlePersonalities)
	r.Get("/v1/admin/stats", h.HandleStats)
	r.Get("/v1/admin/sessions", h.HandleSessions)
	r.Get("/v1/admin/test-db", h.HandleTestStore)
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleChat_Success(t *testing.T) {
	svc := &fakeChatService{sendResult: &services.ChatResult{
		Reply: "Hi Alice", SessionID: "s1", UserName: "Alice", Personality: "casual", Persisted: true,
	}}
	rec := doRequest(t, newChatRouter(svc), http.MethodPost, "/v1/chat", models.ChatRequest{
		Message:    "hello",
		SessionID:  "s1",
		Attachment: &models.AttachmentPayload{Filename: "a.txt", Text: "body"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body []models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	resp := body[0]
	assert.Equal(t, "Hi Alice", resp.GeneratedText)
	assert.Equal(t, "Alice", resp.UserName)
	assert.True(t, resp.Persisted)

	require.NotNil(t, svc.lastInput.Attachment)
	assert.Equal(t, "a.txt", svc.lastInput.Attachment.Filename)
	assert.Equal(t, "hello", svc.lastInput.Message)
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	newChatRouter(&fakeChatService{}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrValidation, http.StatusBadRequest},
		{services.ErrNotConfigured, http.StatusInternalServerError},
		{services.ErrProviderTimeout, http.StatusGatewayTimeout},
		{services.ErrProviderUnavailable, http.StatusServiceUnavailable},
		{services.ErrStoreWrite, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			svc := &fakeChatService{sendErr: tc.err}
			rec := doRequest(t, newChatRouter(svc), http.MethodPost, "/v1/chat", models.ChatRequest{Message: "x"})
			assert.Equal(t, tc.code, rec.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandleHistory(t *testing.T) {
	svc := &fakeChatService{turns: []models.Turn{{ID: 1, SessionID: "s1", UserMessage: "a", BotReply: "b"}}}
	router := newChatRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/v1/history/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultHistoryLimit, svc.lastLimit)

	var resp models.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, 1, resp.Count)

	doRequest(t, router, http.MethodGet, "/v1/history/s1?limit=1000", nil)
	assert.Equal(t, maxHistoryLimit, svc.lastLimit)

	rec = doRequest(t, router, http.MethodGet, "/v1/history/s1?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.historyErr = services.ErrStoreUnavailable
	rec = doRequest(t, router, http.MethodGet, "/v1/history/s1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleClear(t *testing.T) {
	svc := &fakeChatService{clear: &services.ClearResult{SessionID: "s1", DatabaseCleared: false}}
	rec := doRequest(t, newChatRouter(svc), http.MethodPost, "/v1/clear", models.ClearRequest{SessionID: "s1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.ClearResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cleared", resp.Status)
	assert.False(t, resp.DatabaseCleared)
}

func TestHandleHealthAndPersonalities(t *testing.T) {
	router := newChatRouter(&fakeChatService{})

	rec := doRequest(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)

	rec = doRequest(t, router, http.MethodGet, "/v1/personalities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var personalities []models.PersonalityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &personalities))
	assert.NotEmpty(t, personalities)
}

func TestAdminHandlers(t *testing.T) {
	svc := &fakeChatService{
		stats:    &models.TranscriptStats{TotalMessages: 4, UniqueSessions: 2},
		sessions: []models.SessionInfo{{SessionID: "s1", LastActivity: time.Now()}},
	}
	router := newChatRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(4), stats.TotalMessages)
	assert.Equal(t, "connected", stats.DatabaseStatus)

	rec = doRequest(t, router, http.MethodGet, "/v1/admin/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions models.SessionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	assert.Equal(t, 1, sessions.Count)

	rec = doRequest(t, router, http.MethodGet, "/v1/admin/test-db", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	svc.pingErr = services.ErrStoreUnavailable
	rec = doRequest(t, router, http.MethodGet, "/v1/admin/test-db", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var check models.StoreCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.Equal(t, "failed", check.Status)
	assert.Equal(t, "postgres", check.Backend)

	svc.statsErr = services.ErrStoreUnavailable
	rec = doRequest(t, router, http.MethodGet, "/v1/admin/stats", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
