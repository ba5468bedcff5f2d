// Package supabase implements the transcript store on top of the Supabase
// REST (PostgREST) API for deployments that only hold a project URL and key.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"assistantpro-backend/internal/models"
	"assistantpro-backend/internal/store"

	"go.uber.org/zap"
)

var _ store.TranscriptStore = (*RESTStore)(nil)

const (
	DefaultTimeout = 5 * time.Second
	table          = "chat_history"
	maxErrorBody   = 200
	// statsPageSize matches the default PostgREST max-rows on Supabase.
	statsPageSize  = 1000
)

// ErrUnexpectedStatus wraps non-2xx answers from PostgREST.
var ErrUnexpectedStatus = errors.New("supabase: unexpected status")

type RESTStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	pageSize   int
	logger     *zap.Logger
}

// NewRESTStore creates a store talking to {projectURL}/rest/v1. A zero timeout
// uses DefaultTimeout.
func NewRESTStore(projectURL, apiKey string, timeout time.Duration, logger *zap.Logger) *RESTStore {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RESTStore{
		baseURL:    strings.TrimRight(projectURL, "/") + "/rest/v1/" + table,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		pageSize:   statsPageSize,
		logger:     logger.Named("SupabaseStore"),
	}
}

type turnRow struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	UserMessage string    `json:"user_message"`
	BotReply    string    `json:"bot_reply"`
	UserName    *string   `json:"user_name"`
	Personality *string   `json:"personality"`
	Timestamp   time.Time `json:"timestamp"`
}

func (r turnRow) toModel() models.Turn {
	t := models.Turn{
		ID:          r.ID,
		SessionID:   r.SessionID,
		UserMessage: r.UserMessage,
		BotReply:    r.BotReply,
		Timestamp:   r.Timestamp,
	}
	if r.UserName != nil {
		t.UserName = *r.UserName
	}
	if r.Personality != nil {
		t.Personality = *r.Personality
	}
	return t
}

type insertRow struct {
	SessionID   string  `json:"session_id"`
	UserMessage string  `json:"user_message"`
	BotReply    string  `json:"bot_reply"`
	UserName    *string `json:"user_name"`
	Personality *string `json:"personality"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *RESTStore) AppendTurn(ctx context.Context, arg store.CreateTurnParams) (*models.Turn, error) {
	payload, err := json.Marshal([]insertRow{{
		SessionID:   arg.SessionID,
		UserMessage: arg.UserMessage,
		BotReply:    arg.BotReply,
		UserName:    nullable(arg.UserName),
		Personality: nullable(arg.Personality),
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn: %w", err)
	}

	body, _, err := s.do(ctx, http.MethodPost, nil, bytes.NewReader(payload), "return=representation")
	if err != nil {
		return nil, fmt.Errorf("error inserting turn: %w", err)
	}

	var rows []turnRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode inserted turn: %w", err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	turn := rows[0].toModel()
	return &turn, nil
}

func (s *RESTStore) ListTurns(ctx context.Context, sessionID string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("session_id", "eq."+sessionID)
	query.Set("order", "timestamp.desc,id.desc")
	query.Set("limit", strconv.Itoa(limit))

	body, _, err := s.do(ctx, http.MethodGet, query, nil, "")
	if err != nil {
		return nil, fmt.Errorf("error querying turns: %w", err)
	}

	var rows []turnRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode turns: %w", err)
	}

	// Rows arrive newest first; callers expect chronological order.
	turns := make([]models.Turn, len(rows))
	for i, row := range rows {
		turns[len(rows)-1-i] = row.toModel()
	}
	return turns, nil
}

func (s *RESTStore) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	query := url.Values{}
	query.Set("session_id", "eq."+sessionID)
	query.Set("select", "id")

	body, _, err := s.do(ctx, http.MethodDelete, query, nil, "return=representation")
	if err != nil {
		return 0, fmt.Errorf("error deleting session turns: %w", err)
	}

	var deleted []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &deleted); err != nil {
		return 0, fmt.Errorf("failed to decode deleted rows: %w", err)
	}
	s.logger.Info("session cleared", zap.String("session_id", sessionID), zap.Int("deleted", len(deleted)))
	return int64(len(deleted)), nil
}

func (s *RESTStore) Stats(ctx context.Context) (*models.TranscriptStats, error) {
	countQuery := url.Values{}
	countQuery.Set("select", "id")
	countQuery.Set("limit", "1")

	_, header, err := s.do(ctx, http.MethodGet, countQuery, nil, "count=exact")
	if err != nil {
		return nil, fmt.Errorf("error counting turns: %w", err)
	}
	total, err := parseContentRangeTotal(header.Get("Content-Range"))
	if err != nil {
		return nil, err
	}

	// PostgREST caps each response at its max-rows setting (1000 on Supabase
	// by default), so session ids are read in pages.
	unique := make(map[string]struct{})
	for offset := 0; int64(offset) < total; offset += s.pageSize {
		sessionQuery := url.Values{}
		sessionQuery.Set("select", "session_id")
		sessionQuery.Set("order", "id.asc")
		sessionQuery.Set("limit", strconv.Itoa(s.pageSize))
		sessionQuery.Set("offset", strconv.Itoa(offset))

		body, _, err := s.do(ctx, http.MethodGet, sessionQuery, nil, "")
		if err != nil {
			return nil, fmt.Errorf("error listing sessions: %w", err)
		}

		var rows []struct {
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode sessions: %w", err)
		}
		for _, row := range rows {
			unique[row.SessionID] = struct{}{}
		}
		if len(rows) < s.pageSize {
			break
		}
	}

	return &models.TranscriptStats{TotalMessages: total, UniqueSessions: int64(len(unique))}, nil
}

func (s *RESTStore) Ping(ctx context.Context) error {
	query := url.Values{}
	query.Set("select", "id")
	query.Set("limit", "1")

	if _, _, err := s.do(ctx, http.MethodGet, query, nil, ""); err != nil {
		return fmt.Errorf("supabase ping failed: %w", err)
	}
	return nil
}

func (s *RESTStore) do(ctx context.Context, method string, query url.Values, body io.Reader, prefer string) ([]byte, http.Header, error) {
	endpoint := s.baseURL
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := string(respBody)
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		s.logger.Error("request rejected",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("body", excerpt),
		)
		return nil, nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, excerpt)
	}

	return respBody, resp.Header, nil
}

// parseContentRangeTotal reads the total from headers like "0-0/42" or "*/0".
func parseContentRangeTotal(value string) (int64, error) {
	idx := strings.LastIndex(value, "/")
	if idx < 0 || idx == len(value)-1 {
		return 0, fmt.Errorf("supabase: missing count in Content-Range %q", value)
	}
	total, err := strconv.ParseInt(value[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("supabase: invalid count in Content-Range %q: %w", value, err)
	}
	return total, nil
}
