package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assistantpro-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *RESTStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRESTStore(server.URL+"/", "anon-key", time.Second, nil)
}

func assertAuthHeaders(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "anon-key", r.Header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
	assert.Equal(t, "/rest/v1/chat_history", r.URL.Path)
}

func TestAppendTurn(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuthHeaders(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var rows []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "s1", rows[0]["session_id"])
		assert.Nil(t, rows[0]["user_name"])
		assert.Equal(t, "casual", rows[0]["personality"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":7,"session_id":"s1","user_message":"hi","bot_reply":"hello","user_name":null,"personality":"casual","timestamp":"2026-03-14T09:30:00+00:00"}]`))
	})

	turn, err := s.AppendTurn(context.Background(), store.CreateTurnParams{
		SessionID:   "s1",
		UserMessage: "hi",
		BotReply:    "hello",
		Personality: "casual",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), turn.ID)
	assert.Equal(t, "", turn.UserName)
	assert.Equal(t, "casual", turn.Personality)
	assert.Equal(t, 2026, turn.Timestamp.Year())
}

func TestListTurns_ReturnsChronologicalOrder(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuthHeaders(t, r)
		q := r.URL.Query()
		assert.Equal(t, "eq.a b&c", q.Get("session_id"))
		assert.Equal(t, "timestamp.desc,id.desc", q.Get("order"))
		assert.Equal(t, "2", q.Get("limit"))

		w.Write([]byte(`[
			{"id":3,"session_id":"a b&c","user_message":"third","bot_reply":"r3","timestamp":"2026-03-14T09:33:00Z"},
			{"id":2,"session_id":"a b&c","user_message":"second","bot_reply":"r2","user_name":"Alex","timestamp":"2026-03-14T09:32:00Z"}
		]`))
	})

	turns, err := s.ListTurns(context.Background(), "a b&c", 2)
	require.NoError(t, err)

	require.Len(t, turns, 2)
	assert.Equal(t, "second", turns[0].UserMessage)
	assert.Equal(t, "Alex", turns[0].UserName)
	assert.Equal(t, "third", turns[1].UserMessage)
}

func TestListTurns_NonPositiveLimit(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	turns, err := s.ListTurns(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuthHeaders(t, r)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.s1", r.URL.Query().Get("session_id"))
		w.Write([]byte(`[{"id":1},{"id":2},{"id":3}]`))
	})

	deleted, err := s.DeleteSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestStats(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("select") {
		case "id":
			assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
			w.Header().Set("Content-Range", "0-0/5")
			w.Write([]byte(`[{"id":1}]`))
		case "session_id":
			w.Write([]byte(`[{"session_id":"a"},{"session_id":"b"},{"session_id":"a"}]`))
		default:
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
	})

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalMessages)
	assert.Equal(t, int64(2), stats.UniqueSessions)
}

func TestStats_PagesSessionIDs(t *testing.T) {
	pages := map[string]string{
		"0": `[{"session_id":"a"},{"session_id":"b"}]`,
		"2": `[{"session_id":"b"},{"session_id":"c"}]`,
		"4": `[{"session_id":"d"}]`,
	}
	var offsets []string
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("select") {
		case "id":
			w.Header().Set("Content-Range", "0-0/5")
			w.Write([]byte(`[{"id":1}]`))
		case "session_id":
			assert.Equal(t, "2", q.Get("limit"))
			assert.Equal(t, "id.asc", q.Get("order"))
			offsets = append(offsets, q.Get("offset"))
			w.Write([]byte(pages[q.Get("offset")]))
		}
	})
	s.pageSize = 2

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalMessages)
	assert.Equal(t, int64(4), stats.UniqueSessions)
	assert.Equal(t, []string{"0", "2", "4"}, offsets)
}

func TestPing_UnexpectedStatus(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid API key"}`))
	})

	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestParseContentRangeTotal(t *testing.T) {
	total, err := parseContentRangeTotal("*/0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	total, err = parseContentRangeTotal("0-24/3573")
	require.NoError(t, err)
	assert.Equal(t, int64(3573), total)

	_, err = parseContentRangeTotal("")
	assert.Error(t, err)
	_, err = parseContentRangeTotal("0-0/*")
	assert.Error(t, err)
}
