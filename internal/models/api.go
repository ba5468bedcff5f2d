package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Auth DTOs ---

// SignupRequest defines the structure for the signup request body.
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginRequest defines the structure for the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse defines the user information returned in API responses.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
}

// AuthResponse defines the structure for successful login responses.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines a standard error response structure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Chat DTOs ---

// AttachmentPayload is text previously returned by /v1/upload that the client
// sends back alongside a chat message.
type AttachmentPayload struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Message     string             `json:"message"`
	SessionID   string             `json:"session_id"`
	Personality string             `json:"personality"`
	Attachment  *AttachmentPayload `json:"attachment,omitempty"`
}

// ChatResponse is returned by POST /v1/chat.
type ChatResponse struct {
	GeneratedText string `json:"generated_text"`
	SessionID     string `json:"session_id"`
	UserName      string `json:"user_name,omitempty"`
	Personality   string `json:"personality"`
	Persisted     bool   `json:"persisted"`
}

// HistoryResponse is returned by GET /v1/history/{sessionID}.
type HistoryResponse struct {
	SessionID string `json:"session_id"`
	History   []Turn `json:"history"`
	Count     int    `json:"count"`
}

// ClearRequest is the body of POST /v1/clear.
type ClearRequest struct {
	SessionID string `json:"session_id"`
}

// ClearResponse reports the outcome of a session clear.
type ClearResponse struct {
	Status          string `json:"status"`
	SessionID       string `json:"session_id"`
	DatabaseCleared bool   `json:"database_cleared"`
	DeletedTurns    int64  `json:"deleted_turns"`
}

// UploadResponse is returned by POST /v1/upload.
type UploadResponse struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

// SessionInfo describes a session seen by this process since it started.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	Personality  string    `json:"personality"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// SessionsResponse is returned by GET /v1/admin/sessions.
type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
	Count    int           `json:"count"`
}

// StatsResponse is returned by GET /v1/admin/stats.
type StatsResponse struct {
	TotalMessages  int64     `json:"total_messages"`
	UniqueSessions int64     `json:"unique_sessions"`
	DatabaseStatus string    `json:"database_status"`
	Timestamp      time.Time `json:"timestamp"`
}

// StoreCheckResponse is returned by GET /v1/admin/test-db.
type StoreCheckResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Model          string    `json:"model"`
	APIConfigured  bool      `json:"api_configured"`
	StoreBackend   string    `json:"store_backend"`
	ActiveSessions int       `json:"active_sessions"`
}

// PersonalityResponse lists one selectable assistant personality.
type PersonalityResponse struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}
