package store

import (
	"context"
	"errors"

	"assistantpro-backend/internal/models"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = errors.New("record already exists")

// CreateTurnParams contains parameters for appending a turn.
// Fields are expected to be bounded by the caller before the call.
type CreateTurnParams struct {
	SessionID   string
	UserMessage string
	BotReply    string
	UserName    string // Empty means no name known yet
	Personality string
}

// TranscriptStore is the append-only log of conversation turns.
type TranscriptStore interface {
	// AppendTurn inserts one completed turn. Turns are never updated.
	AppendTurn(ctx context.Context, arg CreateTurnParams) (*models.Turn, error)
	// ListTurns returns the limit most recent turns of a session, oldest first.
	ListTurns(ctx context.Context, sessionID string, limit int) ([]models.Turn, error)
	// DeleteSession removes every turn of a session and reports how many were removed.
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
	Stats(ctx context.Context) (*models.TranscriptStats, error)
	Ping(ctx context.Context) error
}

// UserStore defines account operations used by authentication.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// Store is the full set of operations a backend may provide.
// The Supabase REST backend implements only TranscriptStore.
type Store interface {
	TranscriptStore
	UserStore
}
