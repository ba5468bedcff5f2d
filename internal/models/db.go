package models

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one persisted exchange: the user's message and the assistant's reply.
// Rows are inserted once per completed exchange and never updated.
type Turn struct {
	ID          int64     `db:"id" json:"id"`
	SessionID   string    `db:"session_id" json:"session_id"`
	UserMessage string    `db:"user_message" json:"user_message"`
	BotReply    string    `db:"bot_reply" json:"bot_reply"`
	UserName    string    `db:"user_name" json:"user_name,omitempty"` // Denormalised copy of the extracted profile name
	Personality string    `db:"personality" json:"personality,omitempty"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
}

// TranscriptStats summarises the chat_history table.
type TranscriptStats struct {
	TotalMessages  int64 `json:"total_messages"`
	UniqueSessions int64 `json:"unique_sessions"`
}

// User represents an operator account in the database.
type User struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	DisplayName    string    `db:"display_name"`
	HashedPassword string    `db:"hashed_password"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
