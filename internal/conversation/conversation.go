// Package conversation turns a session's stored transcript into the ordered,
// bounded message list sent to the completion provider, and derives the small
// user profile (currently a display name) that is persisted alongside each turn.
//
// Everything in this package is a pure function of its arguments: no I/O, no
// configuration lookups, no shared mutable state. It is safe to call from any
// number of request goroutines at once.
package conversation

import (
	"errors"
	"unicode/utf8"
)

// Role tags a PromptMessage for the completion provider.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Storage bounds for a single turn, in characters (code points).
const (
	MaxSessionIDLength   = 50
	MaxUserMessageLength = 1000
	MaxBotReplyLength    = 2000
	MaxUserNameLength    = 50
)

// ErrInvalidOptions is returned when the builder is called with impossible
// window or bound values. It signals a programming error, not a runtime one.
var ErrInvalidOptions = errors.New("invalid conversation builder options")

// PromptMessage is one role-tagged entry of the outbound prompt.
type PromptMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserProfile is derived from the transcript on every request; it is never
// stored as its own entity.
type UserProfile struct {
	UserName     string // empty when no name has been discovered
	MessageCount int
}

// HasName reports whether a display name was extracted.
func (p UserProfile) HasName() bool {
	return p.UserName != ""
}

// Truncate cuts s to at most n characters without splitting a multi-byte rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
