package conversation

import (
	"fmt"
	"strings"
	"time"

	"assistantpro-backend/internal/models"
)

// Placeholders recognised in system prompt templates.
const (
	PlaceholderTimestamp = "{timestamp}"
	PlaceholderUserName  = "{user_name}"
	PlaceholderSummary   = "{summary}"
)

const (
	// DefaultUserName stands in for {user_name} when no name is known.
	DefaultUserName = "there"
	// DefaultSummary stands in for {summary} when there is nothing to summarise.
	DefaultSummary = "No previous conversation."

	timestampLayout = "Monday, January 2, 2006 at 3:04 PM MST"
)

// BuildOptions carries the per-call knobs of BuildMessages.
type BuildOptions struct {
	// SystemTemplate is caller-owned text; only the known placeholders are touched.
	SystemTemplate string
	// HistoryWindow is the number of most recent turns (not messages) replayed.
	HistoryWindow int
	// CharBound truncates every replayed and current message.
	CharBound int
	// SummaryTurns feeds GenerateSummary for {summary}; 0 disables the digest.
	SummaryTurns int
	// Now is rendered into {timestamp}. Zero means time.Now().
	Now time.Time
}

func (o BuildOptions) validate() error {
	if o.HistoryWindow < 0 {
		return fmt.Errorf("%w: history window %d is negative", ErrInvalidOptions, o.HistoryWindow)
	}
	if o.CharBound <= 0 {
		return fmt.Errorf("%w: char bound %d must be positive", ErrInvalidOptions, o.CharBound)
	}
	if o.SummaryTurns < 0 {
		return fmt.Errorf("%w: summary turns %d is negative", ErrInvalidOptions, o.SummaryTurns)
	}
	return nil
}

// BuildMessages produces the exact ordered prompt: one system message, the last
// HistoryWindow turns as user/assistant pairs in chronological order, then the
// current message. Empty halves of a turn are skipped rather than sent blank.
//
// The current message is passed through as given (attachment text included);
// validating that it is non-empty is the caller's job. No cap on the total
// number of messages is applied here, see LimitOutbound.
func BuildMessages(profile UserProfile, history []models.Turn, current string, opts BuildOptions) ([]PromptMessage, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	window := history
	if len(window) > opts.HistoryWindow {
		window = window[len(window)-opts.HistoryWindow:]
	}

	summary := ""
	if opts.SummaryTurns > 0 {
		summary = GenerateSummary(history, opts.SummaryTurns)
	}

	messages := make([]PromptMessage, 0, 2+2*len(window))
	messages = append(messages, PromptMessage{
		Role:    RoleSystem,
		Content: RenderSystemPrompt(opts.SystemTemplate, profile, summary, opts.Now),
	})

	for _, turn := range window {
		if strings.TrimSpace(turn.UserMessage) != "" {
			messages = append(messages, PromptMessage{
				Role:    RoleUser,
				Content: Truncate(turn.UserMessage, opts.CharBound),
			})
		}
		if strings.TrimSpace(turn.BotReply) != "" {
			messages = append(messages, PromptMessage{
				Role:    RoleAssistant,
				Content: Truncate(turn.BotReply, opts.CharBound),
			})
		}
	}

	messages = append(messages, PromptMessage{
		Role:    RoleUser,
		Content: Truncate(current, opts.CharBound),
	})

	return messages, nil
}

// RenderSystemPrompt substitutes the known placeholders in template.
func RenderSystemPrompt(template string, profile UserProfile, summary string, now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	name := profile.UserName
	if name == "" {
		name = DefaultUserName
	}
	if strings.TrimSpace(summary) == "" {
		summary = DefaultSummary
	}

	r := strings.NewReplacer(
		PlaceholderTimestamp, now.Format(timestampLayout),
		PlaceholderUserName, name,
		PlaceholderSummary, summary,
	)
	return r.Replace(template)
}

// LimitOutbound is the final cut applied right before the provider call when
// the provider limits message count. The leading system message is always
// kept; the remaining slots go to the most recent messages. limit <= 0
// disables the cut.
func LimitOutbound(messages []PromptMessage, limit int) []PromptMessage {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	if messages[0].Role != RoleSystem {
		return messages[len(messages)-limit:]
	}
	if limit == 1 {
		return messages[:1]
	}
	limited := make([]PromptMessage, 0, limit)
	limited = append(limited, messages[0])
	return append(limited, messages[len(messages)-(limit-1):]...)
}
