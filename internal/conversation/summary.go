package conversation

import (
	"strings"

	"assistantpro-backend/internal/models"
)

const summaryFieldLength = 80

// GenerateSummary returns a short pipe-delimited digest of the last maxTurns
// turns, e.g. "User: hi | Assistant: hello". It only decorates the system
// prompt; nothing depends on its exact shape.
func GenerateSummary(history []models.Turn, maxTurns int) string {
	if maxTurns <= 0 || len(history) == 0 {
		return ""
	}
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	parts := make([]string, 0, 2*len(history))
	for _, turn := range history {
		if msg := oneLine(turn.UserMessage); msg != "" {
			parts = append(parts, "User: "+Truncate(msg, summaryFieldLength))
		}
		if reply := oneLine(turn.BotReply); reply != "" {
			parts = append(parts, "Assistant: "+Truncate(reply, summaryFieldLength))
		}
	}
	return strings.Join(parts, " | ")
}

// oneLine collapses whitespace runs (newlines included) to single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
