package prompt

import "sort"

// DefaultPersonality is used for empty or unknown personality keys.
const DefaultPersonality = "casual"

// Personality is a selectable assistant persona and the system template it
// hands to the conversation builder.
type Personality struct {
	Key      string
	Name     string
	Template string
}

const sharedContext = " The current date and time is {timestamp}. You are talking to {user_name}; " +
	"address them by name when you know it. Recent conversation: {summary}"

var personalities = map[string]Personality{
	"professional": {
		Key:  "professional",
		Name: "Professional",
		Template: "You are a highly professional AI assistant. Communicate in a formal, business-appropriate manner. " +
			"Be concise, accurate, and respectful. Focus on providing clear, actionable information." + sharedContext,
	},
	"casual": {
		Key:  "casual",
		Name: "Casual",
		Template: "You are a friendly, casual AI assistant. Be warm, conversational, and approachable. " +
			"Use a relaxed tone while remaining helpful and informative." + sharedContext,
	},
	"technical": {
		Key:  "technical",
		Name: "Technical Expert",
		Template: "You are a technical expert AI assistant. Provide detailed, precise technical explanations. " +
			"Use proper terminology, include code examples when relevant, and explain complex concepts clearly." + sharedContext,
	},
	"creative": {
		Key:  "creative",
		Name: "Creative",
		Template: "You are a creative, imaginative AI assistant. Think outside the box, provide innovative solutions, " +
			"and encourage creative thinking. Be enthusiastic and inspirational." + sharedContext,
	},
	"teacher": {
		Key:  "teacher",
		Name: "Teacher",
		Template: "You are a patient, educational AI assistant. Explain concepts clearly with examples and analogies. " +
			"Break down complex topics into digestible parts. Encourage learning and understanding." + sharedContext,
	},
}

// Lookup returns the personality for key, falling back to DefaultPersonality.
func Lookup(key string) Personality {
	if p, ok := personalities[key]; ok {
		return p
	}
	return personalities[DefaultPersonality]
}

// All returns every personality ordered by key.
func All() []Personality {
	all := make([]Personality, 0, len(personalities))
	for _, p := range personalities {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Key < all[j].Key })
	return all
}
