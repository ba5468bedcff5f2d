package conversation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"assistantpro-backend/internal/models"
)

// maxIntroductionTokens caps how long an "i am ..." message may be before the
// rule stops treating it as an introduction ("I am Priya" vs "I am not sure
// what you mean by that ...").
const maxIntroductionTokens = 10

// nameRule is one name-extraction heuristic. The phrase is matched against the
// lower-cased message and applies, when set, must also hold for the rule to
// claim the message. extract receives the text that follows the phrase and
// returns a candidate name or "".
type nameRule struct {
	phrase  string
	applies func(message string) bool
	extract func(rest string) string
}

// nameRules are tried in order. The first rule that matches a message decides
// for that message, even if it yields no candidate.
var nameRules = []nameRule{
	{phrase: "my name is", extract: firstTokenAfter},
	{phrase: "i am", applies: isShortMessage, extract: soleTokenAfter},
	{phrase: "call me", extract: firstTokenAfter},
}

// ExtractProfile scans history oldest-first and returns the first name any
// rule produces. Once a name is found later turns are ignored, so a session's
// name stays stable for as long as the introducing turn is retained.
func ExtractProfile(history []models.Turn) UserProfile {
	profile := UserProfile{MessageCount: len(history)}

	for _, turn := range history {
		if name := extractName(turn.UserMessage); name != "" {
			profile.UserName = name
			break
		}
	}

	return profile
}

func extractName(message string) string {
	if strings.TrimSpace(message) == "" {
		return ""
	}
	lower := strings.ToLower(message)

	for _, rule := range nameRules {
		end := phraseEnd(lower, rule.phrase)
		if end < 0 {
			continue
		}
		if rule.applies != nil && !rule.applies(message) {
			continue
		}
		return rule.extract(remainderAfter(message, lower, end))
	}
	return ""
}

// phraseEnd returns the byte offset just past the first whole-word occurrence
// of phrase in lower, or -1.
func phraseEnd(lower, phrase string) int {
	offset := 0
	for {
		idx := strings.Index(lower[offset:], phrase)
		if idx < 0 {
			return -1
		}
		start := offset + idx
		end := start + len(phrase)
		if isWordBoundaryBefore(lower, start) && isWordBoundaryAfter(lower, end) {
			return end
		}
		offset = start + 1
	}
}

func isWordBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func isWordBoundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// remainderAfter maps an offset found in the lower-cased text back to the
// original so the extracted name keeps its casing. Lower-casing can change the
// byte length of some scripts; in that case the lower-cased text is used.
func remainderAfter(message, lower string, end int) string {
	if len(message) == len(lower) {
		return message[end:]
	}
	return lower[end:]
}

func firstTokenAfter(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return capitalizeName(fields[0])
}

func isShortMessage(message string) bool {
	return len(strings.Fields(message)) < maxIntroductionTokens
}

func soleTokenAfter(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return ""
	}
	return capitalizeName(fields[0])
}

// capitalizeName trims surrounding punctuation, upper-cases the first letter
// and leaves the rest of the token as the user typed it.
func capitalizeName(token string) string {
	token = strings.TrimFunc(token, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if token == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(token)
	name := string(unicode.ToUpper(first)) + token[size:]
	return Truncate(name, MaxUserNameLength)
}
