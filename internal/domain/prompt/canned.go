package prompt

import "strings"

var cannedReplies = map[string]string{
	"hi":                "Hello! How can I assist you today?",
	"hello":             "Hi there! What do you need help with?",
	"how are you":       "I'm an AI assistant, but I'm here to help!",
	"what is your name": "I'm your AI assistant, here to help you with anything!",
	"i love you":        "That's great but I don't have feelings!",
	"bye":               "Goodbye! Have a great day!",
}

// Canned returns the fixed reply for small-talk prompts. Matching is exact after
// trimming surrounding whitespace and lower-casing.
func Canned(prompt string) (string, bool) {
	reply, ok := cannedReplies[strings.ToLower(strings.TrimSpace(prompt))]
	return reply, ok
}
