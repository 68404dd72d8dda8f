package prompt

import "unicode/utf8"

// DefaultContentLimit bounds document text injected into any outbound prompt.
const DefaultContentLimit = 4000

// Truncate keeps the first limit characters of text. It may cut mid-sentence.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
