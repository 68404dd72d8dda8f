package prompt

import (
	"encoding/json"
	"strings"
)

// ParseJSON decodes model output into v after removing a surrounding markdown code fence.
// There is no schema validation beyond what json.Unmarshal enforces on v.
func ParseJSON(text string, v any) error {
	return json.Unmarshal([]byte(stripFence(text)), v)
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}
