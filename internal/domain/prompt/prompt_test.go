package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestCanned(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{name: "padded upper case", in: "  HI  ", want: "Hello! How can I assist you today?", found: true},
		{name: "multi word", in: "What Is Your Name", want: "I'm your AI assistant, here to help you with anything!", found: true},
		{name: "punctuation is not stripped", in: "hi!", found: false},
		{name: "prefix does not match", in: "hello world", found: false},
		{name: "empty", in: "   ", found: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Canned(tt.in)
			require.Equal(t, tt.found, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", DefaultContentLimit+250)
	require.Equal(t, DefaultContentLimit, utf8.RuneCountInString(Truncate(long, DefaultContentLimit)))
	require.Equal(t, "short", Truncate("short", DefaultContentLimit))
	require.Equal(t, "héé", Truncate("héééé", 3))
	require.Equal(t, "keep", Truncate("keep", 0))
}

func TestBuilderTruncatesDocumentContent(t *testing.T) {
	b := NewBuilder(0)
	content := strings.Repeat("a", DefaultContentLimit) + "TAIL"

	for name, rendered := range map[string]string{
		"summary":     b.DocumentSummary(content),
		"topic list":  b.TopicList(content),
		"topic":       b.TopicDetail("Cells", content),
		"suggestions": b.TopicSuggestions("Cells", content),
		"selection":   b.Selection("explain", content),
	} {
		require.Contains(t, rendered, strings.Repeat("a", DefaultContentLimit), name)
		require.NotContains(t, rendered, "TAIL", name)
	}
}

func TestBuilderSelectionKeywordSniffing(t *testing.T) {
	b := NewBuilder(100)
	require.True(t, strings.HasPrefix(b.Selection("Please SUMMARIZE this", "text"), "Summarize the following text"))
	require.True(t, strings.HasPrefix(b.Selection("can you explain?", "text"), "Explain the following text"))
	require.Equal(t, "translate to French\n\ntext", b.Selection("translate to French", "text"))
}

func TestBuilderTopicEnrichmentEmbedsPrompt(t *testing.T) {
	got := NewBuilder(0).TopicEnrichment("photosynthesis")
	require.Contains(t, got, `"photosynthesis"`)
	require.Contains(t, got, "Suggest 2-3 AI prompts")
}

func TestParseJSON(t *testing.T) {
	var topics []string
	require.NoError(t, ParseJSON("```json\n[\"Cells\", \"Energy\"]\n```", &topics))
	require.Equal(t, []string{"Cells", "Energy"}, topics)

	var obj map[string]any
	require.NoError(t, ParseJSON(` {"a": 1} `, &obj))
	require.Equal(t, float64(1), obj["a"])

	require.Error(t, ParseJSON("Here are the topics: Cells, Energy", &topics))
}
