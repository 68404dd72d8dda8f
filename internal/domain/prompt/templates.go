package prompt

import (
	"fmt"
	"strings"
)

// Token ceilings per call site.
const (
	ChatMaxTokens        = 700
	EnrichmentMaxTokens  = 900
	SummaryMaxTokens     = 950
	TopicListMaxTokens   = 999
	TopicDetailMaxTokens = 800
	RealWorldMaxTokens   = 900
	SelectionMaxTokens   = 700
)

// SuggestionsHeading separates the direct answer from the study suggestions.
const SuggestionsHeading = "\n\n---\n\nAI Study Partner Suggestions:\n"

// Builder renders the instruction templates with a fixed content budget.
type Builder struct {
	ContentLimit int
}

// NewBuilder returns a Builder; a non-positive limit selects DefaultContentLimit.
func NewBuilder(contentLimit int) Builder {
	if contentLimit <= 0 {
		contentLimit = DefaultContentLimit
	}
	return Builder{ContentLimit: contentLimit}
}

// Chat passes the user's prompt through unchanged.
func (b Builder) Chat(prompt string) string {
	return prompt
}

// FocusedChat asks for a direct answer without digressions.
func (b Builder) FocusedChat(prompt string) string {
	return fmt.Sprintf(`Answer the following question directly and concisely. Stay on the exact topic asked and skip unrelated background.

Question: %s`, prompt)
}

// TopicEnrichment asks for a summary, follow-up prompts, a real-world comparison and an importance judgment.
func (b Builder) TopicEnrichment(prompt string) string {
	return fmt.Sprintf(`You are an AI assistant learning along with a student. Analyze this topic:
"%s"

1. Provide a concise summary.
2. Suggest 2-3 AI prompts students can try related to this topic.
3. Compare this topic with a real-world application or use case.
4. Mention if this is a very important concept and why.`, prompt)
}

// DocumentSummary applies the enrichment shape to extracted document text.
func (b Builder) DocumentSummary(content string) string {
	return fmt.Sprintf(`You are a smart AI reading this PDF with a student. Here is the content:
"%s"

Please do the following:
1. Summarize the content.
2. Highlight key topics and concepts.
3. Suggest real-world applications.
4. Provide 2-3 learning prompts for this PDF.`, b.content(content))
}

// TopicList requests a JSON array of the document's main topics.
func (b Builder) TopicList(content string) string {
	return fmt.Sprintf(`Read the following study material and list its main topics.
Respond only with a JSON array of short topic names, for example ["Topic A", "Topic B"].

Content:
"%s"`, b.content(content))
}

// TopicDetail requests the six-key structured breakdown of one topic.
func (b Builder) TopicDetail(topic, content string) string {
	return fmt.Sprintf(`For the topic "%s" in the study material below, respond only with a JSON object with exactly these keys:
"subtopics" (array of strings), "concepts" (array of strings), "applications" (array of strings),
"examples" (array of strings), "definitions" (object mapping term to definition),
"relationships" (array of strings describing how ideas connect).

Content:
"%s"`, topic, b.content(content))
}

// RealWorld requests problems, applications, a case study and projects for every topic in structured.
func (b Builder) RealWorld(structured string) string {
	return fmt.Sprintf(`You are helping a student connect study topics to the real world.
Given this structured outline:
%s

Respond only with a JSON object whose keys are the topic names. Each value must be an object with the keys
"problems" (array of strings), "applications" (array of strings), "case_study" (string) and "projects" (array of strings).`, b.content(structured))
}

// TopicSuggestions requests real-world suggestions for a single topic.
func (b Builder) TopicSuggestions(topic, context string) string {
	return fmt.Sprintf(`A student is studying the topic "%s".
Relevant material:
"%s"

Respond only with a JSON object with the keys "problems" (array of strings), "applications" (array of strings),
"case_study" (string) and "projects" (array of strings).`, topic, b.content(context))
}

// Selection shapes a prompt for highlighted text by sniffing the query for intent keywords.
func (b Builder) Selection(query, selected string) string {
	text := b.content(selected)
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "summarize"):
		return fmt.Sprintf("Summarize the following text in a few clear sentences for a student:\n\n%s", text)
	case strings.Contains(lower, "explain"):
		return fmt.Sprintf("Explain the following text in simple terms, with an example if helpful:\n\n%s", text)
	default:
		return fmt.Sprintf("%s\n\n%s", query, text)
	}
}

func (b Builder) content(text string) string {
	return Truncate(text, b.ContentLimit)
}
