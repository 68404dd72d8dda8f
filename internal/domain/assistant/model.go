package assistant

import (
	"context"
	"time"

	"github.com/yanqian/edusolve/pkg/metrics"
)

// Config toggles legacy behaviors of the chat endpoint.
type Config struct {
	// InlineErrors folds inference failures into the answer text instead of failing the request.
	InlineErrors bool
	// LogCannedReplies records small-talk turns in the session history. Inference and usage are still skipped.
	LogCannedReplies bool
}

// Turn is one user/AI exchange.
type Turn struct {
	User      string    `json:"user"`
	AI        string    `json:"ai"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a chat transcript.
type Session struct {
	ID          string
	UserID      string
	History     []Turn
	CreatedAt   time.Time
	LastUpdated time.Time
}

// SessionSummary is the listing projection of a Session.
type SessionSummary struct {
	SessionID   string    `json:"session_id"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// SessionRepository persists chat transcripts.
type SessionRepository interface {
	Create(ctx context.Context, session Session) error
	// Append adds turn to an existing session and reports whether the session was found.
	// A non-empty owner only matches sessions of that user.
	Append(ctx context.Context, sessionID, owner string, turn Turn) (bool, error)
	// History returns the turns of a session. A non-empty owner only matches sessions of that user.
	History(ctx context.Context, sessionID, owner string) ([]Turn, bool, error)
	// List returns sessions owned by userID, or every session when userID is empty.
	List(ctx context.Context, userID string) ([]SessionSummary, error)
}

// Generator runs one prompt through the inference service.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// GenerateRequest is the chat payload.
type GenerateRequest struct {
	Prompt          string `json:"prompt"`
	UserID          string `json:"user_id"`
	SessionID       string `json:"session_id,omitempty"`
	FocusedResponse bool   `json:"focused_response,omitempty"`
	// Owner is the verified caller. When set, only that caller's sessions are extended.
	Owner string `json:"-"`
}

// Warning reports a degraded but successful response.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GenerateResponse is returned by the chat endpoint.
type GenerateResponse struct {
	Response   string              `json:"response"`
	SessionID  string              `json:"session_id,omitempty"`
	Warnings   []Warning           `json:"warnings,omitempty"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// SelectionRequest asks about a highlighted passage.
type SelectionRequest struct {
	SelectedText string `json:"selected_text"`
	Query        string `json:"query"`
}

// SelectionResponse carries the model's answer.
type SelectionResponse struct {
	Response string `json:"response"`
}
