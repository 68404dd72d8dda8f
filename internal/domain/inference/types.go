package inference

import "context"

// Role tags a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a chat request.
type Message struct {
	Role    Role
	Content string
}

// Params are the generation parameters sent with every call.
type Params struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Client is the hosted inference endpoint.
type Client interface {
	Complete(ctx context.Context, messages []Message, params Params) (string, error)
	Stream(ctx context.Context, messages []Message, params Params) (Stream, error)
}

// Stream yields text fragments until io.EOF.
type Stream interface {
	Recv() (string, error)
	Close() error
}
