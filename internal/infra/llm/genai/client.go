package genai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yanqian/edusolve/internal/domain/inference"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// Client adapts go-openai to inference.Client.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient builds a client for model at baseURL.
func NewClient(apiKey, baseURL, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("generative api key cannot be empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &Client{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (c *Client) request(messages []inference.Message, params inference.Params, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Stream:      stream,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: role(msg.Role), Content: msg.Content})
	}
	return req
}

func (c *Client) Complete(ctx context.Context, messages []inference.Message, params inference.Params) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(messages, params, false))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) Stream(ctx context.Context, messages []inference.Message, params inference.Params) (inference.Stream, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(messages, params, true))
	if err != nil {
		return nil, err
	}
	return &deltaStream{stream: stream}, nil
}

type deltaStream struct {
	stream *openai.ChatCompletionStream
}

func (d *deltaStream) Recv() (string, error) {
	resp, err := d.stream.Recv()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, choice := range resp.Choices {
		b.WriteString(choice.Delta.Content)
	}
	return b.String(), nil
}

func (d *deltaStream) Close() error {
	d.stream.Close()
	return nil
}

func role(r inference.Role) string {
	switch r {
	case inference.RoleSystem:
		return openai.ChatMessageRoleSystem
	case inference.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

var _ inference.Client = (*Client)(nil)
