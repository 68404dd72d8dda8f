package chatapi

import (
	"context"
	"strings"

	"github.com/yanqian/edusolve/internal/domain/inference"
)

// Adapter exposes the HTTP client as an inference.Client for one model.
type Adapter struct {
	client *Client
	model  string
}

// NewAdapter binds client to model.
func NewAdapter(client *Client, model string) *Adapter {
	return &Adapter{client: client, model: model}
}

func (a *Adapter) request(messages []inference.Message, params inference.Params) ChatCompletionRequest {
	req := ChatCompletionRequest{
		Model:       a.model,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Messages:    make([]Message, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, Message{Role: string(msg.Role), Content: msg.Content})
	}
	return req
}

func (a *Adapter) Complete(ctx context.Context, messages []inference.Message, params inference.Params) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, a.request(messages, params))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (a *Adapter) Stream(ctx context.Context, messages []inference.Message, params inference.Params) (inference.Stream, error) {
	stream, err := a.client.CreateChatCompletionStream(ctx, a.request(messages, params))
	if err != nil {
		return nil, err
	}
	return &deltaStream{stream: stream}, nil
}

// deltaStream yields the content delta of each chunk.
type deltaStream struct {
	stream *ChatCompletionStream
}

func (d *deltaStream) Recv() (string, error) {
	chunk, err := d.stream.Recv()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, choice := range chunk.Choices {
		b.WriteString(choice.Delta.Content)
	}
	return b.String(), nil
}

func (d *deltaStream) Close() error {
	return d.stream.Close()
}

var _ inference.Client = (*Adapter)(nil)
