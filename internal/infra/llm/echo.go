package llm

import (
	"context"
	"io"
	"strings"

	"github.com/yanqian/edusolve/internal/domain/inference"
)

// EchoClient answers without external calls. It backs local runs without an API token.
type EchoClient struct{}

func (EchoClient) Complete(_ context.Context, messages []inference.Message, _ inference.Params) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}
	return "Answer: " + strings.TrimSpace(messages[len(messages)-1].Content), nil
}

func (e EchoClient) Stream(ctx context.Context, messages []inference.Message, params inference.Params) (inference.Stream, error) {
	text, _ := e.Complete(ctx, messages, params)
	return &onceStream{text: text}, nil
}

type onceStream struct {
	text string
	done bool
}

func (s *onceStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	s.done = true
	return s.text, nil
}

func (s *onceStream) Close() error { return nil }

var _ inference.Client = EchoClient{}
