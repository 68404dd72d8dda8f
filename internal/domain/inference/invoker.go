package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	apperrors "github.com/yanqian/edusolve/pkg/errors"
)

// Config fixes the call shape and sampling parameters.
type Config struct {
	Stream          bool
	Temperature     float32
	TopP            float32
	StreamCharLimit int
}

// Invoker runs a single-prompt call against a Client.
type Invoker struct {
	cfg    Config
	client Client
	logger *slog.Logger
}

// NewInvoker constructs an Invoker.
func NewInvoker(cfg Config, client Client, logger *slog.Logger) *Invoker {
	return &Invoker{cfg: cfg, client: client, logger: logger.With("component", "inference.invoker")}
}

// Generate sends prompt as a single user message.
func (i *Invoker) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	messages := []Message{{Role: RoleUser, Content: prompt}}
	params := Params{MaxTokens: maxTokens, Temperature: i.cfg.Temperature, TopP: i.cfg.TopP}
	if !i.cfg.Stream {
		text, err := i.client.Complete(ctx, messages, params)
		if err != nil {
			return "", apperrors.Wrap(apperrors.CodeLLM, "inference request failed", err)
		}
		return strings.TrimSpace(text), nil
	}
	return i.collect(ctx, messages, params)
}

func (i *Invoker) collect(ctx context.Context, messages []Message, params Params) (string, error) {
	stream, err := i.client.Stream(ctx, messages, params)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeLLM, "inference stream request failed", err)
	}
	defer stream.Close()

	limit := i.cfg.StreamCharLimit
	var (
		builder strings.Builder
		chars   int
	)
	for {
		fragment, recvErr := stream.Recv()
		if recvErr != nil {
			if errors.Is(recvErr, io.EOF) {
				break
			}
			return "", apperrors.Wrap(apperrors.CodeLLM, "inference stream interrupted", recvErr)
		}
		builder.WriteString(fragment)
		chars += utf8.RuneCountInString(fragment)
		if limit > 0 && chars >= limit {
			i.logger.Debug("stream character cap reached", "limit", limit)
			break
		}
	}
	return capRunes(builder.String(), limit), nil
}

// InlineError renders err the way the legacy endpoints embedded failures in answers.
func InlineError(label string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("[Error during %s: %s]", label, err.Error())
}

func capRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}
