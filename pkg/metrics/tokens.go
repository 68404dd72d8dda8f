package metrics

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens the way the hosted models bill them.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter loads the BPE ranks lazily and falls back to Estimate when they are unavailable.
type TiktokenCounter struct {
	encoding string
	logger   *slog.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTiktokenCounter constructs a counter for the given encoding (cl100k_base when empty).
func NewTiktokenCounter(encoding string, logger *slog.Logger) *TiktokenCounter {
	if strings.TrimSpace(encoding) == "" {
		encoding = "cl100k_base"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TiktokenCounter{encoding: encoding, logger: logger.With("component", "metrics.tokens")}
}

// Warm loads the BPE ranks and reports whether exact counting is available.
// Count waits for a Warm in progress instead of loading twice.
func (c *TiktokenCounter) Warm() bool {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.logger.Warn("tiktoken encoding unavailable, estimating tokens", "encoding", c.encoding, "error", err)
			return
		}
		c.enc = enc
		c.logger.Debug("tiktoken encoding loaded", "encoding", c.encoding)
	})
	return c.enc != nil
}

// Count returns the token count of text.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if !c.Warm() {
		return Estimate(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Estimate approximates tokens as max(words, runes/4).
func Estimate(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	tokens := utf8.RuneCountInString(trimmed) / 4
	if tokens < words {
		tokens = words
	}
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

// EstimateCounter is a TokenCounter that never touches the network.
type EstimateCounter struct{}

// Count implements TokenCounter.
func (EstimateCounter) Count(text string) int { return Estimate(text) }

var (
	_ TokenCounter = (*TiktokenCounter)(nil)
	_ TokenCounter = EstimateCounter{}
)
