package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "   ", want: 0},
		{name: "single short word", text: "hi", want: 1},
		{name: "words dominate", text: "a b c d e", want: 5},
		{name: "runes dominate", text: "supercalifragilisticexpialidocious", want: 8},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Estimate(tt.text))
		})
	}
}

func TestTokenUsageAdd(t *testing.T) {
	var usage TokenUsage
	require.True(t, usage.IsZero())
	usage = usage.Add(10, 5).Add(3, 2)
	require.Equal(t, TokenUsage{PromptTokens: 13, CompletionTokens: 7, TotalTokens: 20}, usage)
}

func TestTiktokenCounterWarmFallsBackToEstimate(t *testing.T) {
	counter := NewTiktokenCounter("no-such-encoding", nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counter.Warm()
		}()
	}
	wg.Wait()

	require.False(t, counter.Warm())
	require.Equal(t, Estimate("a b c d e"), counter.Count("a b c d e"))
	require.Zero(t, counter.Count(""))
}
