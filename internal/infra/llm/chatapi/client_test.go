package chatapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/edusolve/internal/domain/inference"
)

func TestAdapterStreamsDeltas(t *testing.T) {
	var got ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		_, _ = io.WriteString(w, ": keep-alive\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client, err := NewClient("hf-token", server.URL, time.Second)
	require.NoError(t, err)
	adapter := NewAdapter(client, "HuggingFaceH4/zephyr-7b-beta")

	stream, err := adapter.Stream(context.Background(), []inference.Message{{Role: inference.RoleUser, Content: "hi"}}, inference.Params{MaxTokens: 700, Temperature: 0.7, TopP: 0.9})
	require.NoError(t, err)
	defer stream.Close()

	var text string
	for {
		frag, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		text += frag
	}
	require.Equal(t, "Hello", text)
	require.True(t, got.Stream)
	require.Equal(t, 700, got.MaxTokens)
	require.InDelta(t, 0.9, got.TopP, 1e-6)
	require.Equal(t, "HuggingFaceH4/zephyr-7b-beta", got.Model)
}

func TestAdapterComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"  answer \n"}}]}`)
	}))
	defer server.Close()

	client, err := NewClient("k", server.URL, time.Second)
	require.NoError(t, err)
	out, err := NewAdapter(client, "m").Complete(context.Background(), nil, inference.Params{})
	require.NoError(t, err)
	require.Equal(t, "answer", out)
}

func TestClientSurfacesStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "model loading")
	}))
	defer server.Close()

	client, err := NewClient("k", server.URL, time.Second)
	require.NoError(t, err)
	_, err = client.CreateChatCompletionStream(context.Background(), ChatCompletionRequest{Model: "m"})
	require.ErrorContains(t, err, "status=503")
	_, err = client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	require.ErrorContains(t, err, "model loading")
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(" ", "", 0)
	require.Error(t, err)
}
