package genai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/edusolve/internal/domain/inference"
)

func TestCompleteSendsParams(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer gkey", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Mitochondria make ATP. "}}]}`)
	}))
	defer server.Close()

	client, err := NewClient("gkey", server.URL, "gemini-2.0-flash")
	require.NoError(t, err)
	out, err := client.Complete(context.Background(), []inference.Message{{Role: inference.RoleUser, Content: "what do mitochondria do?"}}, inference.Params{MaxTokens: 700, Temperature: 0.7, TopP: 0.9})
	require.NoError(t, err)
	require.Equal(t, "Mitochondria make ATP.", out)
	require.Equal(t, "gemini-2.0-flash", body["model"])
	require.EqualValues(t, 700, body["max_tokens"])
}

func TestStreamYieldsDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"AT\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"P\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client, err := NewClient("gkey", server.URL, "m")
	require.NoError(t, err)
	stream, err := client.Stream(context.Background(), []inference.Message{{Role: inference.RoleUser, Content: "x"}}, inference.Params{})
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
	require.Equal(t, "ATP", text)
}

func TestRoleMapping(t *testing.T) {
	require.Equal(t, "system", role(inference.RoleSystem))
	require.Equal(t, "assistant", role(inference.RoleAssistant))
	require.Equal(t, "user", role(inference.RoleUser))
}
