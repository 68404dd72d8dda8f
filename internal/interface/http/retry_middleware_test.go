package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/edusolve/internal/infra/config"
)

func TestWithRetryReplaysJSONBodies(t *testing.T) {
	attempts := 0
	var bodies []string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	handler := withRetry(inner, config.RetryConfig{Enabled: true, MaxAttempts: 3}, newTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/analyze-selection", strings.NewReader(`{"query":"explain"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
	require.Equal(t, 3, attempts)
	for _, body := range bodies {
		require.Equal(t, `{"query":"explain"}`, body)
	}
}

func TestWithRetrySkipsUploads(t *testing.T) {
	attempts := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})
	handler := withRetry(inner, config.RetryConfig{Enabled: true, MaxAttempts: 3, Exclude: []string{"/upload-pdf"}}, newTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload-pdf", strings.NewReader("x")))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/other", strings.NewReader("x"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, 2, attempts)
}

func TestWithRetryDoesNotReplayChatTurns(t *testing.T) {
	attempts := map[string]int{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts[r.URL.Path]++
		w.WriteHeader(http.StatusBadGateway)
	})
	handler := withRetry(inner, config.RetryConfig{Enabled: true, MaxAttempts: 3, Exclude: []string{"/generate", "/get-suggestions"}}, newTestLogger())

	for _, path := range []string{"/generate", "/get-suggestions"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"prompt":"hi"}`)))
		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.Equal(t, 1, attempts[path], path)
	}
}
