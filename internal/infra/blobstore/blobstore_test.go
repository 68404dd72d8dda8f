package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"https://acct.r2.cloudflarestorage.com/bucket": "acct.r2.cloudflarestorage.com",
		"http://localhost:9000":                        "localhost:9000",
		" minio:9000 ":                                 "minio:9000",
		"":                                             "",
	}
	for in, want := range cases {
		require.Equal(t, want, sanitizeEndpoint(in), in)
	}
}

func TestConfigEnabled(t *testing.T) {
	require.False(t, Config{}.Enabled())
	require.False(t, Config{Endpoint: "localhost:9000"}.Enabled())
	require.True(t, Config{Endpoint: "localhost:9000", Bucket: "uploads"}.Enabled())
}

func TestMemoryStorageCopiesData(t *testing.T) {
	store := NewMemoryStorage()
	data := []byte("%PDF-1.4")
	key, err := store.Put(context.Background(), "uploads/u1/x/a.pdf", data, "application/pdf")
	require.NoError(t, err)
	data[0] = 'X'

	got, contentType, ok := store.Get(key)
	require.True(t, ok)
	require.Equal(t, "%PDF-1.4", string(got))
	require.Equal(t, "application/pdf", contentType)
}
