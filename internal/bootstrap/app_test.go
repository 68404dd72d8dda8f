package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/edusolve/internal/infra/config"
)

func TestResourcesCloseInReverseOrder(t *testing.T) {
	var order []string
	res := NewResources()
	res.Add("mongo", func(context.Context) error { order = append(order, "mongo"); return nil })
	res.Add("valkey", func(context.Context) error { order = append(order, "valkey"); return errors.New("boom") })
	res.Add("postgres", func(context.Context) error { order = append(order, "postgres"); return nil })

	err := res.Close(context.Background(), discardLogger())
	require.EqualError(t, err, "boom")
	require.Equal(t, []string{"postgres", "valkey", "mongo"}, order)

	require.NoError(t, res.Close(context.Background(), discardLogger()))
	require.Len(t, order, 3)
}

func TestAppRunShutsDownAndClosesResources(t *testing.T) {
	closed := make(chan struct{})
	res := NewResources()
	res.Add("store", func(context.Context) error { close(closed); return nil })

	cfg := &config.Config{HTTP: config.HTTPConfig{Address: "127.0.0.1:0"}}
	server := &http.Server{Addr: cfg.HTTP.Address, Handler: http.NotFoundHandler()}
	app := NewApp(cfg, discardLogger(), server, res)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	<-closed
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
