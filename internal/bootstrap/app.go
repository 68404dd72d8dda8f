package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/yanqian/edusolve/internal/infra/config"
)

// Resources collects process-scoped clients that must be released on shutdown.
type Resources struct {
	mu      sync.Mutex
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// NewResources returns an empty registry.
func NewResources() *Resources {
	return &Resources{}
}

// Add registers fn to run at shutdown. Closers run in reverse registration order.
func (r *Resources) Add(name string, fn func(context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, closer{name: name, fn: fn})
}

// Close runs every registered closer and joins their errors.
func (r *Resources) Close(ctx context.Context, logger *slog.Logger) error {
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(ctx); err != nil {
			logger.Error("resource close failed", "resource", c.name, "error", err)
			errs = append(errs, err)
			continue
		}
		logger.Info("resource closed", "resource", c.name)
	}
	return errors.Join(errs...)
}

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	resources *Resources
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, resources *Resources) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, resources: resources}
}

// Run starts the HTTP server and blocks until shutdown, then releases resources.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		runErr = a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.resources.Close(closeCtx, a.logger); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
