// Command app serves the EduSolve study assistant: chat, document analysis and accounts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanqian/edusolve/pkg/logger"
)

func main() {
	log := logger.New().With("service", "edusolve")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error("edusolve exited with error", "error", err)
		stop()
		os.Exit(1)
	}
	log.Info("edusolve stopped")
}

func run(ctx context.Context) error {
	app, err := initializeApp()
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
