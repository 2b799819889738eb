// Command api serves the TemplateDir HTTP API and the legacy endpoints.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/templatedir/templatedir-server/internal/di"
	"github.com/templatedir/templatedir-server/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "templatedir: %v\n", err)
		return 1
	}
	log := do.MustInvoke[*logger.Logger](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Signal received, shutting down")

	// Services are torn down in reverse dependency order: the listener
	// stops before the store and search index close.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown incomplete", "error", err)
		return 1
	}
	log.Info("Server stopped")
	return 0
}
