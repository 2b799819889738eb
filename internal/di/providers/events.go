package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/templatedir/templatedir-server/internal/logger"
	"github.com/templatedir/templatedir-server/internal/sse"
)

// shutdownTimeout bounds how long a component may take to drain on exit.
const shutdownTimeout = 30 * time.Second

// SSEManagerHandle owns the event manager's delivery loop.
type SSEManagerHandle struct {
	*sse.Manager
	stop context.CancelFunc
}

// Shutdown flushes queued events to connected streams, then stops the loop.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.stop()
	return err
}

// ProvideSSEManager starts the event manager that services publish to.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	ctx, stop := context.WithCancel(context.Background())
	manager := sse.NewManager(log.With("component", "sse"))
	manager.Start(ctx)

	return &SSEManagerHandle{Manager: manager, stop: stop}, nil
}
