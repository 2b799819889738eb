package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/templatedir/templatedir-server/internal/logger"
	"github.com/templatedir/templatedir-server/internal/service"
)

const sessionCleanupInterval = time.Hour

// SessionCleanupJob deletes expired sessions: once at startup, then hourly.
type SessionCleanupJob struct {
	stop context.CancelFunc
	done chan struct{}
}

// Shutdown stops the job and waits for an in-flight sweep to return.
func (j *SessionCleanupJob) Shutdown() error {
	j.stop()
	<-j.done
	return nil
}

// ProvideSessionCleanupJob starts the expired-session sweep.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	auth := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, stop := context.WithCancel(context.Background())
	job := &SessionCleanupJob{stop: stop, done: make(chan struct{})}

	go func() {
		defer close(job.done)
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		for {
			switch n, err := auth.DeleteExpiredSessions(ctx); {
			case err != nil && ctx.Err() == nil:
				log.Warn("Expired session sweep failed", "error", err)
			case n > 0:
				log.Info("Expired sessions removed", "count", n)
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return job, nil
}
