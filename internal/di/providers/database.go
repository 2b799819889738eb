package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/templatedir/templatedir-server/internal/config"
	"github.com/templatedir/templatedir-server/internal/logger"
	"github.com/templatedir/templatedir-server/internal/store/sqlstore"
)

// StoreHandle closes the database when the container shuts down.
type StoreHandle struct {
	*sqlstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured database and applies the schema.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	attrs := []any{"driver", cfg.Database.Driver}
	if cfg.Database.Driver == sqlstore.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.URL), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		attrs = append(attrs, "path", cfg.Database.URL)
	}

	db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL, log.Logger)
	if err != nil {
		return nil, err
	}
	log.Info("Database ready", attrs...)

	return &StoreHandle{Store: db}, nil
}
