// Package providers contains dependency injection providers for the TemplateDir server.
package providers

import (
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/templatedir/templatedir-server/internal/config"
	"github.com/templatedir/templatedir-server/internal/logger"
	"github.com/templatedir/templatedir-server/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.Load(os.Args[1:])
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting TemplateDir Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.App.DataPath,
		"database_driver", cfg.Database.Driver,
	)

	return log, nil
}

// ProvideValidator provides the shared struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSlogLogger exposes the bare *slog.Logger for packages that take one.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	return do.MustInvoke[*logger.Logger](i).Logger, nil
}
