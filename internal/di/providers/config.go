package providers

import (
	"github.com/samber/do/v2"

	"github.com/echotab/echotab-server/internal/config"
	"github.com/echotab/echotab-server/internal/logger"
)

// ProvideConfig loads the application configuration.
func ProvideConfig(do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
	}), nil
}
