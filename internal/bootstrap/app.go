package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/plant-care/internal/domain/auth"
	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/infra/config"
)

// ErrNoDatabase is returned by Migrate when no Postgres pool is configured.
var ErrNoDatabase = errors.New("postgres is not configured")

// Migrator applies pending schema migrations.
type Migrator interface {
	Run(ctx context.Context) (int, error)
}

// App encapsulates the HTTP server lifecycle and the services used by the CLI.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	plants   plant.Service
	auth     auth.Service
	migrator Migrator
}

// NewApp is used by Wire to build the runnable app. migrator is nil when the
// plant store is in memory.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, plants plant.Service, authSvc auth.Service, migrator Migrator) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		plants:   plants,
		auth:     authSvc,
		migrator: migrator,
	}
}

// Plants exposes the plant service for CLI commands.
func (a *App) Plants() plant.Service {
	return a.plants
}

// Auth exposes the token service for CLI commands.
func (a *App) Auth() auth.Service {
	return a.auth
}

// Migrate applies pending migrations and reports how many ran.
func (a *App) Migrate(ctx context.Context) (int, error) {
	if a.migrator == nil {
		return 0, ErrNoDatabase
	}
	return a.migrator.Run(ctx)
}

// Run applies pending migrations, starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if a.migrator != nil {
		if _, err := a.migrator.Run(ctx); err != nil {
			return err
		}
	}
	if !a.auth.Enabled() {
		a.logger.Warn("auth secret not set, requests run as the anonymous owner")
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
