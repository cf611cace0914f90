// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/JakeFAU/openwax/internal/api"
	"github.com/JakeFAU/openwax/internal/clock/system"
	"github.com/JakeFAU/openwax/internal/config"
	"github.com/JakeFAU/openwax/internal/i18n"
	"github.com/JakeFAU/openwax/internal/score"
	"github.com/JakeFAU/openwax/internal/storage/memory"
	"github.com/JakeFAU/openwax/internal/storage/postgres"
	"github.com/JakeFAU/openwax/internal/storage/sqlite"
	"github.com/JakeFAU/openwax/internal/web"
)

// App holds the shared, long-lived services: the logger, the score store and
// the HTTP server built on top of them. It is initialized once at startup.
type App struct {
	logger *zap.Logger
	store  score.Store
	server *api.Server
}

// New opens the configured store and wires the service and HTTP server around
// it. It fails fast if any service cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Initializing application services...")

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a, err := NewWithStore(cfg, store, logger)
	if err != nil {
		return nil, multierr.Append(err, store.Close())
	}
	logger.Info("Application services initialized successfully.")
	return a, nil
}

// NewWithStore builds the App around an already opened store. The App takes
// ownership of store and closes it in Close.
func NewWithStore(cfg config.Config, store score.Store, logger *zap.Logger) (*App, error) {
	if store == nil {
		return nil, fmt.Errorf("score store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize templates: %w", err)
	}
	locales, err := i18n.NewNegotiator(cfg.I18n.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize locales: %w", err)
	}
	svc := score.NewService(store, system.New(), logger.Named("score"))
	server := api.NewServer(svc, store, renderer, locales, cfg, logger.Named("api"))
	return &App{
		logger: logger,
		store:  store,
		server: server,
	}, nil
}

// OpenStore constructs the score store selected by store.driver.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (score.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := cfg.Store
	switch sc.Driver {
	case config.DriverPostgres:
		if sc.DSN == "" {
			return nil, fmt.Errorf("store driver is 'postgres' but store.dsn is not set")
		}
		logger.Info("Connecting to PostgreSQL...", zap.String("table", sc.Table))
		pg, err := postgres.NewScoreStore(ctx, postgres.Config{
			DSN:             sc.DSN,
			Table:           sc.Table,
			MaxConns:        sc.MaxConns,
			MinConns:        sc.MinConns,
			MaxConnLifetime: cfg.ConnLifetime(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to prepare postgres schema: %w", err), pg.Close())
		}
		return pg, nil
	case config.DriverSQLite:
		logger.Info("Opening SQLite store", zap.String("path", sc.DSN))
		lite, err := sqlite.NewScoreStore(ctx, sqlite.Config{Path: sc.DSN, Table: sc.Table})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		if err := lite.EnsureSchema(ctx); err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to prepare sqlite schema: %w", err), lite.Close())
		}
		return lite, nil
	case config.DriverMemory:
		logger.Info("Using in-memory store. Scores will be lost on exit.")
		return memory.NewScoreStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", sc.Driver)
	}
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Store exposes the score store the App owns.
func (a *App) Store() score.Store {
	return a.store
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Close releases the store. It is safe to call on a nil App.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	a.logger.Info("Shutting down application services...")
	var err error
	if a.store != nil {
		err = multierr.Append(err, a.store.Close())
	}
	return err
}
