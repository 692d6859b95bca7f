package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/portal/middlewares"
	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/db"
	"github.com/dmitrymomot/portal/pkg/logger"
	"github.com/dmitrymomot/portal/pkg/media"
	"github.com/dmitrymomot/portal/pkg/redis"
	"github.com/dmitrymomot/portal/pkg/store"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

// Store backends.
const (
	backendSQL    = "sql"
	backendMemory = "memory"
)

type config struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	BasePath     string        `env:"PORTAL_BASE_PATH"`
	ThemeDir     string        `env:"PORTAL_THEME_DIR" envDefault:"theme"`
	AssetsDir    string        `env:"PORTAL_ASSETS_DIR" envDefault:"assets"`
	RoutesFile   string        `env:"PORTAL_ROUTES_FILE"`
	Backend      string        `env:"PORTAL_STORE" envDefault:"sql"`
	Fixtures     string        `env:"PORTAL_FIXTURES"`
	UserHeader   string        `env:"PORTAL_USER_HEADER"`
	UserCookie   string        `env:"PORTAL_USER_COOKIE" envDefault:"portal_user"`
	CookieSecret string        `env:"PORTAL_COOKIE_SECRET"`
	TermCacheTTL time.Duration `env:"PORTAL_TERM_CACHE_TTL" envDefault:"5m"`

	Log   logger.Config
	DB    db.Config
	Redis redis.Config
	Media media.Config
}

func loadConfig() (config, error) {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return config{}, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config) *slog.Logger {
	return logger.New(cfg.Log, middlewares.RequestIDExtractor())
}

// site is what the bundled stores provide.
type site interface {
	content.Provider
	taxonomy.Store
	Seed(ctx context.Context, f store.Fixture) error
}

// backend is an opened store with its lifecycle hooks.
type backend struct {
	site  site
	check func(context.Context) error
	close func(context.Context) error
}

// openBackend opens the configured store. The SQL store is migrated first.
func openBackend(ctx context.Context, cfg config, log *slog.Logger) (backend, error) {
	switch cfg.Backend {
	case backendMemory:
		return backend{
			site:  store.NewMemory(),
			check: func(context.Context) error { return nil },
			close: func(context.Context) error { return nil },
		}, nil
	case backendSQL, "":
		conn, err := db.Open(ctx, cfg.DB)
		if err != nil {
			return backend{}, err
		}
		s := store.NewSQL(conn, cfg.DB.Driver)
		if err := s.Migrate(ctx, cfg.DB.MigrationsTable, log); err != nil {
			return backend{}, errors.Join(err, conn.Close())
		}
		return backend{site: s, check: db.Healthcheck(conn), close: db.Shutdown(conn)}, nil
	default:
		return backend{}, fmt.Errorf("unknown store %q", cfg.Backend)
	}
}

func seedFile(ctx context.Context, s site, path string) (store.Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return store.Fixture{}, err
	}
	defer f.Close()

	fx, err := store.LoadFixture(f)
	if err != nil {
		return store.Fixture{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := s.Seed(ctx, fx); err != nil {
		return store.Fixture{}, err
	}
	return fx, nil
}
