package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/portal"
	"github.com/dmitrymomot/portal/middlewares"
	"github.com/dmitrymomot/portal/pkg/cache"
	"github.com/dmitrymomot/portal/pkg/cookie"
	"github.com/dmitrymomot/portal/pkg/media"
	"github.com/dmitrymomot/portal/pkg/redis"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
	serveCmd.Flags().String("theme", "", "Theme directory (overrides PORTAL_THEME_DIR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}
	if dir, _ := cmd.Flags().GetString("theme"); dir != "" {
		cfg.ThemeDir = dir
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := newLogger(cfg)

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	closers := []func(context.Context) error{b.close}
	fail := func(err error) error {
		return closeAll(ctx, closers, err)
	}

	if cfg.Fixtures != "" {
		if _, err := seedFile(ctx, b.site, cfg.Fixtures); err != nil {
			return fail(fmt.Errorf("seeding store: %w", err))
		}
	}

	checks := []portal.HealthOption{portal.WithReadinessCheck("store", b.check)}
	terms, hooks, termChecks, err := termStore(ctx, cfg, b.site, log)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, hooks...)
	checks = append(checks, termChecks...)

	themeFS := os.DirFS(cfg.ThemeDir)
	theme, err := portal.LoadTheme(themeFS)
	if err != nil {
		return fail(fmt.Errorf("loading theme: %w", err))
	}
	routes := portal.NewRoutes(theme)
	if cfg.RoutesFile != "" {
		if err := loadRoutes(routes, cfg.RoutesFile); err != nil {
			return fail(err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []portal.Option{
		portal.WithCustomLogger(log.With("component", "portal")),
		portal.WithTheme(theme),
		portal.WithRoutes(routes),
		portal.WithBasePath(cfg.BasePath),
		portal.WithMetrics(reg),
		portal.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(middlewares.WithRecoverLogger(log)),
			middlewares.Timeout(cfg.RequestTimeout),
		),
	}
	users, err := userResolver(cfg)
	if err != nil {
		return fail(err)
	}
	if users != nil {
		opts = append(opts, portal.WithUserResolver(users))
	}
	if _, err := os.Stat(cfg.ThemeDir + "/" + cfg.AssetsDir); err == nil {
		opts = append(opts, portal.WithStaticFiles("/"+cfg.AssetsDir+"/", themeFS, cfg.AssetsDir))
	}
	if cfg.Media.Bucket != "" {
		m, err := media.New(cfg.Media)
		if err != nil {
			return fail(fmt.Errorf("configuring media: %w", err))
		}
		opts = append(opts, portal.WithMedia(m))
		checks = append(checks, portal.WithReadinessCheck("media", m.Healthcheck()))
	}
	opts = append(opts, portal.WithHealthChecks(checks...))

	p := portal.New(b.site, terms, opts...)
	log.InfoContext(ctx, "portal configured",
		slog.String("theme", cfg.ThemeDir),
		slog.String("store", cfg.Backend),
		slog.Int("routes", routes.Len()),
	)

	runOpts := []portal.RunOption{
		portal.Logger(log),
		portal.ShutdownTimeout(cfg.ShutdownTimeout),
		portal.WithContext(ctx),
	}
	for _, c := range closers {
		runOpts = append(runOpts, portal.ShutdownHook(c))
	}
	return p.Run(cfg.Addr, runOpts...)
}

// closeAll runs closers last to first and joins their errors with err.
func closeAll(ctx context.Context, closers []func(context.Context) error, err error) error {
	errs := []error{err}
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i](ctx))
	}
	return errors.Join(errs...)
}

// termStore puts a shared cache in front of the term lookups: Redis when
// REDIS_URL is set, in-process otherwise.
func termStore(ctx context.Context, cfg config, next taxonomy.Store, log *slog.Logger) (taxonomy.Store, []func(context.Context) error, []portal.HealthOption, error) {
	if cfg.TermCacheTTL <= 0 {
		return next, nil, nil, nil
	}
	if cfg.Redis.URL == "" {
		c := cache.NewMemory[[]taxonomy.Term](cache.WithTTL(cfg.TermCacheTTL))
		hook := func(context.Context) error { return c.Close() }
		return taxonomy.NewCachedStore(next, c, cfg.TermCacheTTL), []func(context.Context) error{hook}, nil, nil
	}

	client, err := redis.Open(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	log.InfoContext(ctx, "caching terms in redis", slog.Duration("ttl", cfg.TermCacheTTL))
	c := cache.NewRedis[[]taxonomy.Term](client, nil, cache.WithPrefix("portal:terms:"))
	hook := func(context.Context) error { return client.Close() }
	check := portal.WithReadinessCheck("redis", redis.Healthcheck(client))
	return taxonomy.NewCachedStore(next, c, cfg.TermCacheTTL), []func(context.Context) error{hook}, []portal.HealthOption{check}, nil
}

// userResolver identifies users by a signed cookie when a secret is set and
// by a trusted proxy header when one is named. Without either every request
// is anonymous.
func userResolver(cfg config) (portal.UserResolver, error) {
	var sources []portal.ExtractorSource
	if cfg.CookieSecret != "" {
		if err := cookie.Validate(cfg.CookieSecret); err != nil {
			return nil, fmt.Errorf("PORTAL_COOKIE_SECRET: %w", err)
		}
		m := cookie.New(cookie.WithSecret(cfg.CookieSecret), cookie.WithPath("/"+strings.TrimPrefix(cfg.BasePath, "/")))
		sources = append(sources, portal.FromSignedCookie(m, cfg.UserCookie))
	}
	if cfg.UserHeader != "" {
		sources = append(sources, portal.FromHeader(cfg.UserHeader))
	}
	if len(sources) == 0 {
		return nil, nil
	}
	return portal.NewExtractor(sources...).UserResolver(), nil
}

func loadRoutes(routes *portal.Routes, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := routes.Load(f); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
