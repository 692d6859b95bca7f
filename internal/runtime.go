package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

const defaultAddress = ":8080"

// Run listens on addr and serves until shutdown. An empty addr falls back to
// the Address option, then ":8080".
//
// Example:
//
//	err := p.Run(":8080", portal.Logger(log), portal.ShutdownHook(db.Shutdown(conn)))
func (p *Portal) Run(addr string, opts ...RunOption) error {
	cfg := p.runConfig(opts...)
	if addr == "" {
		addr = cfg.address
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return p.serveOn(ln, cfg)
}

// Serve serves on ln until the base context is done or the process receives
// SIGINT or SIGTERM. Shutdown stops accepting requests, waits for in-flight
// ones, then runs the hooks in reverse registration order so that resources
// opened last close first.
func (p *Portal) Serve(ln net.Listener, opts ...RunOption) error {
	return p.serveOn(ln, p.runConfig(opts...))
}

func (p *Portal) runConfig(opts ...RunOption) *runConfig {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = p.logger
	}
	if cfg.address == "" {
		cfg.address = defaultAddress
	}
	if cfg.baseCtx == nil {
		cfg.baseCtx = context.Background()
	}
	return cfg
}

func (p *Portal) serveOn(ln net.Listener, cfg *runConfig) error {
	log := cfg.logger
	server := &http.Server{
		Handler:           p.router,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return cfg.baseCtx },
	}

	ctx, stop := signal.NotifyContext(cfg.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Info("portal listening",
			slog.String("address", ln.Addr().String()),
			slog.String("base_path", p.basePath),
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cfg.baseCtx), cfg.shutdownTimeout)
	defer cancel()

	err := errors.Join(serveErr, server.Shutdown(shutdownCtx))
	<-errCh
	if err = runHooks(shutdownCtx, cfg, err); err != nil {
		log.Error("shutdown completed with errors", slog.String("error", err.Error()))
		return err
	}
	log.Info("shutdown completed")
	return nil
}

// runHooks runs the hooks last to first and joins their errors with prev.
func runHooks(ctx context.Context, cfg *runConfig, prev error) error {
	errs := []error{prev}
	for i := len(cfg.shutdownHooks) - 1; i >= 0; i-- {
		if err := cfg.shutdownHooks[i](ctx); err != nil {
			cfg.logger.Error("shutdown hook failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
