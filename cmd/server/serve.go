package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	jwttoken "plaingov/internal/jwt_token"
	"plaingov/internal/mcp"
	"plaingov/internal/platform/config"
	"plaingov/internal/platform/httpserver"
	"plaingov/internal/platform/middleware"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio (default) or HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting plaingov",
		"version", version,
		"transport", cfg.Transport,
		"programs", len(a.registry.IDs()),
	)

	if cfg.Transport == config.TransportHTTP {
		return serveHTTP(ctx, a)
	}
	if err := a.server.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil {
		return err
	}
	a.logger.Info("stdin closed, exiting")
	return nil
}

func serveHTTP(ctx context.Context, a *app) error {
	routerCfg := mcp.RouterConfig{
		Logger:         a.logger,
		Metrics:        a.metrics.Handler(),
		AllowedOrigins: cfg.CORSOrigins,
	}
	if cfg.JWTSigningKey != "" {
		jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
		routerCfg.Auth = middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), a.logger)
	} else {
		a.logger.Warn("no JWT signing key configured, /mcp is unauthenticated")
	}

	router := mcp.NewRouter(mcp.NewHTTPHandler(a.server, a.logger), routerCfg)
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
