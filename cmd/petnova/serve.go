// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/petnova/petnova/internal/auth"
	authpg "github.com/petnova/petnova/internal/auth/postgres"
	"github.com/petnova/petnova/internal/config"
	entitypg "github.com/petnova/petnova/internal/entity/postgres"
	"github.com/petnova/petnova/internal/httpapi"
	"github.com/petnova/petnova/internal/observability"
	"github.com/petnova/petnova/internal/status"
	statuspg "github.com/petnova/petnova/internal/status/postgres"
	"github.com/petnova/petnova/internal/token"
	"github.com/petnova/petnova/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(opts *rootOptions, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and, unless metrics-addr is empty, the metrics
and health server. SIGINT or SIGTERM shuts both down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, deps)
		},
	}

	cmd.Flags().String("addr", ":8080", "API listen address")
	cmd.Flags().String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().Bool("auto-migrate", false, "apply pending migrations before serving")
	cmd.Flags().Duration("token-lifetime", time.Hour, "lifetime of issued bearer tokens")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, deps *Deps) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg, deps)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "starting petnova", "version", version, "addr", cfg.HTTP.Addr)

	db, err := deps.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Migrate.Auto {
		if err := migrateUp(cfg.Database.URL, deps, logger); err != nil {
			return err
		}
	}

	tokens, err := token.NewService(cfg.TokenConfig())
	if err != nil {
		return err
	}
	entities := entitypg.NewDB(db)
	users, err := auth.NewAuthServiceWithLogger(authpg.NewUserSource(entities), auth.NewArgon2idHasher(), logger)
	if err != nil {
		return err
	}
	statuses, err := status.NewService(statuspg.NewSource(entities), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		obsServer ObservabilityServer
		metrics   *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obsServer = deps.NewObservabilityServer(cfg.Metrics.Addr, db.Ping, logger)
		obsErrCh, startErr := obsServer.Start()
		if startErr != nil {
			return startErr
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
		metrics = obsServer.Metrics()
	}

	handler, err := httpapi.NewRouter(httpapi.Deps{
		Auth:           users,
		Tokens:         tokens,
		Statuses:       statuses,
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		LoginRate:      cfg.HTTP.LoginRate,
		TrustProxy:     cfg.HTTP.TrustedProxy,
	})
	if err != nil {
		stopObservability(obsServer, cfg.HTTP.ShutdownTimeout, logger)
		return err
	}

	listener, err := deps.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer, cfg.HTTP.ShutdownTimeout, logger)
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErrCh := make(chan error, 1)
	go func() {
		defer close(serveErrCh)
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			serveErrCh <- serveErr
		}
	}()

	logger.InfoContext(ctx, "petnova ready", "addr", listener.Addr().String())
	deps.Ready(listener.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr := <-serveErrCh:
		runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(serveErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errutil.LogError(logger, "error stopping HTTP server", err)
	}
	stopObservability(obsServer, cfg.HTTP.ShutdownTimeout, logger)

	logger.Info("shutdown complete")
	return runErr
}

func stopObservability(srv ObservabilityServer, timeout time.Duration, logger *slog.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		errutil.LogError(logger, "error stopping observability server", err)
	}
}

// monitorServerErrors cancels the serve context when a background server fails.
// It exits when an error arrives, the channel closes, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
