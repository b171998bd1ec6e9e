// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/auth/postgres"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/httpapi"
	"github.com/authgate/authgate/internal/logging"
	"github.com/authgate/authgate/internal/readiness"
	"github.com/authgate/authgate/internal/store"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication HTTP server",
		Long: `Start the HTTP server. Liveness and readiness probes come up
immediately; signup and login become available once the database
connection supervisor succeeds.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	fs := cmd.Flags()
	fs.String("addr", ":4000", "HTTP listen address")
	fs.String("log-format", "json", "log format (json or text)")
	fs.Duration("token-ttl", auth.DefaultTokenTTL, "issued token lifetime")
	fs.Uint64("connect-attempts", store.DefaultConnectAttempts, "database connection attempts before giving up")
	fs.Duration("connect-interval", store.DefaultConnectInterval, "delay between database connection attempts")

	return cmd
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}

	// Set up default factories
	if deps.SupervisorFactory == nil {
		deps.SupervisorFactory = func(cfg *config.Config, state *readiness.State, logger *slog.Logger) Supervisor {
			return store.NewConnectSupervisor(cfg.DatabaseURL, cfg.ConnectAttempts, cfg.ConnectInterval, state, logger)
		}
	}
	if deps.AuthServiceFactory == nil {
		deps.AuthServiceFactory = buildAuthService
	}
	if deps.ServerFactory == nil {
		deps.ServerFactory = func(addr string, handler http.Handler) HTTPServer {
			return httpapi.NewServer(addr, handler)
		}
	}

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("authgate", version, cfg.LogFormat)
	logger := slog.Default()

	logger.Info("starting server",
		"addr", cfg.Addr,
		"log_format", cfg.LogFormat,
		"connect_attempts", cfg.ConnectAttempts,
		"connect_interval", cfg.ConnectInterval,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := readiness.NewState()
	handler := httpapi.NewHandler(state, logger)

	srv := deps.ServerFactory(cfg.Addr, handler.Router())
	srvErrChan, err := srv.Start()
	if err != nil {
		return oops.Code("SERVER_START_FAILED").With("addr", cfg.Addr).Wrap(err)
	}
	logger.Info("http server listening", "addr", srv.Addr())

	// The supervisor runs in the background so the probes answer while
	// the database is still coming up. Its failure is fatal.
	supervisor := deps.SupervisorFactory(cfg, state, logger)
	supErrChan := make(chan error, 1)
	storeChan := make(chan *store.Store, 1)
	go func() {
		st, runErr := supervisor.Run(ctx)
		if runErr != nil {
			supErrChan <- runErr
			return
		}
		svc, buildErr := deps.AuthServiceFactory(cfg, st)
		if buildErr != nil {
			st.Close()
			supErrChan <- buildErr
			return
		}
		storeChan <- st
		handler.SetAuthService(svc)
		logger.Info("auth service ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Server started")

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-srvErrChan:
		runErr = oops.Code("SERVER_FAILED").Wrap(err)
	case err := <-supErrChan:
		runErr = err
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}

	select {
	case st := <-storeChan:
		st.Close()
	default:
	}

	logger.Info("shutdown complete")
	return runErr
}

// buildAuthService wires the production auth service on top of a
// connected store.
func buildAuthService(cfg *config.Config, st *store.Store) (*auth.Service, error) {
	issuer, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	repo := postgres.NewUserRepository(st.Pool())
	return auth.NewService(repo, auth.NewArgon2idHasher(), issuer)
}
