package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/readiness"
	"github.com/authgate/authgate/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// SupervisorFactory creates the store connect supervisor.
	// Default: store.NewConnectSupervisor
	SupervisorFactory func(cfg *config.Config, state *readiness.State, logger *slog.Logger) Supervisor

	// AuthServiceFactory wires the auth service once the store is connected.
	// Default: buildAuthService
	AuthServiceFactory func(cfg *config.Config, st *store.Store) (*auth.Service, error)

	// ServerFactory creates the HTTP server.
	// Default: httpapi.NewServer
	ServerFactory func(addr string, handler http.Handler) HTTPServer
}

// Supervisor interface wraps the methods used from store.ConnectSupervisor.
type Supervisor interface {
	Run(ctx context.Context) (*store.Store, error)
}

// HTTPServer interface wraps the methods used from httpapi.Server.
type HTTPServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
