// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/authgate/authgate/internal/readiness"
)

// Connection retry defaults. The orchestrator restarts the process on
// exhaustion, so the budget does not need to be generous.
const (
	DefaultConnectAttempts = 60
	DefaultConnectInterval = 5 * time.Second
)

// ConnectSupervisor establishes the database connection in the background
// while the HTTP surface is already serving liveness checks. It makes up
// to a fixed number of attempts at a fixed interval; the first success
// runs migrations and flips the readiness state. Exhaustion is fatal to
// the process.
type ConnectSupervisor struct {
	dsn      string
	attempts uint64
	interval time.Duration
	state    *readiness.State
	logger   *slog.Logger

	// Injectable for tests.
	connect func(ctx context.Context, dsn string) (*Store, error)
	migrate func(databaseURL string) error
}

// NewConnectSupervisor creates a supervisor. Zero attempts or interval
// fall back to the defaults.
func NewConnectSupervisor(dsn string, attempts uint64, interval time.Duration, state *readiness.State, logger *slog.Logger) *ConnectSupervisor {
	if attempts == 0 {
		attempts = DefaultConnectAttempts
	}
	if interval <= 0 {
		interval = DefaultConnectInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectSupervisor{
		dsn:      dsn,
		attempts: attempts,
		interval: interval,
		state:    state,
		logger:   logger,
		connect:  Connect,
		migrate:  migrateUp,
	}
}

// Run attempts to connect until success, attempt exhaustion, or context
// cancellation. On success it applies migrations, marks the service ready,
// and returns the live store. The caller owns the store's lifetime.
func (s *ConnectSupervisor) Run(ctx context.Context) (*Store, error) {
	var conn *Store
	attempt := uint64(0)

	backoff := retry.WithMaxRetries(s.attempts-1, retry.NewConstant(s.interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		st, connErr := s.connect(ctx, s.dsn)
		if connErr != nil {
			s.logger.Error("database connection attempt failed",
				"attempt", attempt,
				"max_attempts", s.attempts,
				"error", connErr)
			if attempt < s.attempts {
				s.logger.Info("retrying database connection", "delay", s.interval)
			}
			return retry.RetryableError(connErr)
		}
		conn = st
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, oops.Code("DB_CONNECT_ABORTED").Wrap(ctx.Err())
		}
		return nil, oops.Code("DB_CONNECT_EXHAUSTED").
			With("attempts", attempt).
			Wrap(err)
	}

	if err := s.migrate(s.dsn); err != nil {
		conn.Close()
		return nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	s.state.MarkReady()
	s.logger.Info("database connected", "attempts", attempt)

	return conn, nil
}
