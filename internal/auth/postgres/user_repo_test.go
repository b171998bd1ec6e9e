// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/auth"
)

func newMockRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func testUser(t *testing.T) *auth.User {
	t.Helper()
	return &auth.User{
		ID:           ulid.Make(),
		Username:     "alice",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts user", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		user := testUser(t)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), user.Username, user.PasswordHash, user.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, user)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrUserExists", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		user := testUser(t)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), user.Username, user.PasswordHash, user.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"})

		err := repo.Create(ctx, user)
		assert.ErrorIs(t, err, auth.ErrUserExists)
	})

	t.Run("other errors pass through as internal", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		user := testUser(t)

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), user.Username, user.PasswordHash, user.CreatedAt).
			WillReturnError(errors.New("connection refused"))

		err := repo.Create(ctx, user)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrUserExists)
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored user", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		user := testUser(t)

		rows := pgxmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow(user.ID.String(), user.Username, user.PasswordHash, user.CreatedAt)
		mock.ExpectQuery(`SELECT id, username, password_hash, created_at`).
			WithArgs("alice").
			WillReturnRows(rows)

		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Username, got.Username)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT id, username, password_hash, created_at`).
			WithArgs("nobody").
			WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password_hash", "created_at"}))

		_, err := repo.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("corrupt id is an error", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		rows := pgxmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow("not-a-ulid", "alice", "digest", time.Now())
		mock.ExpectQuery(`SELECT id, username, password_hash, created_at`).
			WithArgs("alice").
			WillReturnRows(rows)

		_, err := repo.GetByUsername(ctx, "alice")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("query error is internal", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT id, username, password_hash, created_at`).
			WithArgs("alice").
			WillReturnError(errors.New("connection refused"))

		_, err := repo.GetByUsername(ctx, "alice")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
	})
}
