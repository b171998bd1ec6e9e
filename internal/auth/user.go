// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User represents a registered account. Records are created exactly once
// at signup and never mutated afterwards.
type User struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUser creates a User with a fresh ID. The username must be non-empty
// after trimming; the password hash must already be computed.
func NewUser(username, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, oops.Code("AUTH_INVALID_USERNAME").Wrap(ErrValidation)
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_EMPTY_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// UserRepository defines the persistence operations the Service needs.
type UserRepository interface {
	// Create persists a new user. A username collision is reported as
	// ErrUserExists, regardless of which layer detects it.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by exact username. A missing user is
	// reported as ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
