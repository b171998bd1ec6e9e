// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUserExists is returned when a signup collides with an existing
	// username, whether detected by the pre-check or by the store's
	// uniqueness constraint.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned for both an unknown username and a
	// wrong password. The two cases are deliberately indistinguishable so
	// login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation is returned when a required field is missing or empty.
	ErrValidation = errors.New("username and password required")
)
