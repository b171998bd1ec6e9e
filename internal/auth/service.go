// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// dummyDigest is verified against when a username does not exist, so login
// latency does not reveal whether the account is real. It is a fake hash
// that can never match any password.
//
//nolint:gosec // G101: intentionally fake digest for timing attack prevention, not a credential.
const dummyDigest = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service implements the signup and login flows.
type Service struct {
	users  UserRepository
	hasher Hasher
	tokens *TokenIssuer
}

// NewService creates a Service, validating its dependencies.
func NewService(users UserRepository, hasher Hasher, tokens *TokenIssuer) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INIT_FAILED").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INIT_FAILED").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INIT_FAILED").Errorf("token issuer is required")
	}
	return &Service{users: users, hasher: hasher, tokens: tokens}, nil
}

// Signup registers a new user with a hashed password. No token is issued;
// login is a separate step.
//
// A concurrent signup for the same username can pass the existence
// pre-check on both sides; the store's uniqueness constraint then decides
// the winner and the loser still surfaces ErrUserExists.
func (s *Service) Signup(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, oops.Code("AUTH_VALIDATION").Wrap(ErrValidation)
	}

	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, oops.Code("AUTH_USER_EXISTS").
			With("username", username).
			Wrap(ErrUserExists)
	case errors.Is(err, ErrNotFound):
		// Username is free.
	default:
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "get user by username").
			Wrap(err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(username, digest)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, oops.Code("AUTH_USER_EXISTS").
				With("username", username).
				Wrap(ErrUserExists)
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	return user, nil
}

// Login verifies credentials and returns a signed session token.
//
// An unknown username and a wrong password produce the same error, and the
// unknown-user path still pays a full digest verification, so neither the
// response nor its timing reveals whether the account exists.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", oops.Code("AUTH_VALIDATION").Wrap(ErrValidation)
	}

	user, lookupErr := s.users.GetByUsername(ctx, username)

	targetDigest := dummyDigest
	userExists := false
	switch {
	case lookupErr == nil:
		targetDigest = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// Verify against the dummy digest below.
	default:
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetDigest)
	if verifyErr != nil {
		if !userExists {
			return "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return "", oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID.String(), user.Username)
	if err != nil {
		return "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	return token, nil
}
