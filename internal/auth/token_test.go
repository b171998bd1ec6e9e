// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/auth"
)

func TestNewTokenIssuer(t *testing.T) {
	t.Run("requires secret", func(t *testing.T) {
		_, err := auth.NewTokenIssuer(nil, time.Hour)
		assert.Error(t, err)
	})

	t.Run("zero ttl falls back to default", func(t *testing.T) {
		issuer, err := auth.NewTokenIssuer([]byte("secret"), 0)
		require.NoError(t, err)

		token, err := issuer.Issue("user-1", "alice")
		require.NoError(t, err)

		claims, err := auth.ParseToken(token, []byte("secret"))
		require.NoError(t, err)
		assert.WithinDuration(t,
			time.Now().Add(auth.DefaultTokenTTL),
			claims.ExpiresAt.Time,
			5*time.Second)
	})
}

func TestTokenIssuer_Issue(t *testing.T) {
	secret := []byte("super-secret")
	issuer, err := auth.NewTokenIssuer(secret, time.Hour)
	require.NoError(t, err)

	t.Run("round-trips subject and username", func(t *testing.T) {
		token, err := issuer.Issue("01HZN3XS000000000000000001", "alice")
		require.NoError(t, err)

		claims, err := auth.ParseToken(token, secret)
		require.NoError(t, err)
		assert.Equal(t, "01HZN3XS000000000000000001", claims.Subject)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("expiry is issuance plus ttl", func(t *testing.T) {
		token, err := issuer.Issue("u1", "alice")
		require.NoError(t, err)

		claims, err := auth.ParseToken(token, secret)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		short, err := auth.NewTokenIssuer(secret, time.Nanosecond)
		require.NoError(t, err)

		token, err := short.Issue("u1", "alice")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = auth.ParseToken(token, secret)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		token, err := issuer.Issue("u1", "alice")
		require.NoError(t, err)

		_, err = auth.ParseToken(token, []byte("other-secret"))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		token, err := issuer.Issue("u1", "alice")
		require.NoError(t, err)

		tampered := token[:len(token)-2] + "xx"
		_, err = auth.ParseToken(tampered, secret)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
