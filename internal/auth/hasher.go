// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// HasherParams control the argon2id work factor.
type HasherParams struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8  // parallelism
	SaltLen uint32 // salt length in bytes
	KeyLen  uint32 // derived key length in bytes
}

// DefaultHasherParams are the OWASP-recommended argon2id parameters.
var DefaultHasherParams = HasherParams{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// Hasher provides one-way password hashing and verification.
type Hasher interface {
	// Hash produces a salted digest of the password. Hashing the same
	// password twice yields different digests.
	Hash(password string) (string, error)

	// Verify checks the password against a digest without leaking timing
	// information. Returns (true, nil) on match, (false, nil) on mismatch,
	// or an error for a malformed digest.
	Verify(password, digest string) (bool, error)
}

// Argon2idHasher implements Hasher using argon2id with PHC-encoded digests.
type Argon2idHasher struct {
	params HasherParams
}

// NewArgon2idHasher creates a hasher with the default parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultHasherParams}
}

// NewArgon2idHasherWithParams creates a hasher with custom parameters.
// Zero-valued fields fall back to the defaults.
func NewArgon2idHasherWithParams(p HasherParams) *Argon2idHasher {
	if p.Time == 0 {
		p.Time = DefaultHasherParams.Time
	}
	if p.Memory == 0 {
		p.Memory = DefaultHasherParams.Memory
	}
	if p.Threads == 0 {
		p.Threads = DefaultHasherParams.Threads
	}
	if p.SaltLen == 0 {
		p.SaltLen = DefaultHasherParams.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultHasherParams.KeyLen
	}
	return &Argon2idHasher{params: p}
}

// Hash produces an argon2id digest of the password in PHC string format:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify checks the password against a PHC-encoded argon2id digest. The
// digest's own parameters are used for the re-derivation, so digests
// produced under older work factors still verify.
func (h *Argon2idHasher) Verify(password, digest string) (bool, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false, oops.Code("AUTH_INVALID_DIGEST").Errorf("invalid digest format")
	}

	if parts[1] != "argon2id" {
		return false, oops.Code("AUTH_INVALID_DIGEST").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("AUTH_INVALID_DIGEST").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("AUTH_INVALID_DIGEST").Wrap(err)
	}
	if threads > 255 {
		return false, oops.Code("AUTH_INVALID_DIGEST").Errorf("threads value %d exceeds uint8 max", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_DIGEST").Wrap(err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_DIGEST").Wrap(err)
	}
	keyLen := len(expected)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code("AUTH_INVALID_DIGEST").Errorf("invalid key length: %d", keyLen)
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	// Constant-time comparison so mismatch position cannot leak.
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
