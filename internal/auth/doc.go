// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

// Package auth provides the credential primitives for Authgate: the User
// record, password hashing, JWT issuance, and the signup/login service.
//
// Users are created through NewUser, which validates the username and
// stamps the record; direct struct initialization bypasses validation.
// The Service coordinates the hasher, the user repository, and the token
// issuer, and is the only place login/signup policy lives. Repository
// implementations receive pre-validated records.
package auth
