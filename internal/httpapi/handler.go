// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

// Package httpapi exposes the HTTP surface of Authgate: liveness and
// readiness probes, the signup/login endpoints, and Prometheus metrics.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/readiness"
	"github.com/authgate/authgate/pkg/errutil"
)

// Handler bundles the HTTP endpoints. The auth service is late-bound: the
// handler starts serving before the database is connected, and the serve
// loop installs the service once the connect supervisor succeeds.
type Handler struct {
	state    *readiness.State
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	svc      atomic.Pointer[auth.Service]
}

// NewHandler creates a Handler gated on the given readiness state.
func NewHandler(state *readiness.State, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	registry := newRegistry()
	return &Handler{
		state:    state,
		logger:   logger,
		registry: registry,
		metrics:  NewMetrics(registry),
	}
}

// SetAuthService installs the auth service. Called once by the serve loop
// after the store connection is established; single writer, like the
// readiness flag.
func (h *Handler) SetAuthService(svc *auth.Service) {
	h.svc.Store(svc)
}

// Router returns the routing table for the API surface.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.metrics.instrument("/health", h.handleHealth))
	mux.HandleFunc("GET /ready", h.metrics.instrument("/ready", h.handleReady))
	mux.HandleFunc("POST /signup", h.metrics.instrument("/signup", h.handleSignup))
	mux.HandleFunc("POST /login", h.metrics.instrument("/login", h.handleLogin))
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	return mux
}

// handleHealth is the liveness probe: it succeeds whenever the process is
// alive, so the orchestrator never kills the process for a slow database.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "OK")
}

// handleReady is the readiness probe: success only once the store is
// connected.
func (h *Handler) handleReady(w http.ResponseWriter, _ *http.Request) {
	if h.state.Ready() {
		writeText(w, http.StatusOK, "OK")
		return
	}
	writeText(w, http.StatusServiceUnavailable, "DB connecting")
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authService returns the installed service, or nil while the store is
// still connecting. The readiness flag flips before the service is
// installed, so both checks are needed to close the gap.
func (h *Handler) authService() *auth.Service {
	if !h.state.Ready() {
		return nil
	}
	return h.svc.Load()
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	svc := h.authService()
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "Database not ready")
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := svc.Signup(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
	case errors.Is(err, auth.ErrValidation):
		writeError(w, http.StatusBadRequest, "Username and password required")
	case errors.Is(err, auth.ErrUserExists):
		writeError(w, http.StatusConflict, "User already exists")
	default:
		errutil.LogError(h.logger, "signup failed", err)
		writeError(w, http.StatusInternalServerError, "Signup failed")
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	svc := h.authService()
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "Database not ready")
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := svc.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Login successful",
			"token":   token,
		})
	case errors.Is(err, auth.ErrValidation):
		writeError(w, http.StatusBadRequest, "Username and password required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		// Unknown user and wrong password share this shape; see auth.Service.
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		errutil.LogError(h.logger, "login failed", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
	}
}

func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error is not actionable, client may disconnect
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	_, _ = w.Write([]byte(body))
}
