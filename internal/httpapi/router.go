// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package httpapi exposes the auth, user and status services over JSON/HTTP.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/samber/oops"

	"github.com/petnova/petnova/internal/observability"
)

// AdminRole may list every user.
const AdminRole = "Admin"

// Router defaults, used when the matching Deps field is zero.
const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultLoginRate      = 10
)

// TokenService issues and validates bearer tokens.
type TokenService interface {
	TokenIssuer
	TokenValidator
}

// Deps holds everything NewRouter wires together.
type Deps struct {
	Auth     AuthService
	Tokens   TokenService
	Statuses StatusService
	Logger   *slog.Logger
	Metrics  *observability.Metrics // optional

	RequestTimeout time.Duration
	CORSOrigins    []string
	// LoginRate is the number of login attempts allowed per client IP per minute.
	LoginRate int
	// TrustProxy takes the client IP from X-Forwarded-For, X-Real-IP and
	// True-Client-IP. Enable it only behind a proxy that overwrites them.
	TrustProxy bool
}

// NewRouter builds the API handler.
func NewRouter(deps Deps) (http.Handler, error) {
	switch {
	case deps.Auth == nil:
		return nil, oops.Code("HTTP_INVALID_DEPENDENCY").Errorf("auth service is required")
	case deps.Tokens == nil:
		return nil, oops.Code("HTTP_INVALID_DEPENDENCY").Errorf("token service is required")
	case deps.Statuses == nil:
		return nil, oops.Code("HTTP_INVALID_DEPENDENCY").Errorf("status service is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	loginRate := deps.LoginRate
	if loginRate <= 0 {
		loginRate = DefaultLoginRate
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	ah := &authHandler{users: deps.Auth, tokens: deps.Tokens, metrics: deps.Metrics, logger: logger}
	sh := &statusHandler{statuses: deps.Statuses, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if deps.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(instrument(deps.Metrics))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", ah.register)
		r.With(httprate.Limit(loginRate, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusTooManyRequests, "too many login attempts")
			}),
		)).Post("/auth/login", ah.login)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(deps.Tokens, logger, deps.Metrics))

			r.Get("/auth/me", ah.me)
			r.With(RequireRole(AdminRole)).Get("/users", ah.listUsers)
			r.Get("/users/{id}", ah.getUser)

			r.Route("/status", func(r chi.Router) {
				r.Get("/", sh.list)
				r.Post("/", sh.create)
				r.Get("/type/{type}", sh.listByType)
				r.Get("/{id}", sh.get)
				r.Put("/{id}", sh.update)
				r.Delete("/{id}", sh.delete)
			})
		})
	})

	return r, nil
}
