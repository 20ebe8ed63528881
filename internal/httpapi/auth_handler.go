// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/petnova/petnova/internal/auth"
	"github.com/petnova/petnova/internal/observability"
	"github.com/petnova/petnova/internal/token"
)

// AuthService is the account logic the auth and user endpoints need.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.User, error)
	Authenticate(ctx context.Context, usernameOrEmail, password string) (*auth.User, error)
	ListUsers(ctx context.Context) ([]*auth.User, error)
	GetUserByID(ctx context.Context, id ulid.ULID) (*auth.User, error)
}

// TokenIssuer signs tokens for authenticated users.
type TokenIssuer interface {
	Issue(id token.Identity) (string, time.Time, error)
}

// userResponse is the public view of a user. It never carries the hash.
type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type authHandler struct {
	users   AuthService
	tokens  TokenIssuer
	metrics *observability.Metrics
	logger  *slog.Logger
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	switch {
	case auth.IsValidationError(err):
		h.metrics.RecordRegistration(observability.ResultRejected)
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case err != nil:
		h.metrics.RecordRegistration(observability.ResultError)
		writeInternal(w, r, h.logger, "registration failed", err)
	case user == nil:
		h.metrics.RecordRegistration(observability.ResultRejected)
		writeError(w, http.StatusConflict, "username or email already registered")
	default:
		h.metrics.RecordRegistration(observability.ResultSuccess)
		writeJSON(w, http.StatusCreated, toUserResponse(user))
	}
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UsernameOrEmail == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "usernameOrEmail and password are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		h.metrics.RecordLogin(observability.ResultError)
		writeInternal(w, r, h.logger, "login failed", err)
		return
	}
	if user == nil {
		h.metrics.RecordLogin(observability.ResultRejected)
		h.logger.InfoContext(r.Context(), "login rejected", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	signed, expiresAt, err := h.tokens.Issue(token.Identity{UserID: user.ID.String(), Role: user.Role})
	if err != nil {
		h.metrics.RecordLogin(observability.ResultError)
		writeInternal(w, r, h.logger, "token issue failed", err)
		return
	}

	h.metrics.RecordLogin(observability.ResultSuccess)
	h.logger.InfoContext(r.Context(), "login succeeded", "user_id", user.ID.String())
	writeJSON(w, http.StatusOK, loginResponse{Token: signed, ExpiresAt: expiresAt, User: toUserResponse(user)})
}

func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}
	id, err := ulid.Parse(claims.UserID())
	if err != nil {
		h.logger.WarnContext(r.Context(), "token subject is not a user id", "subject", claims.UserID())
		unauthorized(w)
		return
	}
	h.writeUser(w, r, id)
}

func (h *authHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "list users failed", err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *authHandler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.writeUser(w, r, id)
}

func (h *authHandler) writeUser(w http.ResponseWriter, r *http.Request, id ulid.ULID) {
	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		writeInternal(w, r, h.logger, "get user failed", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// pathID parses the {id} URL parameter, answering 400 when it is not a ULID.
func pathID(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return ulid.ULID{}, false
	}
	return id, true
}

// validationMessage returns the text of a validation error without its
// code or context.
func validationMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return err.Error()
}
