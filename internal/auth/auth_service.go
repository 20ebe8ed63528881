// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/petnova/petnova/internal/entity"
	"github.com/petnova/petnova/pkg/errutil"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string // optional, defaults to DefaultRole
}

func (in RegisterInput) validate() error {
	if err := ValidateUsername(in.Username); err != nil {
		return err
	}
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// Service provides registration and authentication.
type Service struct {
	users  UserSource
	hasher PasswordHasher
	logger *slog.Logger
}

// NewAuthService creates a new Service.
func NewAuthService(users UserSource, hasher PasswordHasher) (*Service, error) {
	return NewAuthServiceWithLogger(users, hasher, slog.Default())
}

// NewAuthServiceWithLogger creates a new Service that logs to logger.
func NewAuthServiceWithLogger(users UserSource, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("user source is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	return &Service{users: users, hasher: hasher, logger: logger}, nil
}

// dummyPasswordHash is verified when no user matches so that response time
// does not reveal whether the account exists. It never matches any password.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates a user.
//
// Returns (nil, nil) when another user already has the username or the
// email. Matching is case-sensitive, so "Bob" and "bob" are distinct users.
// Invalid input is reported as an AUTH_INVALID_INPUT error.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	repo, uow, err := s.users.Open(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "open user store").Wrap(err)
	}

	existing, err := repo.List(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "list users").Wrap(err)
	}
	for _, u := range existing {
		if u.Username == in.Username || u.Email == in.Email {
			s.logger.DebugContext(ctx, "registration rejected: duplicate user", "username", in.Username)
			return nil, nil
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	user, err := NewUser(in.Username, in.Email, hash, in.Role)
	if err != nil {
		return nil, err
	}

	if err := repo.Add(ctx, user); err != nil {
		uow.Rollback()
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "stage user").Wrap(err)
	}
	if err := uow.Commit(ctx); err != nil {
		// A concurrent registration can slip past the scan; the table's
		// unique constraints still reject it.
		if errors.Is(err, entity.ErrConflict) {
			s.logger.DebugContext(ctx, "registration rejected: duplicate user at commit", "username", in.Username)
			return nil, nil
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "commit user").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String(), "role", user.Role)
	return user, nil
}

// Authenticate returns the user whose username or email equals
// usernameOrEmail and whose password matches.
//
// Returns (nil, nil) for both an unknown user and a wrong password; the
// caller cannot tell the two apart. A password hash is verified in either
// case to keep timing uniform.
func (s *Service) Authenticate(ctx context.Context, usernameOrEmail, password string) (*User, error) {
	repo, uow, err := s.users.Open(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "open user store").Wrap(err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "list users").Wrap(err)
	}

	var match *User
	for _, u := range users {
		if u.Username == usernameOrEmail || u.Email == usernameOrEmail {
			match = u
			break
		}
	}

	target := dummyPasswordHash
	if match != nil {
		target = match.PasswordHash
	}

	result, verifyErr := s.hasher.Verify(target, password)
	if match == nil {
		return nil, nil
	}
	if verifyErr != nil {
		s.logger.WarnContext(ctx, "stored password hash is unreadable",
			"user_id", match.ID.String(),
			"error", verifyErr)
		return nil, nil
	}
	if result != VerificationSuccess {
		return nil, nil
	}

	if s.hasher.NeedsUpgrade(match.PasswordHash) {
		s.upgradeHash(ctx, repo, uow, match, password)
	}
	return match, nil
}

// upgradeHash rehashes the password with current parameters. Failure is
// logged and does not affect the login.
func (s *Service) upgradeHash(ctx context.Context, repo UserRepository, uow entity.UnitOfWork, user *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password rehash failed", err)
		return
	}
	upgraded := user.Clone()
	upgraded.PasswordHash = hash
	if err := repo.Update(ctx, upgraded); err != nil {
		uow.Rollback()
		errutil.LogErrorContext(ctx, s.logger, "password rehash failed", err)
		return
	}
	if err := uow.Commit(ctx); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password rehash failed", err)
		return
	}
	user.PasswordHash = hash
	s.logger.InfoContext(ctx, "password hash upgraded", "user_id", user.ID.String())
}

// ListUsers returns every user.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	repo, _, err := s.users.Open(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_LIST_USERS_FAILED").With("operation", "open user store").Wrap(err)
	}
	users, err := repo.List(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_LIST_USERS_FAILED").Wrap(err)
	}
	return users, nil
}

// GetUserByID returns the user with id, or (nil, nil) if there is none.
func (s *Service) GetUserByID(ctx context.Context, id ulid.ULID) (*User, error) {
	repo, _, err := s.users.Open(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_GET_USER_FAILED").With("operation", "open user store").Wrap(err)
	}
	user, ok, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, oops.Code("AUTH_GET_USER_FAILED").With("user_id", id.String()).Wrap(err)
	}
	if !ok {
		return nil, nil
	}
	return user, nil
}
