// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package auth

import (
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/petnova/petnova/internal/entity"
)

// DefaultRole is assigned when registration does not name a role.
const DefaultRole = "User"

// Field length limits, matching the users table.
const (
	MaxUsernameLength = 64
	MaxEmailLength    = 254
	MaxRoleLength     = 32
)

// User is an account that can authenticate.
type User struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// EntityID implements entity.Entity.
func (u *User) EntityID() ulid.ULID { return u.ID }

// Clone returns a copy of u.
func (u *User) Clone() *User {
	c := *u
	return &c
}

// UserRepository is the entity repository for users.
type UserRepository = entity.Repository[*User, ulid.ULID]

// UserSource opens user repositories, one unit of work per call.
type UserSource = entity.Source[*User, ulid.ULID]

// NewUser creates a User with a fresh ID. An empty role becomes DefaultRole.
// Username and email are stored exactly as given; uniqueness is case-sensitive.
func NewUser(username, email, passwordHash, role string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_PASSWORD").Errorf("password hash cannot be empty")
	}
	if role == "" {
		role = DefaultRole
	}
	if len(role) > MaxRoleLength {
		return nil, oops.Code("AUTH_INVALID_INPUT").
			With("field", "role").
			With("max", MaxRoleLength).
			Errorf("role must be at most %d characters", MaxRoleLength)
	}

	return &User{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// ValidateUsername checks that a username is non-empty, bounded, and free of whitespace.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_INPUT").With("field", "username").Errorf("username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("field", "username").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if strings.ContainsFunc(username, isSpace) {
		return oops.Code("AUTH_INVALID_INPUT").With("field", "username").Errorf("username cannot contain whitespace")
	}
	return nil
}

// ValidateEmail checks that email is a bare address such as "alice@example.com".
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_INPUT").With("field", "email").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("field", "email").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("AUTH_INVALID_INPUT").With("field", "email").Errorf("email is not a valid address")
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
