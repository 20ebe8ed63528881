// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package postgres maps auth types onto PostgreSQL tables.
package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/petnova/petnova/internal/auth"
	entitypg "github.com/petnova/petnova/internal/entity/postgres"
)

// Users maps auth.User onto the users table.
var Users = entitypg.Table[*auth.User, ulid.ULID]{
	Name:    "users",
	Columns: []string{"id", "username", "email", "password_hash", "role", "created_at"},
	Scan:    scanUser,
	Values: func(u *auth.User) []any {
		return []any{u.ID.String(), u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt}
	},
	Key: func(id ulid.ULID) any { return id.String() },
}

// NewUserSource returns a UserSource over db.
func NewUserSource(db *entitypg.DB) auth.UserSource {
	return entitypg.Source(db, Users)
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u     auth.User
		idStr string
	)
	if err := row.Scan(&idStr, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers distinguish pgx.ErrNoRows
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").With("id", idStr).Wrap(err)
	}
	u.ID = id
	return &u, nil
}
