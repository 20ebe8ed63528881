// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package auth

import (
	"github.com/oklog/ulid/v2"

	"github.com/petnova/petnova/internal/entity/memory"
)

// memoryUsers mirrors the unique constraints of the users table.
var memoryUsers = memory.Table[*User, ulid.ULID]{
	Name: "users",
	Unique: map[string]func(*User) string{
		"users_username_key": func(u *User) string { return u.Username },
		"users_email_key":    func(u *User) string { return u.Email },
	},
	Clone: (*User).Clone,
}

// NewMemoryUserSource returns a UserSource backed by an in-memory arena.
func NewMemoryUserSource(db *memory.DB) UserSource {
	return memory.Source(db, memoryUsers)
}
