// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package postgres maps statuses onto the statuses table.
package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	entitypg "github.com/petnova/petnova/internal/entity/postgres"
	"github.com/petnova/petnova/internal/status"
)

// Statuses maps status.Status onto the statuses table.
var Statuses = entitypg.Table[*status.Status, ulid.ULID]{
	Name:    "statuses",
	Columns: []string{"id", "name", "description", "type", "is_active"},
	Scan:    scanStatus,
	Values: func(s *status.Status) []any {
		return []any{s.ID.String(), s.Name, s.Description, s.Type, s.IsActive}
	},
	Key: func(id ulid.ULID) any { return id.String() },
}

// NewSource returns a status.Source over db.
func NewSource(db *entitypg.DB) status.Source {
	return entitypg.Source(db, Statuses)
}

func scanStatus(row pgx.Row) (*status.Status, error) {
	var (
		s     status.Status
		idStr string
	)
	if err := row.Scan(&idStr, &s.Name, &s.Description, &s.Type, &s.IsActive); err != nil {
		return nil, err //nolint:wrapcheck // callers distinguish pgx.ErrNoRows
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("STATUS_INVALID_ID").With("id", idStr).Wrap(err)
	}
	s.ID = id
	return &s, nil
}
