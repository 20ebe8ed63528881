// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package status

import (
	"github.com/oklog/ulid/v2"

	"github.com/petnova/petnova/internal/entity/memory"
)

var memoryStatuses = memory.Table[*Status, ulid.ULID]{
	Name:   "statuses",
	Unique: map[string]func(*Status) string{"statuses_type_name_key": uniqueKey},
	Clone:  (*Status).Clone,
}

// NewMemorySource returns a Source backed by an in-memory arena.
func NewMemorySource(db *memory.DB) Source {
	return memory.Source(db, memoryStatuses)
}
