// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package entity defines the generic persistence contract shared by every
// feature module: a Repository over one entity type and a UnitOfWork that
// applies staged mutations atomically.
//
// Repositories never write through. Add, Update and Remove stage an
// operation on the unit of work the repository is bound to; nothing is
// visible to other readers until Commit succeeds. Reads (FindByID, List)
// see committed state only.
//
// Two implementations exist:
//   - memory: arena storage keyed by id, used by tests and local runs
//   - postgres: table-mapped repositories committed in one pgx transaction
package entity

import (
	"context"
	"errors"
	"fmt"
)

// ErrPersistence matches every failure reported by UnitOfWork.Commit.
var ErrPersistence = errors.New("persistence failure")

// ErrConflict is returned when a commit violates a uniqueness constraint.
var ErrConflict = fmt.Errorf("unique constraint violated: %w", ErrPersistence)

// ErrNotFound is returned when a staged update or removal targets an
// entity that no longer exists at commit time.
var ErrNotFound = fmt.Errorf("entity not found: %w", ErrPersistence)

// Entity is any record with a unique identifier.
type Entity[ID comparable] interface {
	EntityID() ID
}

// Repository provides CRUD over one entity type.
type Repository[T Entity[ID], ID comparable] interface {
	// Add stages insertion of e.
	Add(ctx context.Context, e T) error

	// FindByID returns the committed entity with the given id.
	// A missing entity is reported as ok=false with a nil error.
	FindByID(ctx context.Context, id ID) (e T, ok bool, err error)

	// List returns every committed entity of this type.
	List(ctx context.Context) ([]T, error)

	// Update stages replacement of the entity with e's id.
	Update(ctx context.Context, e T) error

	// Remove stages deletion of e.
	Remove(ctx context.Context, e T) error
}

// UnitOfWork groups staged repository mutations into one atomic commit.
type UnitOfWork interface {
	// Commit applies all operations staged since the last commit.
	// On failure nothing is applied and the error matches ErrPersistence.
	Commit(ctx context.Context) error

	// Rollback discards staged operations.
	Rollback()
}

// Source opens a repository bound to a fresh unit of work.
// Each request opens its own; units of work are never shared.
type Source[T Entity[ID], ID comparable] interface {
	Open(ctx context.Context) (Repository[T, ID], UnitOfWork, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T Entity[ID], ID comparable] func(ctx context.Context) (Repository[T, ID], UnitOfWork, error)

// Open calls f.
func (f SourceFunc[T, ID]) Open(ctx context.Context) (Repository[T, ID], UnitOfWork, error) {
	return f(ctx)
}
