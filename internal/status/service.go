// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package status

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/petnova/petnova/internal/entity"
)

// ErrNotFound is returned by Update and Delete when no status has the id.
var ErrNotFound = errors.New("status not found")

// ErrDuplicate is returned when a status with the same type and name exists.
var ErrDuplicate = errors.New("status already exists")

// Service provides CRUD over statuses.
type Service struct {
	statuses Source
	logger   *slog.Logger
}

// NewService creates a Service over statuses.
func NewService(statuses Source, logger *slog.Logger) (*Service, error) {
	if statuses == nil {
		return nil, oops.Code("STATUS_INVALID_DEPENDENCY").Errorf("status source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{statuses: statuses, logger: logger}, nil
}

// List returns every status.
func (s *Service) List(ctx context.Context) ([]*Status, error) {
	repo, _, err := s.statuses.Open(ctx)
	if err != nil {
		return nil, oops.Code("STATUS_LIST_FAILED").Wrap(err)
	}
	all, err := repo.List(ctx)
	if err != nil {
		return nil, oops.Code("STATUS_LIST_FAILED").Wrap(err)
	}
	return all, nil
}

// ListByType returns the statuses whose Type equals typ.
func (s *Service) ListByType(ctx context.Context, typ string) ([]*Status, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, oops.With("type", typ).Wrap(err)
	}
	return slices.DeleteFunc(all, func(st *Status) bool { return st.Type != typ }), nil
}

// GetByID returns the status with id, or nil if there is none.
func (s *Service) GetByID(ctx context.Context, id ulid.ULID) (*Status, error) {
	repo, _, err := s.statuses.Open(ctx)
	if err != nil {
		return nil, oops.Code("STATUS_GET_FAILED").With("status_id", id.String()).Wrap(err)
	}
	st, ok, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, oops.Code("STATUS_GET_FAILED").With("status_id", id.String()).Wrap(err)
	}
	if !ok {
		return nil, nil
	}
	return st, nil
}

// Create stores a new status. A status with the same type and name fails
// with ErrDuplicate.
func (s *Service) Create(ctx context.Context, in Input) (*Status, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	st := &Status{
		ID:          ulid.Make(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        strings.TrimSpace(in.Type),
		IsActive:    in.active(),
	}

	repo, uow, err := s.statuses.Open(ctx)
	if err != nil {
		return nil, oops.Code("STATUS_CREATE_FAILED").Wrap(err)
	}
	if err := repo.Add(ctx, st); err != nil {
		uow.Rollback()
		return nil, oops.Code("STATUS_CREATE_FAILED").Wrap(err)
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, s.commitError(err, "STATUS_CREATE_FAILED", st)
	}

	s.logger.InfoContext(ctx, "status created", "status_id", st.ID.String(), "type", st.Type, "name", st.Name)
	return st, nil
}

// Update replaces the fields of the status with id.
func (s *Service) Update(ctx context.Context, id ulid.ULID, in Input) (*Status, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	repo, uow, err := s.statuses.Open(ctx)
	if err != nil {
		return nil, oops.Code("STATUS_UPDATE_FAILED").With("status_id", id.String()).Wrap(err)
	}
	current, ok, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, oops.Code("STATUS_UPDATE_FAILED").With("status_id", id.String()).Wrap(err)
	}
	if !ok {
		return nil, notFound(id)
	}

	current.Name = strings.TrimSpace(in.Name)
	current.Description = in.Description
	current.Type = strings.TrimSpace(in.Type)
	current.IsActive = in.active()

	if err := repo.Update(ctx, current); err != nil {
		uow.Rollback()
		return nil, oops.Code("STATUS_UPDATE_FAILED").With("status_id", id.String()).Wrap(err)
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, s.commitError(err, "STATUS_UPDATE_FAILED", current)
	}

	s.logger.InfoContext(ctx, "status updated", "status_id", id.String())
	return current, nil
}

// Delete removes the status with id.
func (s *Service) Delete(ctx context.Context, id ulid.ULID) error {
	repo, uow, err := s.statuses.Open(ctx)
	if err != nil {
		return oops.Code("STATUS_DELETE_FAILED").With("status_id", id.String()).Wrap(err)
	}
	current, ok, err := repo.FindByID(ctx, id)
	if err != nil {
		return oops.Code("STATUS_DELETE_FAILED").With("status_id", id.String()).Wrap(err)
	}
	if !ok {
		return notFound(id)
	}

	if err := repo.Remove(ctx, current); err != nil {
		uow.Rollback()
		return oops.Code("STATUS_DELETE_FAILED").With("status_id", id.String()).Wrap(err)
	}
	if err := uow.Commit(ctx); err != nil {
		return s.commitError(err, "STATUS_DELETE_FAILED", current)
	}

	s.logger.InfoContext(ctx, "status deleted", "status_id", id.String())
	return nil
}

func (s *Service) commitError(err error, code string, st *Status) error {
	switch {
	case errors.Is(err, entity.ErrConflict):
		return oops.Code("STATUS_DUPLICATE").
			With("type", st.Type).
			With("name", st.Name).
			Wrap(errors.Join(ErrDuplicate, err))
	case errors.Is(err, entity.ErrNotFound):
		// Removed between the read and the commit.
		return notFound(st.ID)
	default:
		return oops.Code(code).With("status_id", st.ID.String()).Wrap(err)
	}
}

func notFound(id ulid.ULID) error {
	return oops.Code("STATUS_NOT_FOUND").With("status_id", id.String()).Wrap(ErrNotFound)
}
