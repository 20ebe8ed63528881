// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/petnova/petnova/internal/status"
)

// StatusService is the status catalogue the status endpoints need.
type StatusService interface {
	List(ctx context.Context) ([]*status.Status, error)
	ListByType(ctx context.Context, typ string) ([]*status.Status, error)
	GetByID(ctx context.Context, id ulid.ULID) (*status.Status, error)
	Create(ctx context.Context, in status.Input) (*status.Status, error)
	Update(ctx context.Context, id ulid.ULID, in status.Input) (*status.Status, error)
	Delete(ctx context.Context, id ulid.ULID) error
}

type statusHandler struct {
	statuses StatusService
	logger   *slog.Logger
}

func (h *statusHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.statuses.List(r.Context())
	h.writeList(w, r, items, err)
}

func (h *statusHandler) listByType(w http.ResponseWriter, r *http.Request) {
	items, err := h.statuses.ListByType(r.Context(), chi.URLParam(r, "type"))
	h.writeList(w, r, items, err)
}

func (h *statusHandler) writeList(w http.ResponseWriter, r *http.Request, items []*status.Status, err error) {
	if err != nil {
		writeInternal(w, r, h.logger, "list statuses failed", err)
		return
	}
	if items == nil {
		items = []*status.Status{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *statusHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st, err := h.statuses.GetByID(r.Context(), id)
	if err != nil {
		writeInternal(w, r, h.logger, "get status failed", err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "status not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *statusHandler) create(w http.ResponseWriter, r *http.Request) {
	var in status.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := h.statuses.Create(r.Context(), in)
	if err != nil {
		h.writeStatusError(w, r, "create status failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *statusHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in status.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := h.statuses.Update(r.Context(), id, in)
	if err != nil {
		h.writeStatusError(w, r, "update status failed", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *statusHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.statuses.Delete(r.Context(), id); err != nil {
		h.writeStatusError(w, r, "delete status failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *statusHandler) writeStatusError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case status.IsValidationError(err):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, status.ErrNotFound):
		writeError(w, http.StatusNotFound, "status not found")
	case errors.Is(err, status.ErrDuplicate):
		writeError(w, http.StatusConflict, "status with this type and name already exists")
	default:
		writeInternal(w, r, h.logger, msg, err)
	}
}
