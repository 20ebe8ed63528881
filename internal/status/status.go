// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package status manages the lookup values clinics attach to appointments,
// pets and invoices. Each status belongs to a free-form Type; names are
// unique within a type.
package status

import (
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/petnova/petnova/internal/entity"
)

// Field length limits, matching the statuses table.
const (
	MaxNameLength = 100
	MaxTypeLength = 50
)

// Status is a named state within a Type.
type Status struct {
	ID          ulid.ULID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	IsActive    bool      `json:"isActive"`
}

// EntityID implements entity.Entity.
func (s *Status) EntityID() ulid.ULID { return s.ID }

// Clone returns a copy of s.
func (s *Status) Clone() *Status {
	c := *s
	return &c
}

// Source opens status repositories, one unit of work per call.
type Source = entity.Source[*Status, ulid.ULID]

// Input carries the caller-controlled fields of a Status.
type Input struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type" yaml:"type"`
	// IsActive defaults to true when nil, on both create and update.
	IsActive *bool `json:"isActive,omitempty" yaml:"isActive,omitempty"`
}

func (in Input) active() bool {
	return in.IsActive == nil || *in.IsActive
}

func (in Input) validate() error {
	name := strings.TrimSpace(in.Name)
	typ := strings.TrimSpace(in.Type)
	switch {
	case name == "":
		return invalid("name", "name is required")
	case len(name) > MaxNameLength:
		return invalid("name", "name must be at most 100 characters")
	case typ == "":
		return invalid("type", "type is required")
	case len(typ) > MaxTypeLength:
		return invalid("type", "type must be at most 50 characters")
	}
	return nil
}

func invalid(field, msg string) error {
	return oops.Code("STATUS_INVALID_INPUT").With("field", field).Errorf("%s", msg)
}

// IsValidationError reports whether err was caused by bad Input.
func IsValidationError(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == "STATUS_INVALID_INPUT"
}

func uniqueKey(s *Status) string {
	return s.Type + "\x00" + s.Name
}
