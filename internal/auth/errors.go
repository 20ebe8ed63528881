// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package auth

import "github.com/samber/oops"

// IsValidationError reports whether err rejects caller input rather than
// signalling a fault.
func IsValidationError(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	switch oopsErr.Code() {
	case "AUTH_INVALID_INPUT", "AUTH_EMPTY_PASSWORD", "AUTH_INVALID_PASSWORD":
		return true
	}
	return false
}
