// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustOops fails the test unless err carries oops metadata.
func mustOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.Truef(t, ok, "want an oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode checks that the deepest oops code in err's chain is code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	got := mustOops(t, err).Code()
	assert.Equalf(t, code, got, "error code mismatch for %q", err.Error())
}

// AssertErrorContext checks that err's merged oops context maps key to value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	fields := mustOops(t, err).Context()
	if assert.Containsf(t, fields, key, "context of %q", err.Error()) {
		assert.Equal(t, value, fields[key])
	}
}
