// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petnova/petnova/pkg/errutil"
)

func captureJSON(t *testing.T, emit func(*slog.Logger)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	emit(slog.New(slog.NewJSONHandler(&buf, nil)))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode any
		wantCtx  map[string]any
	}{
		{
			name:     "coded error with context",
			err:      oops.Code("STATUS_CREATE_FAILED").With("type", "Appointment").Errorf("insert failed"),
			wantCode: "STATUS_CREATE_FAILED",
			wantCtx:  map[string]any{"type": "Appointment"},
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := captureJSON(t, func(l *slog.Logger) { errutil.LogError(l, "request failed", tt.err) })

			assert.Equal(t, "ERROR", entry["level"])
			assert.Equal(t, "request failed", entry["msg"])
			assert.Contains(t, entry["error"], tt.err.Error())
			assert.Equal(t, tt.wantCode, entry["code"])
			if tt.wantCtx == nil {
				assert.NotContains(t, entry, "context")
				return
			}
			assert.Equal(t, tt.wantCtx, entry["context"])
		})
	}
}

func TestLogErrorContext_MergesWrappedContext(t *testing.T) {
	inner := oops.Code("ENTITY_CONFLICT").With("table", "users").Errorf("unique constraint violated")
	err := oops.With("op", "register").Wrap(inner)

	entry := captureJSON(t, func(l *slog.Logger) {
		errutil.LogErrorContext(context.Background(), l, "commit failed", err)
	})

	assert.Equal(t, "ENTITY_CONFLICT", entry["code"])
	fields, ok := entry["context"].(map[string]any)
	require.True(t, ok, "context should be an object: %v", entry["context"])
	assert.Equal(t, "users", fields["table"])
	assert.Equal(t, "register", fields["op"])
}

func TestAttrs_PlainErrorHasNoCode(t *testing.T) {
	attrs := errutil.Attrs(errors.New("boom"))
	require.Len(t, attrs, 2)
	assert.Equal(t, "error", attrs[0])
}
