// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "not JSON: %s", buf.String())
	return entry
}

func TestSetup_JSON(t *testing.T) {
	for _, format := range []string{FormatJSON, "", "yaml"} {
		t.Run("format "+format, func(t *testing.T) {
			var buf bytes.Buffer
			Setup("petnova", "1.2.3", format, &buf).Info("hello", "user_id", "u1")

			entry := decode(t, &buf)
			assert.Equal(t, "hello", entry["msg"])
			assert.Equal(t, "petnova", entry["service"])
			assert.Equal(t, "1.2.3", entry["version"])
			assert.Equal(t, "u1", entry["user_id"])
			assert.Contains(t, entry, "time")
			assert.Contains(t, entry, "level")
		})
	}
}

func TestSetup_TextIsPlainForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	Setup("petnova", "1.2.3", FormatText, &buf).Warn("disk low", "free", "1GB")

	out := buf.String()
	assert.Contains(t, out, "disk low")
	assert.Contains(t, out, "service=petnova")
	assert.Contains(t, out, "free=1GB")
	assert.NotContains(t, out, "\x1b[", "buffers must not receive ANSI colors")
}

func TestHandler_ContextIdentifiers(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(),
		trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID}))
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "host/abc-000001")

	var buf bytes.Buffer
	Setup("petnova", "dev", FormatJSON, &buf).InfoContext(ctx, "traced")

	entry := decode(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
	assert.Equal(t, "host/abc-000001", entry["request_id"])
}

func TestHandler_NoContextIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	Setup("petnova", "dev", FormatJSON, &buf).Info("plain")

	entry := decode(t, &buf)
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
	assert.NotContains(t, entry, "request_id")
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("petnova", "dev", FormatJSON, &buf).
		With("component", "auth").
		WithGroup("req")
	logger.Info("grouped", "path", "/api/auth/login")

	entry := decode(t, &buf)
	assert.Equal(t, "auth", entry["component"])
	group, ok := entry["req"].(map[string]any)
	require.True(t, ok, "expected req group, got %v", entry)
	assert.Equal(t, "/api/auth/login", group["path"])
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger := SetDefault("petnova", "dev", FormatJSON)
	assert.Same(t, logger, slog.Default())
}
