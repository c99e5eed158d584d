package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Str("tracking_id", "abc123").Msg("hit captured")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "abc123", entry["tracking_id"])
	assert.Equal(t, "hit captured", entry["message"])
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestCtx_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	ctx := ContextWithRequestID(context.Background(), "req-1")
	Ctx(ctx).Info().Msg("with id")

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
