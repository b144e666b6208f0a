package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturingLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(NewMaskingHandler(slog.NewJSONHandler(buf, nil)))
}

func TestMaskingHandler_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := newCapturingLogger(&buf)

	log.Info("connecting",
		slog.String("token", "123:secret"),
		slog.String("user", "alice"),
		slog.Group("db", slog.String("password", "hunter2"), slog.String("host", "db")),
	)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, maskedValue, record["token"])
	assert.Equal(t, "alice", record["user"])

	db, ok := record["db"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, maskedValue, db["password"])
	assert.Equal(t, "db", db["host"])
}

func TestMaskingHandler_MasksBoundAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newCapturingLogger(&buf).With(slog.String("DSN", "postgres://u:p@db"))

	log.Info("ready")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, maskedValue, record["DSN"])
}

func TestMaskingHandler_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := newCapturingLogger(&buf)

	ctx := WithCorrelationID(context.Background())
	log.InfoContext(ctx, "handled")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, CorrelationIDFromContext(ctx), record["correlation_id"])
	assert.NotEmpty(t, record["correlation_id"])
}
