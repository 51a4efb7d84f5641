package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCorrelationID_UsesContextValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)

	ctx := context.WithValue(context.Background(), CorrelatedIDKey, "req-42")
	logger.WithCorrelationID(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-42", line["correlation_id"])
	assert.Equal(t, "hello", line["msg"])
}

func TestGetLoggerInstanceFromContext_PrefersInjectedLogger(t *testing.T) {
	injected := NewLoggerWithWriter(&bytes.Buffer{})
	ctx := context.WithValue(context.Background(), LoggerKeyForContext, injected)

	assert.Same(t, injected, GetLoggerInstanceFromContext(ctx, nil))
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	NewLoggerWithWriter(&buf).Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	t.Setenv("LOG_LEVEL", "")
	buf.Reset()
	NewLoggerWithWriter(&buf).Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestContextWithCorrelationID_StoresTaggedLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithCorrelationID(context.Background(), NewLoggerWithWriter(&buf), "req-7")

	assert.Equal(t, "req-7", GetOrGenerateCorrelationID(ctx))
	GetLoggerInstanceFromContext(ctx, nil).Warn("slow")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-7", line["correlation_id"])
}

func TestLevelFromEnv_AcceptsWarning(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARNING")
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}
