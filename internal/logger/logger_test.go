package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arin/ndstream/internal/logger"
)

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.WithWriter(&buf))
	l.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "key=value")
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger.New(logger.WithWriter(&buf), logger.WithDebug(false)).Debug("hidden")
	assert.Empty(t, buf.String())

	logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger.New(logger.WithWriter(&buf), logger.WithJSON(true)).Info("structured", "records", 3)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "structured", parsed["msg"])
	assert.EqualValues(t, 3, parsed["records"])
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	logger.New(logger.WithWriter(&buf), logger.WithPretty(true)).Warn("pretty output", "line", 2)
	assert.Contains(t, buf.String(), "pretty output")
}

func TestNop(t *testing.T) {
	l := logger.Nop()
	l.Error("nothing")
	assert.False(t, l.Enabled(t.Context(), 12))
}

func TestNew_JSONWinsOverPretty(t *testing.T) {
	var buf bytes.Buffer
	logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithJSON(true)).
		With("request_id", "abc").Info("submitting request")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "abc", parsed["request_id"])
}
