package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Initialize(Config{Level: level, Format: "json", Service: "lfk-test", Output: &buf})
	t.Cleanup(func() { global = nil })
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event))
	return event
}

func TestLogger_WritesFieldsServiceAndCaller(t *testing.T) {
	buf := captureJSON(t, "info")

	Info("Cart saved", Fields{"user_id": 7, "items": 2})

	event := decodeLine(t, buf)
	assert.Equal(t, "Cart saved", event["message"])
	assert.Equal(t, "info", event["level"])
	assert.Equal(t, "lfk-test", event["service"])
	assert.EqualValues(t, 7, event["user_id"])
	assert.Contains(t, event["caller"], "logger_test.go")
}

func TestLogger_ErrorCarriesErr(t *testing.T) {
	buf := captureJSON(t, "info")

	WithContext(Fields{"request_id": "abc"}).Error("Save failed", errors.New("redis down"))

	event := decodeLine(t, buf)
	assert.Equal(t, "redis down", event["error"])
	assert.Equal(t, "abc", event["request_id"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := captureJSON(t, "warn")

	Debug("hidden")
	Info("hidden")
	assert.Zero(t, buf.Len())

	Warn("shown")
	assert.NotZero(t, buf.Len())
}

func TestLevelOf(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, levelOf("DEBUG"))
	assert.Equal(t, zerolog.ErrorLevel, levelOf(" error "))
	assert.Equal(t, zerolog.InfoLevel, levelOf(""))
	assert.Equal(t, zerolog.InfoLevel, levelOf("verbose"))
}
