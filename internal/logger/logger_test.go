package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityEvent(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "json")
	defer Initialize("info", "text")

	SecurityEvent(context.Background(), "invalid_signature", "gateway_order_id", "order_abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "security", entry["category"])
	assert.Equal(t, "invalid_signature", entry["event"])
	assert.Equal(t, "order_abc", entry["gateway_order_id"])
}

func TestIntegrityIncident(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "json")
	defer Initialize("info", "text")

	IntegrityIncident(context.Background(), "capacity_release_failed", errors.New("db down"), "intent_id", "i-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "db down", entry["error"])
	assert.Equal(t, "i-1", entry["intent_id"])
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "text")
	defer Initialize("info", "text")

	EnterMethod("bookingService.CreateReservation")
	assert.Empty(t, buf.String())
}

func TestDatabaseResult_FailureLogsAtError(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "error", "json")
	defer Initialize("info", "text")

	DatabaseCall("UPDATE", "orders status", "orderID", "o-1")
	DatabaseResult("UPDATE", 1, nil, "orderID", "o-1")
	assert.Empty(t, buf.String(), "successful calls are debug only")

	DatabaseResult("UPDATE", 0, errors.New("deadlock detected"), "orderID", "o-1")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "UPDATE", entry["operation"])
	assert.Equal(t, "deadlock detected", entry["error"])
	assert.Equal(t, "o-1", entry["orderID"])
}

func TestInitialize_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "verbose", "JSON")
	defer Initialize("info", "text")

	Debug("hidden")
	Info("shown")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
}
