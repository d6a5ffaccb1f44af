package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunEventCarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	NewEventLogger(&buf).RunEvent("run-123", "run_finished", map[string]interface{}{
		"status": "submitted",
	})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run-123", line["run_id"])
	assert.Equal(t, "run_finished", line["event"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "submitted", line["fields"].(map[string]interface{})["status"])
	assert.NotEmpty(t, line["timestamp"])
}

func TestRunErrorCarriesError(t *testing.T) {
	var buf bytes.Buffer
	NewEventLogger(&buf).RunError("run-123", "run_failed", errors.New("browser gone"), nil)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "browser gone", line["error"])
}

func TestEventOmitsRunID(t *testing.T) {
	var buf bytes.Buffer
	NewEventLogger(&buf).Event("run_requested", nil)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	_, present := line["run_id"]
	assert.False(t, present)
}
