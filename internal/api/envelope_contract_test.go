package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fixtures under testdata/envelope are shared with pkg/client, which
// decodes them. Each case renders the same value through the transformer and
// requires the exact fixture JSON back.

func readEnvelopeFixture(t *testing.T, name string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "testdata", "envelope", name))
	require.NoError(t, err, "contract tests require the shared fixtures")

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func renderEnvelope(t *testing.T, status string, v any) map[string]any {
	t.Helper()
	result, err := EnvelopeTransformer(nil, status, v)
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestEnvelopeContract_Fixtures(t *testing.T) {
	tests := []struct {
		fixture string
		status  string
		value   any
	}{
		{
			fixture: "success.json",
			status:  "200",
			value:   map[string]string{"id": "test-123", "name": "Test Item"},
		},
		{
			fixture: "success_null_data.json",
			status:  "204",
			value:   nil,
		},
		{
			fixture: "error_simple.json",
			status:  "404",
			value:   &APIError{Message: "Resource not found"},
		},
		{
			fixture: "error_detailed.json",
			status:  "409",
			value: &APIError{
				Code:    "conflict",
				Message: "Entity already exists",
				Details: map[string]string{"existing_id": "abc-123"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			assert.Equal(t, readEnvelopeFixture(t, tt.fixture), renderEnvelope(t, tt.status, tt.value))
		})
	}
}

func TestEnvelopeContract_VersionFieldIsV(t *testing.T) {
	out := renderEnvelope(t, "200", ListingsResponse{})

	assert.EqualValues(t, EnvelopeVersion, out["v"])
	assert.NotContains(t, out, "version")
	assert.NotContains(t, out, "Version")
}
