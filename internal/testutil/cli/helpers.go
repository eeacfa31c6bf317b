package cli

import (
	"encoding/json"
	"testing"
)

// ParseJSON parses JSON output from CLI commands
func ParseJSON(t *testing.T, output string) map[string]any {
	t.Helper()

	var result map[string]any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, output)
	}

	return result
}

// DecodeJSON decodes the member key of a success envelope into v
func DecodeJSON(t *testing.T, output, key string, v any) {
	t.Helper()

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(output), &envelope); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, output)
	}
	raw, ok := envelope[key]
	if !ok {
		t.Fatalf("JSON output has no %q member: %s", key, output)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("Failed to decode %q: %v", key, err)
	}
}
