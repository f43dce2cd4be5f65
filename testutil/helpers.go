package testutil

import (
	"encoding/json"
	"testing"
)

// JSONString encodes v as a JSON document the way Cursor stores values:
// text in a BLOB column.
func JSONString(t testing.TB, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return string(data)
}

// DecodeJSON decodes command or tool output into v, failing the test on
// malformed output.
func DecodeJSON(t testing.TB, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to decode JSON output %q: %v", data, err)
	}
}
