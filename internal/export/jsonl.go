package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// JSONLExporter writes one role/content object per line. Empty fragments
// are skipped.
type JSONLExporter struct{}

// Export exports a document to JSONL format
func (e *JSONLExporter) Export(doc *Document, w io.Writer) error {
	if doc.Transcript == nil {
		return nil
	}
	enc := json.NewEncoder(w)

	for _, msg := range doc.Transcript.ContentMessages() {
		obj := map[string]interface{}{
			"role":    msg.Role,
			"content": msg.Content,
		}
		if !msg.Timestamp.IsZero() {
			obj["timestamp"] = msg.Timestamp.Format(time.RFC3339)
		}
		if msg.ToolName != "" {
			obj["tool"] = msg.ToolName
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
