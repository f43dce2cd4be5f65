package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/cursor-chatlog/internal/transcript"
)

// Document is what gets exported: a windowed transcript and the report
// that says how far to trust it.
type Document struct {
	Title       string
	Commit      string
	WindowStart time.Time
	WindowEnd   time.Time
	Transcript  *transcript.Transcript
	Report      *transcript.Report
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(doc *Document, w io.Writer) error
	Extension() string
}

// Formats lists the supported format names.
var Formats = []string{"jsonl", "json", "yaml", "md"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// structured is the shape shared by the JSON and YAML exporters. Empty
// fragments stay in so positions remain diagnosable.
type structured struct {
	Title       string               `json:"title,omitempty" yaml:"title,omitempty"`
	Commit      string               `json:"commit,omitempty" yaml:"commit,omitempty"`
	WindowStart *time.Time           `json:"window_start,omitempty" yaml:"window_start,omitempty"`
	WindowEnd   *time.Time           `json:"window_end,omitempty" yaml:"window_end,omitempty"`
	Messages    []transcript.Message `json:"messages" yaml:"messages"`
	Report      *transcript.Report   `json:"report,omitempty" yaml:"report,omitempty"`
}

func toStructured(doc *Document) structured {
	s := structured{
		Title:    doc.Title,
		Commit:   doc.Commit,
		Messages: []transcript.Message{},
		Report:   doc.Report,
	}
	if doc.Transcript != nil {
		s.Messages = append(s.Messages, doc.Transcript.Messages...)
	}
	if !doc.WindowStart.IsZero() {
		start := doc.WindowStart
		s.WindowStart = &start
	}
	if !doc.WindowEnd.IsZero() {
		end := doc.WindowEnd
		s.WindowEnd = &end
	}
	return s
}
