package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/cursor-chatlog/internal/transcript"
)

// MarkdownExporter exports a document as Markdown
type MarkdownExporter struct{}

// Export writes the content-bearing messages followed by a completeness
// footer.
func (e *MarkdownExporter) Export(doc *Document, w io.Writer) error {
	title := doc.Title
	if title == "" {
		title = "Chat context"
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)

	if doc.Commit != "" {
		_, _ = fmt.Fprintf(w, "**Commit:** %s  \n", doc.Commit)
	}
	if !doc.WindowStart.IsZero() || !doc.WindowEnd.IsZero() {
		_, _ = fmt.Fprintf(w, "**Window:** %s to %s  \n", formatBound(doc.WindowStart), formatBound(doc.WindowEnd))
	}

	var messages []transcript.Message
	if doc.Transcript != nil {
		messages = doc.Transcript.ContentMessages()
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(messages))
	_, _ = fmt.Fprintf(w, "---\n\n")

	if len(messages) == 0 {
		_, _ = fmt.Fprintf(w, "_No chat context available._\n\n")
	}

	for i, msg := range messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.Format(time.RFC3339))
		}
		label := string(msg.Role)
		switch msg.Kind {
		case transcript.KindReasoning:
			label += " (thinking)"
		case transcript.KindToolInvocation:
			label += " (tool: " + msg.ToolName + ")"
		}

		content := msg.Content
		if msg.Kind == transcript.KindToolInvocation {
			content = "```json\n" + content + "\n```"
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", label, timestamp, escapeMarkdown(content))

		if i < len(messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	if doc.Report != nil {
		writeFooter(w, doc.Report)
	}
	return nil
}

func writeFooter(w io.Writer, r *transcript.Report) {
	status := "complete"
	if !r.Complete {
		status = "best effort (window may extend past what was recorded)"
	}
	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "_Completeness: %s. %d of %d messages in window; %d empty, %d unverified positions, %d unparsable records, %d missing fragments._\n",
		status, r.WindowedMessages, r.AssembledMessages, r.EmptyFragments, r.UnverifiedPositions, r.SkippedUnparsable, r.MissingFragments)
	if len(r.SessionsNotFound) > 0 {
		_, _ = fmt.Fprintf(w, "\n_Sessions not found: %s_\n", strings.Join(r.SessionsNotFound, ", "))
	}
	if len(r.UnavailableStores) > 0 {
		_, _ = fmt.Fprintf(w, "\n_Unavailable stores: %s_\n", strings.Join(r.UnavailableStores, ", "))
	}
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format(time.RFC3339)
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
