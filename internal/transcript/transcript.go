// Package transcript rebuilds an ordered chat transcript from the fragments
// Cursor scatters across its key-value stores and bounds it to a commit
// window. It never writes to a store and keeps no state between calls.
package transcript

import "time"

// Role is the speaker of a fragment as recorded by its explicit role marker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleUnknown   Role = "unknown" // no marker; kept and counted, never guessed
)

// PayloadKind says which content field a fragment was extracted from.
type PayloadKind string

const (
	KindText           PayloadKind = "text"
	KindReasoning      PayloadKind = "reasoning"
	KindToolInvocation PayloadKind = "toolInvocation"
	KindEmpty          PayloadKind = "empty"
)

// Message is one positioned fragment of an assembled transcript.
type Message struct {
	Role             Role        `json:"role" yaml:"role"`
	Kind             PayloadKind `json:"kind" yaml:"kind"`
	Content          string      `json:"content" yaml:"content"`
	LogicalID        string      `json:"logical_id" yaml:"logical_id"`
	SessionStorageID string      `json:"storage_id" yaml:"storage_id"`
	FragmentID       string      `json:"fragment_id" yaml:"fragment_id"`
	PositionIndex    int         `json:"position" yaml:"position"`
	Timestamp        time.Time   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	OrderSource      OrderSource `json:"order_source" yaml:"order_source"`
	OrdinalHint      *int        `json:"ordinal_hint,omitempty" yaml:"ordinal_hint,omitempty"`
	ToolName         string      `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
}

// Transcript is the merged, ordered message sequence for one extraction.
type Transcript struct {
	Messages []Message `json:"messages" yaml:"messages"`
}

// Pair is the role/content view handed to downstream consumers.
type Pair struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Len returns the number of messages, empty fragments included.
func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Messages)
}

// IsEmpty reports whether the transcript holds no messages at all.
func (t *Transcript) IsEmpty() bool {
	return t.Len() == 0
}

// ContentMessages returns the messages that carry content. Position
// indexes are left untouched.
func (t *Transcript) ContentMessages() []Message {
	if t == nil {
		return nil
	}
	out := make([]Message, 0, len(t.Messages))
	for _, m := range t.Messages {
		if m.Kind != KindEmpty {
			out = append(out, m)
		}
	}
	return out
}

// Pairs returns the content-bearing messages as plain role/content pairs.
func (t *Transcript) Pairs() []Pair {
	msgs := t.ContentMessages()
	pairs := make([]Pair, 0, len(msgs))
	for _, m := range msgs {
		pairs = append(pairs, Pair{Role: m.Role, Content: m.Content})
	}
	return pairs
}
