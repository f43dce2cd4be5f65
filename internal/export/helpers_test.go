package export

import (
	"time"

	"github.com/iksnae/cursor-chatlog/internal/transcript"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testDocument() *Document {
	return &Document{
		Title:       "Chat for abc123",
		Commit:      "abc123",
		WindowStart: testTime.Add(-time.Hour),
		WindowEnd:   testTime.Add(time.Hour),
		Transcript: &transcript.Transcript{Messages: []transcript.Message{
			{Role: transcript.RoleUser, Kind: transcript.KindText, Content: "Hello, how are you?", PositionIndex: 0, Timestamp: testTime},
			{Role: transcript.RoleAssistant, Kind: transcript.KindEmpty, PositionIndex: 1},
			{Role: transcript.RoleAssistant, Kind: transcript.KindReasoning, Content: "consider X", PositionIndex: 2},
			{Role: transcript.RoleAssistant, Kind: transcript.KindToolInvocation, Content: `{"tool":"search"}`, ToolName: "search", PositionIndex: 3},
		}},
		Report: &transcript.Report{
			RunID:             "run-1",
			EmptyFragments:    1,
			AssembledMessages: 6,
			WindowedMessages:  4,
			Complete:          false,
			SessionsNotFound:  []string{"ghost"},
		},
	}
}
