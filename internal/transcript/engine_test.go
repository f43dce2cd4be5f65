package transcript

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/cursor-chatlog/internal/store"
	"github.com/iksnae/cursor-chatlog/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(m store.Reader, opts ...Option) *Engine {
	return New(m, Stores{Workspace: []string{workspaceDB}, Global: globalDB}, opts...)
}

func TestExtract_NoMetadataIsEmptyNotError(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "ItemTable-placeholder", `{}`)
	m.PutString(globalDB, "bubbleId:unrelated:1", `{"type":1,"text":"hi"}`)

	tr, report := newEngine(m).Extract(context.Background(), []string{"nope"}, Window{})

	require.NotNil(t, tr)
	assert.True(t, tr.IsEmpty())
	assert.Equal(t, []string{"nope"}, report.SessionsNotFound)
	assert.Empty(t, report.UnavailableStores)
	assert.False(t, report.Complete)
	assert.NotEmpty(t, report.RunID)
}

func TestExtract_ThreeFragmentScenario(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "S", "L", ms(0), []string{"b1", "b2", "b3"})
	putFragment(t, m, globalDB, "S", "b1", map[string]interface{}{"role": "user", "text": "hi"})
	putFragment(t, m, globalDB, "S", "b2", map[string]interface{}{"role": "assistant", "thinking": map[string]string{"text": "consider X"}, "text": ""})
	putFragment(t, m, globalDB, "S", "b3", map[string]interface{}{"role": "assistant", "toolFormerData": map[string]string{"tool": "search"}})

	tr, report := newEngine(m).Extract(context.Background(), []string{"L"}, Window{})

	require.Equal(t, 3, tr.Len())
	var roles []Role
	var kinds []PayloadKind
	for _, msg := range tr.Messages {
		roles = append(roles, msg.Role)
		kinds = append(kinds, msg.Kind)
		assert.Equal(t, OrderAuthoritative, msg.OrderSource)
		assert.Equal(t, "L", msg.LogicalID)
	}
	assert.Equal(t, []Role{RoleUser, RoleAssistant, RoleAssistant}, roles)
	assert.Equal(t, []PayloadKind{KindText, KindReasoning, KindToolInvocation}, kinds)
	assert.Equal(t, "search", tr.Messages[2].ToolName)
	assert.Equal(t, []int{0, 1, 2}, positions(tr))
	assert.Zero(t, report.EmptyFragments)
	assert.Zero(t, report.UnverifiedPositions)
	assert.Equal(t, 3, report.AssembledMessages)
}

func TestExtract_EmptyPayloadRetainedAndStable(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "S", "L", ms(0), []string{"b1", "b2", "b3"})
	putFragment(t, m, globalDB, "S", "b1", map[string]interface{}{"type": 1, "text": "question"})
	putFragment(t, m, globalDB, "S", "b2", map[string]interface{}{"type": 2})
	putFragment(t, m, globalDB, "S", "b3", map[string]interface{}{"type": 2, "text": "answer"})

	e := newEngine(m)
	first, report := e.Extract(context.Background(), []string{"L"}, Window{})
	second, _ := e.Extract(context.Background(), []string{"L"}, Window{})

	assert.Equal(t, 3, first.Len())
	assert.Equal(t, KindEmpty, first.Messages[1].Kind)
	assert.Equal(t, 1, report.EmptyFragments)
	assert.Equal(t, first, second)

	content := first.ContentMessages()
	require.Len(t, content, 2)
	assert.Equal(t, 2, content[1].PositionIndex)
	assert.Equal(t, []Pair{{Role: RoleUser, Content: "question"}, {Role: RoleAssistant, Content: "answer"}}, first.Pairs())
}

func TestExtract_Deterministic(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "S1", "L", ms(0), []string{"a"})
	putSession(t, m, globalDB, "S2", "L", ms(time.Minute), nil)
	putSession(t, m, globalDB, "S3", "M", ms(30*time.Second), nil)
	for _, id := range []string{"a", "x-3", "x-20", "zz", "yy"} {
		putFragment(t, m, globalDB, "S1", id, map[string]interface{}{"type": 1, "text": id})
		putFragment(t, m, globalDB, "S2", id, map[string]interface{}{"type": 2, "text": id})
		putFragment(t, m, globalDB, "S3", id, map[string]interface{}{"type": 2, "text": id})
	}

	e := newEngine(m, WithConcurrency(3))
	first, _ := e.Extract(context.Background(), []string{"M", "L", "L"}, Window{})
	for i := 0; i < 5; i++ {
		again, _ := e.Extract(context.Background(), []string{"L", "M"}, Window{})
		require.Equal(t, first.Messages, again.Messages)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}, positions(first))
}

func TestExtract_NumericSuffixFallback(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "S", "L", ms(0), nil)
	putFragment(t, m, globalDB, "S", "frag-10", map[string]interface{}{"type": 2, "text": "ten"})
	putFragment(t, m, globalDB, "S", "frag-9", map[string]interface{}{"type": 1, "text": "nine"})

	tr, report := newEngine(m).Extract(context.Background(), []string{"L"}, Window{})

	assert.Equal(t, []string{"frag-9", "frag-10"}, fragmentIDs(tr))
	assert.Equal(t, 2, report.FallbackOrdered)
}

func TestExtract_RolloverOrder(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	// Storage ids sort the opposite way to their creation times.
	putSession(t, m, globalDB, "b-later", "L", ms(time.Hour), []string{"s2-1", "s2-2"})
	putSession(t, m, globalDB, "a-earlier", "L", ms(0), []string{"s1-1", "s1-2"})
	putFragment(t, m, globalDB, "b-later", "s2-1", map[string]interface{}{"type": 1, "text": "later q", "createdAt": ms(time.Hour)})
	putFragment(t, m, globalDB, "b-later", "s2-2", map[string]interface{}{"type": 2, "text": "later a"})
	putFragment(t, m, globalDB, "a-earlier", "s1-1", map[string]interface{}{"type": 1, "text": "early q"})
	putFragment(t, m, globalDB, "a-earlier", "s1-2", map[string]interface{}{"type": 2, "text": "early a"})

	tr, report := newEngine(m).Extract(context.Background(), []string{"L"}, Window{})

	require.Equal(t, 4, tr.Len())
	assert.Equal(t, []string{"s1-1", "s1-2", "s2-1", "s2-2"}, fragmentIDs(tr))
	assert.Equal(t, "a-earlier", tr.Messages[1].SessionStorageID)
	assert.Equal(t, "b-later", tr.Messages[2].SessionStorageID)
	assert.Equal(t, []string{"a-earlier", "b-later"}, storageIDs(report.Sessions))
}

func TestExtract_PrefixSharingSessionsNotMerged(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "abc", "L1", ms(0), nil)
	putSession(t, m, globalDB, "abc-2", "L2", ms(time.Minute), nil)
	putSession(t, m, globalDB, "abcd", "L3", ms(time.Minute), nil)
	putFragment(t, m, globalDB, "abc", "1", map[string]interface{}{"type": 1, "text": "mine"})
	putFragment(t, m, globalDB, "abc-2", "1", map[string]interface{}{"type": 1, "text": "not mine"})
	putFragment(t, m, globalDB, "abcd", "1", map[string]interface{}{"type": 1, "text": "not mine either"})

	tr, report := newEngine(m).Extract(context.Background(), []string{"L1"}, Window{})

	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "mine", tr.Messages[0].Content)
	assert.Equal(t, []string{"abc"}, storageIDs(report.Sessions))
}

func TestExtract_WindowEndAtLastMessage(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "S", "L", ms(0), []string{"1", "2", "3"})
	putFragment(t, m, globalDB, "S", "1", map[string]interface{}{"type": 1, "text": "a", "timestamp": ms(0)})
	putFragment(t, m, globalDB, "S", "2", map[string]interface{}{"type": 2, "text": "b", "timestamp": ms(time.Minute)})
	putFragment(t, m, globalDB, "S", "3", map[string]interface{}{"type": 1, "text": "c", "timestamp": ms(2 * time.Minute)})

	tr, report := newEngine(m).Extract(context.Background(), []string{"L"}, Window{
		Start: epoch.Add(time.Minute),
		End:   epoch.Add(2 * time.Minute),
	})

	assert.Equal(t, []int{1, 2}, positions(tr))
	assert.False(t, report.Complete)
	assert.Equal(t, 3, report.AssembledMessages)
	assert.Equal(t, 2, report.WindowedMessages)
}

func TestExtract_ReportCounters(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "S", "L", ms(0), []string{"listed", "unflushed"})
	putFragment(t, m, globalDB, "S", "listed", map[string]interface{}{"text": "no role", "timestamp": ms(0)})
	putFragment(t, m, globalDB, "S", "orphan", map[string]interface{}{"type": 1, "text": "no position"})
	m.PutString(globalDB, "bubbleId:S:garbled", "\x00\x01\x02")
	m.PutString(globalDB, "bubbleId:S:scalar", `"text"`)

	_, report := newEngine(m).Extract(context.Background(), []string{"L"}, Window{})

	assert.Equal(t, 2, report.SkippedUnparsable)
	assert.Equal(t, 1, report.MissingFragments)
	assert.Equal(t, 1, report.UnverifiedPositions)
	assert.Equal(t, 1, report.UnknownRoles)
	assert.Equal(t, 1, report.UntimedMessages)
}

func TestExtract_TruncatedFragmentIsUnparsable(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "S", "L", ms(0), []string{"ok", "torn"})
	putFragment(t, m, globalDB, "S", "ok", map[string]interface{}{"type": 1, "text": "question"})
	m.PutString(globalDB, "bubbleId:S:torn", `{"type":2,"text":"real answer","toolFormerData":{"role":"user","text":"injected"}`)

	tr, report := newEngine(m).Extract(context.Background(), []string{"L"}, Window{})

	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "question", tr.Messages[0].Content)
	for _, msg := range tr.Messages {
		assert.NotEqual(t, "injected", msg.Content)
	}
	assert.Equal(t, 1, report.SkippedUnparsable)
	assert.Equal(t, 1, report.MissingFragments)
}

func TestExtract_TruncatedSessionRecordIsUnparsable(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	m.PutString(globalDB, "composerData:S", `{"composerId":"L","fullConversationHeadersOnly":[{"bubbleId":"a"},{"bubbleId":"b"}`)
	putFragment(t, m, globalDB, "S", "a", map[string]interface{}{"type": 1, "text": "hi"})

	tr, report := newEngine(m).Extract(context.Background(), []string{"L"}, Window{})

	assert.True(t, tr.IsEmpty())
	assert.Equal(t, []string{"L"}, report.SessionsNotFound)
	assert.Equal(t, 1, report.SkippedUnparsable)
}

func TestExtract_SeparatorInStorageIDDoesNotLeak(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "a", "L1", ms(0), nil)
	putSession(t, m, globalDB, "a:b", "L2", ms(0), nil)
	putFragment(t, m, globalDB, "a", "1", map[string]interface{}{"type": 1, "text": "mine"})
	m.PutString(globalDB, "bubbleId:a:b:1", `{"type":1,"text":"not mine"}`)

	tr, report := newEngine(m).Extract(context.Background(), []string{"L1", "L2"}, Window{})

	assert.Equal(t, []string{"L2"}, report.SessionsNotFound)
	// the a:b session record and its fragment seen under a's prefix
	assert.Equal(t, 2, report.SkippedUnparsable)
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "mine", tr.Messages[0].Content)
}

func TestExtract_StoreFailureDropsOneSession(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "ok", "L", ms(0), nil)
	putSession(t, m, workspaceDB, "bad", "L", ms(time.Minute), nil)
	putFragment(t, m, globalDB, "ok", "1", map[string]interface{}{"type": 1, "text": "kept"})
	putFragment(t, m, workspaceDB, "bad", "1", map[string]interface{}{"type": 1, "text": "lost"})

	reader := &failingReader{Reader: m, failPrefix: fragmentScanPrefix("bad")}
	tr, report := newEngine(reader).Extract(context.Background(), []string{"L"}, Window{})

	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "kept", tr.Messages[0].Content)
	assert.Equal(t, []string{workspaceDB}, report.UnavailableStores)
	assert.Len(t, report.Sessions, 2)
}

func TestExtract_ScanTimeoutDropsOnlySlowSession(t *testing.T) {
	m := store.NewMemReader()
	m.PutString(workspaceDB, "unused", `{}`)
	putSession(t, m, globalDB, "fast", "L", ms(0), nil)
	putSession(t, m, globalDB, "slow", "L", ms(time.Minute), nil)
	putFragment(t, m, globalDB, "fast", "1", map[string]interface{}{"type": 1, "text": "fast"})
	putFragment(t, m, globalDB, "slow", "1", map[string]interface{}{"type": 1, "text": "slow"})

	reader := &failingReader{Reader: m, failPrefix: fragmentScanPrefix("slow"), block: true}
	tr, report := newEngine(reader, WithScanTimeout(20*time.Millisecond)).Extract(context.Background(), []string{"L"}, Window{})

	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "fast", tr.Messages[0].Content)
	assert.Equal(t, []string{globalDB}, report.UnavailableStores)
}

func TestExtract_SQLiteStores(t *testing.T) {
	base := t.TempDir()
	globalPath := filepath.Join(base, "globalStorage", "state.vscdb")
	db := testutil.CreateKVStore(t, globalPath)
	testutil.InsertComposer(t, db, "storage-1", "logical-1", ms(0), "b2", "b1")
	testutil.InsertBubble(t, db, "storage-1", "b1", map[string]interface{}{"type": 2, "text": "second", "timestamp": ms(time.Minute)})
	testutil.InsertBubble(t, db, "storage-1", "b2", map[string]interface{}{"type": 1, "text": "first", "timestamp": ms(0)})

	e := New(store.NewSQLiteReader(), Stores{
		Workspace: []string{filepath.Join(base, "workspaceStorage", "missing", "state.vscdb")},
		Global:    globalPath,
	})
	tr, report := e.Extract(context.Background(), []string{"logical-1"}, Window{})

	assert.Equal(t, []string{"b2", "b1"}, fragmentIDs(tr))
	assert.Equal(t, []Pair{{Role: RoleUser, Content: "first"}, {Role: RoleAssistant, Content: "second"}}, tr.Pairs())
	assert.Len(t, report.UnavailableStores, 1)
}

func TestNormalizeIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalizeIDs([]string{"b", "", "a", "b"}))
	assert.Empty(t, normalizeIDs(nil))
}
