package transcript

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/store"
)

const (
	globalDB    = "/cursor/globalStorage/state.vscdb"
	workspaceDB = "/cursor/workspaceStorage/abc/state.vscdb"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ms(d time.Duration) int64 {
	return epoch.Add(d).UnixMilli()
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

// putSession writes composerData:<storageID>. A nil order omits the list.
func putSession(t *testing.T, m *store.MemReader, path, storageID, logicalID string, createdAt int64, order []string) {
	t.Helper()
	meta := map[string]interface{}{"composerId": logicalID}
	if createdAt != 0 {
		meta["createdAt"] = createdAt
	}
	if order != nil {
		headers := make([]map[string]string, 0, len(order))
		for _, id := range order {
			headers = append(headers, map[string]string{"bubbleId": id})
		}
		meta["fullConversationHeadersOnly"] = headers
	}
	m.PutString(path, sessionKeyPrefix+storageID, mustJSON(t, meta))
}

func putFragment(t *testing.T, m *store.MemReader, path, storageID, fragmentID string, fields map[string]interface{}) {
	t.Helper()
	m.PutString(path, fragmentScanPrefix(storageID)+fragmentID, mustJSON(t, fields))
}

func fragmentIDs(tr *Transcript) []string {
	ids := make([]string, 0, tr.Len())
	for _, m := range tr.Messages {
		ids = append(ids, m.FragmentID)
	}
	return ids
}

// failingReader fails scans under one key prefix and delegates the rest.
type failingReader struct {
	store.Reader
	failPrefix string
	block      bool // wait for the context instead of failing at once
}

func (f *failingReader) Scan(ctx context.Context, storePath, keyPrefix string) (*store.ScanResult, error) {
	if strings.HasPrefix(keyPrefix, f.failPrefix) {
		if f.block {
			<-ctx.Done()
			return nil, &internal.StorageError{Path: storePath, Op: "scan", Err: ctx.Err()}
		}
		return nil, &internal.StorageError{Path: storePath, Op: "scan", Err: context.DeadlineExceeded}
	}
	return f.Reader.Scan(ctx, storePath, keyPrefix)
}
