package testutil

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateKVStore creates a state.vscdb-shaped SQLite file with the
// cursorDiskKV and ItemTable tables and returns an open handle to it.
func CreateKVStore(t *testing.T, dbPath string) *sql.DB {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS cursorDiskKV (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`,
		`CREATE TABLE IF NOT EXISTS ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}
	return db
}

// InsertKV writes a raw value into cursorDiskKV.
func InsertKV(t *testing.T, db *sql.DB, key string, value interface{}) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO cursorDiskKV (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}

// InsertItem writes a raw value into ItemTable.
func InsertItem(t *testing.T, db *sql.DB, key string, value interface{}) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO ItemTable (key, value) VALUES (?, ?)", key, value); err != nil {
		t.Fatalf("Failed to insert item %s: %v", key, err)
	}
}

// InsertComposer stores session metadata under composerData:<storageID>.
// order lists the fragment ids of the authoritative header list.
func InsertComposer(t *testing.T, db *sql.DB, storageID, logicalID string, createdAt int64, order ...string) {
	t.Helper()
	headers := make([]map[string]interface{}, 0, len(order))
	for _, id := range order {
		headers = append(headers, map[string]interface{}{"bubbleId": id})
	}
	InsertKV(t, db, "composerData:"+storageID, JSONString(t, map[string]interface{}{
		"composerId":                  logicalID,
		"createdAt":                   createdAt,
		"fullConversationHeadersOnly": headers,
	}))
}

// InsertBubble stores a fragment under bubbleId:<storageID>:<fragmentID>.
func InsertBubble(t *testing.T, db *sql.DB, storageID, fragmentID string, fields map[string]interface{}) {
	t.Helper()
	InsertKV(t, db, "bubbleId:"+storageID+":"+fragmentID, JSONString(t, fields))
}

// CreateWorkspaceFixture creates workspaceStorage/<hash> with a workspace.json
// pointing at folder and returns the workspace directory.
func CreateWorkspaceFixture(t *testing.T, basePath, workspaceHash, folder string) string {
	t.Helper()
	workspaceDir := filepath.Join(basePath, "workspaceStorage", workspaceHash)
	if err := os.MkdirAll(workspaceDir, 0755); err != nil {
		t.Fatalf("Failed to create workspace directory: %v", err)
	}

	data, _ := json.Marshal(map[string]interface{}{"folder": folder})
	if err := os.WriteFile(filepath.Join(workspaceDir, "workspace.json"), data, 0644); err != nil {
		t.Fatalf("Failed to write workspace.json: %v", err)
	}
	return workspaceDir
}

// CreateMockCursorDir lays out a Cursor User directory with one workspace
// store listing composerIDs and an empty global store. It returns the base.
func CreateMockCursorDir(t *testing.T, folder string, composerIDs ...string) string {
	t.Helper()
	base := t.TempDir()

	wsDir := CreateWorkspaceFixture(t, base, "workspace-hash-123", folder)
	ws := CreateKVStore(t, filepath.Join(wsDir, "state.vscdb"))

	composers := make([]map[string]interface{}, 0, len(composerIDs))
	for _, id := range composerIDs {
		composers = append(composers, map[string]interface{}{"composerId": id})
	}
	InsertItem(t, ws, "composer.composerData", JSONString(t, map[string]interface{}{
		"allComposers": composers,
	}))

	CreateKVStore(t, filepath.Join(base, "globalStorage", "state.vscdb"))
	return base
}
